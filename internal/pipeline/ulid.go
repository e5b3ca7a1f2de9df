package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job ids are ULIDs: 26 Crockford Base32 characters encoding a 48-bit
// millisecond timestamp and 80 bits whose first 16 are a per-millisecond
// sequence, so ids from one process sort by creation time.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func generateULID() string {
	return newULID(time.Now())
}

func newULID(now time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(now.UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], ts)
	copy(b[:6], tsBytes[2:])
	rand.Read(b[8:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)
	return encodeCrockford(b)
}

// encodeCrockford writes 128 bits as 26 five-bit digits; the two leading
// bits of the 130-bit field are zero.
func encodeCrockford(b [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for j := 0; j < 5; j++ {
			bit := i*5 + j - 2
			v <<= 1
			if bit >= 0 && b[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
