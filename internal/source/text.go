package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TextLoader handles files that hold markup directly.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var buf strings.Builder
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if lineNo == 1 {
			line = trimBOM(line)
		}
		if !utf8.Valid(line) {
			return nil, fmt.Errorf("%s:%d: invalid UTF-8", filename, lineNo)
		}
		if lineNo > 1 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Source{Name: stem(filename), Text: buf.String(), Line: 1}, nil
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
