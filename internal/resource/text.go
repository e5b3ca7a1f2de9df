package resource

import (
	"strconv"
	"sync"

	"github.com/dgallion1/uidoc/internal/ast"
	"github.com/dgallion1/uidoc/internal/uitree"
)

// Text is resolved text content.
type Text struct {
	Handle uitree.TextHandle `json:"handle"`
	Body   string            `json:"body"`
	Font   uitree.FontHandle `json:"font"`
	Size   uint64            `json:"size"`
}

type textKey struct {
	body string
	font uitree.FontHandle
	size uint64
}

// TextStore turns parsed text arguments into text handles. Equal texts
// share a handle, so handles stay valid for the life of the store.
type TextStore struct {
	fonts *FontRegistry

	mu       sync.RWMutex
	next     uint64
	byHandle map[uitree.TextHandle]*Text
	byKey    map[textKey]uitree.TextHandle
}

func NewTextStore(fonts *FontRegistry) *TextStore {
	return &TextStore{
		fonts:    fonts,
		byHandle: make(map[uitree.TextHandle]*Text),
		byKey:    make(map[textKey]uitree.TextHandle),
	}
}

// Resolve returns one handle per argument, in the same order. A missing
// font selects the default and a missing size selects ast.DefaultFontSize.
// Nothing is stored if any font name is unknown.
func (s *TextStore) Resolve(args []ast.TextArgument) ([]uitree.TextHandle, error) {
	texts := make([]Text, len(args))
	for i, arg := range args {
		font, err := s.fonts.Resolve(arg.Font)
		if err != nil {
			return nil, err
		}
		texts[i] = Text{Body: arg.Body, Font: font, Size: arg.PixelSize()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	handles := make([]uitree.TextHandle, len(texts))
	for i := range texts {
		t := texts[i]
		key := textKey{body: t.Body, font: t.Font, size: t.Size}
		if h, ok := s.byKey[key]; ok {
			handles[i] = h
			continue
		}
		s.next++
		t.Handle = uitree.TextHandle(s.next)
		s.byHandle[t.Handle] = &t
		s.byKey[key] = t.Handle
		handles[i] = t.Handle
	}
	return handles, nil
}

// Lookup returns the text behind h.
func (s *TextStore) Lookup(h uitree.TextHandle) (Text, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byHandle[h]
	if !ok {
		return Text{}, &ResourceError{Kind: UnknownHandle, Name: h.String()}
	}
	return *t, nil
}

// Len returns the number of distinct texts.
func (s *TextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHandle)
}

func (t Text) String() string {
	return strconv.Quote(t.Body) + " " + t.Font.String() + " " + strconv.FormatUint(t.Size, 10) + "px"
}
