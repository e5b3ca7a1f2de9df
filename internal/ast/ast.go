// Package ast holds the syntax tree produced by the parser.
//
// A tree is built once per parse and is never mutated afterwards, so the
// same tree may be walked by any number of goroutines at once.
package ast

import (
	"fmt"

	"github.com/dgallion1/uidoc/internal/token"
)

// Kind is the element kind of a node.
type Kind int

const (
	Container Kind = iota
	Label
	Image
	Text
)

func (k Kind) String() string {
	switch k {
	case Container:
		return "container"
	case Label:
		return "label"
	case Image:
		return "image"
	case Text:
		return "text"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is a single element. Arg holds the literal text of a Label or the
// image id of an Image; it is empty for Container and Text. The body of a
// Text node lives in the TextArgument list, not in the tree.
type Node struct {
	Kind Kind
	ID   string // empty when the element has no identifier
	Arg  string
	Pos  token.Pos
}

// Point is a node of the tree. A Point with no children is an Element;
// one with children is a Joint.
type Point struct {
	Node     Node
	Children []*Point
}

// Element returns a leaf point.
func Element(n Node) *Point {
	return &Point{Node: n}
}

// Joint returns a point with children. children must not be empty.
func Joint(n Node, children ...*Point) *Point {
	return &Point{Node: n, Children: children}
}

// IsJoint reports whether p has children.
func (p *Point) IsJoint() bool {
	return len(p.Children) > 0
}

// Walk visits p and its descendants in document order (depth-first,
// node before children, left to right). It stops at the first error fn
// returns.
func (p *Point) Walk(fn func(p *Point, depth int) error) error {
	return p.walk(fn, 0)
}

func (p *Point) walk(fn func(*Point, int) error, depth int) error {
	if err := fn(p, depth); err != nil {
		return err
	}
	for _, c := range p.Children {
		if err := c.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// CountText returns the number of Text nodes in the tree.
func (p *Point) CountText() int {
	n := 0
	_ = p.Walk(func(q *Point, _ int) error {
		if q.Node.Kind == Text {
			n++
		}
		return nil
	})
	return n
}

// Depth returns the nesting depth of the tree; a single element has depth 1.
func (p *Point) Depth() int {
	deepest := 0
	_ = p.Walk(func(_ *Point, d int) error {
		if d+1 > deepest {
			deepest = d + 1
		}
		return nil
	})
	return deepest
}

// DefaultFontSize is the pixel size used when a font is named without a size.
const DefaultFontSize = 10

// TextArgument is the out-of-band content of one Text node. Font is empty
// when no font was given; HasSize is false when no size was given.
type TextArgument struct {
	Body    string `json:"body"`
	Font    string `json:"font,omitempty"`
	Size    uint64 `json:"size"`
	HasSize bool   `json:"has_size"`
}

// PixelSize returns the explicit size, which may be zero, or DefaultFontSize.
func (a TextArgument) PixelSize() uint64 {
	if !a.HasSize {
		return DefaultFontSize
	}
	return a.Size
}
