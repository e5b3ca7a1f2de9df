// Package uitree is the generic UI-node tree handed to renderers.
package uitree

import (
	"fmt"
	"strconv"
)

// TextHandle refers to resolved text content (body, font, size).
type TextHandle uint64

// ImageHandle refers to a registered image.
type ImageHandle uint64

// FontHandle refers to a registered font.
type FontHandle uint64

func (h TextHandle) String() string  { return "text#" + strconv.FormatUint(uint64(h), 10) }
func (h ImageHandle) String() string { return "image#" + strconv.FormatUint(uint64(h), 10) }
func (h FontHandle) String() string  { return "font#" + strconv.FormatUint(uint64(h), 10) }

// Kind is the kind tag of an output node.
type Kind string

const (
	Container Kind = "container"
	Label     Kind = "label"
	Image     Kind = "image"
	Text      Kind = "text"
)

// Node is one UI node. Exactly one payload field is meaningful for each
// kind: Label for labels, Image for images, Text for text; a container
// carries none.
type Node struct {
	Kind     Kind        `json:"kind"`
	ID       string      `json:"id,omitempty"`
	Label    string      `json:"label,omitempty"`
	Image    ImageHandle `json:"image,omitempty"`
	Text     TextHandle  `json:"text,omitempty"`
	Children []*Node     `json:"children,omitempty"`
}

// Walk visits n and its descendants in document order.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two trees have the same shape and payloads.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.ID != b.ID || a.Label != b.Label || a.Image != b.Image || a.Text != b.Text {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes of each kind.
func (n *Node) Count() map[Kind]int {
	counts := make(map[Kind]int)
	_ = n.Walk(func(m *Node) error {
		counts[m.Kind]++
		return nil
	})
	return counts
}

func (n *Node) String() string {
	switch n.Kind {
	case Label:
		return fmt.Sprintf("label(%q)", n.Label)
	case Image:
		return fmt.Sprintf("image(%s)", n.Image)
	case Text:
		return fmt.Sprintf("text(%s)", n.Text)
	}
	return string(n.Kind)
}
