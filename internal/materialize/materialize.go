// Package materialize turns a parsed tree plus resolved resource handles
// into the output UI tree.
package materialize

import (
	"fmt"

	"github.com/dgallion1/uidoc/internal/ast"
	"github.com/dgallion1/uidoc/internal/parser"
	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/uitree"
)

// ImageResolver maps an image id to a handle.
type ImageResolver interface {
	ResolveImage(id string) (uitree.ImageHandle, bool)
}

// ImageFunc adapts a function to ImageResolver.
type ImageFunc func(id string) (uitree.ImageHandle, bool)

func (f ImageFunc) ResolveImage(id string) (uitree.ImageHandle, bool) { return f(id) }

// Option configures Materialize.
type Option func(*materializer)

// WithMaxDepth bounds the depth of trees Materialize accepts.
func WithMaxDepth(n int) Option {
	return func(m *materializer) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

type materializer struct {
	texts    []uitree.TextHandle
	next     int
	images   ImageResolver
	maxDepth int
}

// Materialize builds the output tree for root. texts must hold exactly one
// handle per Text node, in document order; it is read, never modified, so
// the same slice and tree may be materialized again. Nothing is returned
// on error.
func Materialize(root *ast.Point, texts []uitree.TextHandle, images ImageResolver, opts ...Option) (*uitree.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("materialize: nil tree")
	}
	m := &materializer{texts: texts, images: images, maxDepth: parser.DefaultMaxDepth}
	for _, opt := range opts {
		opt(m)
	}

	out, err := m.point(root, 1)
	if err != nil {
		return nil, err
	}
	if m.next < len(m.texts) {
		return nil, &resource.ResourceError{
			Kind: resource.TextQueueSurplus,
			Name: fmt.Sprintf("%d unused", len(m.texts)-m.next),
		}
	}
	return out, nil
}

func (m *materializer) point(p *ast.Point, depth int) (*uitree.Node, error) {
	if depth > m.maxDepth {
		return nil, fmt.Errorf("%s: materialize: tree deeper than %d levels", p.Node.Pos, m.maxDepth)
	}
	out := &uitree.Node{ID: p.Node.ID}

	switch p.Node.Kind {
	case ast.Container:
		out.Kind = uitree.Container
	case ast.Label:
		out.Kind = uitree.Label
		out.Label = p.Node.Arg
	case ast.Image:
		out.Kind = uitree.Image
		if m.images == nil {
			return nil, &resource.ResourceError{Kind: resource.UnknownImage, Name: p.Node.Arg}
		}
		h, ok := m.images.ResolveImage(p.Node.Arg)
		if !ok {
			return nil, &resource.ResourceError{Kind: resource.UnknownImage, Name: p.Node.Arg}
		}
		out.Image = h
	case ast.Text:
		out.Kind = uitree.Text
		if m.next >= len(m.texts) {
			return nil, &resource.ResourceError{Kind: resource.TextQueueExhausted}
		}
		out.Text = m.texts[m.next]
		m.next++
	default:
		return nil, fmt.Errorf("%s: materialize: unknown node kind %s", p.Node.Pos, p.Node.Kind)
	}

	if len(p.Children) > 0 {
		out.Children = make([]*uitree.Node, 0, len(p.Children))
		for _, c := range p.Children {
			child, err := m.point(c, depth+1)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, child)
		}
	}
	return out, nil
}
