package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence languages that mark a code block as uidoc markup.
var markupLanguages = map[string]bool{"uidoc": true, "azd": true}

// MarkdownLoader takes the markup from the one fenced code block tagged
// `uidoc` (or `azd`). The first heading becomes the title.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	out := &Source{Name: stem(filename)}
	var blocks int
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if out.Title == "" {
				out.Title = headingText(node, src)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if !markupLanguages[strings.ToLower(string(node.Language(src)))] {
				return ast.WalkSkipChildren, nil
			}
			blocks++
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if i == 0 {
					out.Line = bytes.Count(src[:seg.Start], []byte("\n")) + 1
				}
				buf.Write(seg.Value(src))
			}
			out.Text = buf.String()
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case blocks == 0:
		return nil, fmt.Errorf("%s: no ```uidoc code block found", filename)
	case blocks > 1:
		return nil, fmt.Errorf("%s: %d uidoc code blocks found, expected one", filename, blocks)
	}
	return out, nil
}

func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
