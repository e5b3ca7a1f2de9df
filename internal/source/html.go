package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ScriptType is the type attribute of a <script> element holding markup.
const ScriptType = "text/x-uidoc"

// HTMLLoader takes the markup from the one <script type="text/x-uidoc">
// element. The <title> becomes the title.
type HTMLLoader struct{}

func (l *HTMLLoader) Load(r io.Reader, filename string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &Source{Name: stem(filename), Title: findTitle(doc)}
	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && attr(n, "type") == ScriptType {
			scripts = append(scripts, textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	switch len(scripts) {
	case 0:
		return nil, fmt.Errorf("%s: no <script type=%q> element found", filename, ScriptType)
	case 1:
		out.Text = scripts[0]
		return out, nil
	}
	return nil, fmt.Errorf("%s: %d <script type=%q> elements found, expected one", filename, len(scripts), ScriptType)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// textContent keeps whitespace; markup positions depend on it.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
