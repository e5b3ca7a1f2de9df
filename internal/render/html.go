package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// HTML writes root as a standalone HTML page. Images are inlined as data
// URLs. Nothing is written if a handle cannot be resolved.
func HTML(w io.Writer, root *uitree.Node, title string, res Resources) error {
	body := element(atom.Body)
	n, err := htmlNode(root, res)
	if err != nil {
		return err
	}
	body.AppendChild(n)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	t := element(atom.Title)
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(t)

	page := element(atom.Html)
	page.AppendChild(head)
	page.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(page)
	return html.Render(w, doc)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func htmlNode(n *uitree.Node, res Resources) (*html.Node, error) {
	var out *html.Node
	switch n.Kind {
	case uitree.Container:
		out = element(atom.Div)
	case uitree.Label:
		out = element(atom.Span, html.Attribute{Key: "class", Val: "label"})
		out.AppendChild(&html.Node{Type: html.TextNode, Data: n.Label})
	case uitree.Image:
		img, err := res.LookupImage(n.Image)
		if err != nil {
			return nil, err
		}
		out = element(atom.Img,
			html.Attribute{Key: "src", Val: "data:" + img.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(img.Data())},
			html.Attribute{Key: "alt", Val: img.Name},
			html.Attribute{Key: "width", Val: strconv.Itoa(img.Width)},
			html.Attribute{Key: "height", Val: strconv.Itoa(img.Height)},
		)
	case uitree.Text:
		text, err := res.LookupText(n.Text)
		if err != nil {
			return nil, err
		}
		font, err := res.LookupFont(text.Font)
		if err != nil {
			return nil, err
		}
		style := fmt.Sprintf("font-family: %s; font-size: %dpx", cssFontFamily(fontName(font)), text.Size)
		out = element(atom.P, html.Attribute{Key: "class", Val: "text"}, html.Attribute{Key: "style", Val: style})
		out.AppendChild(&html.Node{Type: html.TextNode, Data: text.Body})
	default:
		return nil, fmt.Errorf("render html: unknown node kind %q", n.Kind)
	}
	if n.ID != "" {
		out.Attr = append(out.Attr, html.Attribute{Key: "id", Val: n.ID})
	}

	// img is a void element; its children go into a wrapping div.
	if out.DataAtom == atom.Img && len(n.Children) > 0 {
		wrap := element(atom.Div, html.Attribute{Key: "class", Val: "image"})
		wrap.AppendChild(out)
		out = wrap
	}
	for _, c := range n.Children {
		child, err := htmlNode(c, res)
		if err != nil {
			return nil, err
		}
		out.AppendChild(child)
	}
	return out, nil
}
