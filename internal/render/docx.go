package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// DOCX writes root as a Word document. The tree is flattened in document
// order: each label and text becomes a paragraph and each image an inline
// drawing. Containers only contribute their children.
func DOCX(w io.Writer, root *uitree.Node, title string, res Resources) error {
	doc := docx.New().WithDefaultTheme()
	if title != "" {
		doc.AddParagraph().Style("Title").AddText(title).Bold().Size("36")
	}

	err := root.Walk(func(n *uitree.Node) error {
		switch n.Kind {
		case uitree.Label:
			doc.AddParagraph().AddText(n.Label)
		case uitree.Image:
			img, err := res.LookupImage(n.Image)
			if err != nil {
				return err
			}
			if _, err := doc.AddParagraph().AddInlineDrawing(img.Data()); err != nil {
				return fmt.Errorf("render docx: image %q: %w", img.Name, err)
			}
		case uitree.Text:
			text, err := res.LookupText(n.Text)
			if err != nil {
				return err
			}
			font, err := res.LookupFont(text.Font)
			if err != nil {
				return err
			}
			name := fontName(font)
			doc.AddParagraph().AddText(text.Body).
				Size(halfPoints(text.Size)).
				Font(name, name, name, "default")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("render docx: %w", err)
	}
	return nil
}

// halfPoints converts a pixel size to Word's half-point unit (1px = 0.75pt).
func halfPoints(px uint64) string {
	return strconv.FormatUint(px*3/2, 10)
}
