package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXLoader takes the markup from the body paragraphs, one line per
// paragraph. Paragraphs styled as headings are not markup and read as
// empty lines; the first one becomes the title.
type DOCXLoader struct{}

func (l *DOCXLoader) Load(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Source{Name: stem(filename), Line: 1}
	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if isHeading(para) {
			if out.Title == "" {
				out.Title = strings.TrimSpace(text)
			}
			// Keep the line so positions match the paragraph count.
			lines = append(lines, "")
			continue
		}
		lines = append(lines, text)
	}

	out.Text = strings.Join(lines, "\n")
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("%s: docx has no text", filename)
	}
	return out, nil
}

func isHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	return strings.HasPrefix(style, "heading") || style == "title"
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteByte('\t')
			case *docx.BarterRabbet:
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String()
}
