// Package render exports a UI tree to formats outside the service.
package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/uitree"
)

// Resources resolves the handles carried by a tree.
type Resources interface {
	LookupText(uitree.TextHandle) (resource.Text, error)
	LookupImage(uitree.ImageHandle) (*resource.Image, error)
	LookupFont(uitree.FontHandle) (*resource.Font, error)
}

// fontName prefers the family stored in the font file.
func fontName(f *resource.Font) string {
	if f.Family != "" {
		return f.Family
	}
	return f.Name
}

var genericFamilies = map[string]bool{
	"serif":         true,
	"sans-serif":    true,
	"monospace":     true,
	"cursive":       true,
	"fantasy":       true,
	"system-ui":     true,
	"ui-serif":      true,
	"ui-sans-serif": true,
	"ui-monospace":  true,
	"ui-rounded":    true,
	"math":          true,
	"emoji":         true,
	"fangsong":      true,
}

// cssFontFamily returns name as a CSS font-family value. Generic families
// stay bare keywords; any other name becomes a CSS string.
func cssFontFamily(name string) string {
	if genericFamilies[strings.ToLower(name)] {
		return strings.ToLower(name)
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
