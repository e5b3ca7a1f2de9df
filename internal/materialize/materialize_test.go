package materialize

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/uidoc/internal/ast"
	"github.com/dgallion1/uidoc/internal/lexer"
	"github.com/dgallion1/uidoc/internal/parser"
	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/uitree"
)

func parse(t *testing.T, src string) *parser.Result {
	t.Helper()
	toks, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	res, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res
}

var noImages = ImageFunc(func(string) (uitree.ImageHandle, bool) { return 0, false })

func images(m map[string]uitree.ImageHandle) ImageResolver {
	return ImageFunc(func(id string) (uitree.ImageHandle, bool) {
		h, ok := m[id]
		return h, ok
	})
}

func TestMaterialize_Label(t *testing.T) {
	res := parse(t, `div[label("Hi");];`)
	out, err := Materialize(res.Root, nil, noImages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &uitree.Node{Kind: uitree.Container, Children: []*uitree.Node{{Kind: uitree.Label, Label: "Hi"}}}
	if !uitree.Equal(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestMaterialize_TextHandlesInDocumentOrder(t *testing.T) {
	res := parse(t, `div[text("A");text("B","sans",12);];`)
	out, err := Materialize(res.Root, []uitree.TextHandle{101, 202}, noImages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Children[0].Text != 101 || out.Children[1].Text != 202 {
		t.Errorf("expected handles 101, 202, got %d, %d", out.Children[0].Text, out.Children[1].Text)
	}
}

func TestMaterialize_PreOrderAcrossNesting(t *testing.T) {
	res := parse(t, `text("1")[div[text("2");text("3")[text("4");];];text("5");];`)
	handles := []uitree.TextHandle{1, 2, 3, 4, 5}
	out, err := Materialize(res.Root, handles, noImages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []uitree.TextHandle
	_ = out.Walk(func(n *uitree.Node) error {
		if n.Kind == uitree.Text {
			got = append(got, n.Text)
		}
		return nil
	})
	for i := range handles {
		if got[i] != handles[i] {
			t.Fatalf("expected %v, got %v", handles, got)
		}
	}
}

func TestMaterialize_Idempotent(t *testing.T) {
	res := parse(t, `div:root[image:logo("icon");text("a");label("b")[text("c");];];`)
	imgs := images(map[string]uitree.ImageHandle{"icon": 7})
	handles := []uitree.TextHandle{1, 2}

	first, err := Materialize(res.Root, handles, imgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Materialize(res.Root, append([]uitree.TextHandle(nil), handles...), imgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uitree.Equal(first, second) {
		t.Error("expected structurally equal trees")
	}
	if first.ID != "root" || first.Children[0].ID != "logo" || first.Children[0].Image != 7 {
		t.Errorf("unexpected tree %+v", first)
	}
	if len(handles) != 2 || handles[0] != 1 {
		t.Errorf("handle slice was modified: %v", handles)
	}
}

func TestMaterialize_UnknownImage(t *testing.T) {
	res := parse(t, `div[label("ok");image("icon");];`)
	out, err := Materialize(res.Root, nil, noImages)
	if out != nil {
		t.Errorf("expected no tree, got %+v", out)
	}
	var resErr *resource.ResourceError
	if !errors.As(err, &resErr) || resErr.Kind != resource.UnknownImage {
		t.Fatalf("expected unknown image error, got %v", err)
	}
	if resErr.Name != "icon" {
		t.Errorf("expected name icon, got %q", resErr.Name)
	}
}

func TestMaterialize_NilResolver(t *testing.T) {
	res := parse(t, `image("icon");`)
	_, err := Materialize(res.Root, nil, nil)
	var resErr *resource.ResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected resource error, got %v", err)
	}
}

func TestMaterialize_QueueMismatch(t *testing.T) {
	res := parse(t, `div[text("a");text("b");];`)
	tests := []struct {
		name    string
		handles []uitree.TextHandle
		kind    resource.ErrorKind
	}{
		{"too few", []uitree.TextHandle{1}, resource.TextQueueExhausted},
		{"none", nil, resource.TextQueueExhausted},
		{"too many", []uitree.TextHandle{1, 2, 3}, resource.TextQueueSurplus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Materialize(res.Root, tt.handles, noImages)
			if out != nil {
				t.Errorf("expected no tree, got %+v", out)
			}
			var resErr *resource.ResourceError
			if !errors.As(err, &resErr) || resErr.Kind != tt.kind {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestMaterialize_MaxDepth(t *testing.T) {
	root := ast.Element(ast.Node{Kind: ast.Container})
	for i := 0; i < 4; i++ {
		root = ast.Joint(ast.Node{Kind: ast.Container}, root)
	}
	if _, err := Materialize(root, nil, noImages, WithMaxDepth(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := Materialize(root, nil, noImages, WithMaxDepth(4))
	if err == nil || !strings.Contains(err.Error(), "deeper than 4") {
		t.Fatalf("expected depth error, got %v", err)
	}
}

func TestMaterialize_WithRegistries(t *testing.T) {
	res := parse(t, `div[text("hello" "sans-serif" 14);];`)
	cat := resource.NewCatalog("")
	handles, err := cat.Texts.Resolve(res.Texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := Materialize(res.Root, handles, cat.Images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, err := cat.Texts.Lookup(out.Children[0].Text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Body != "hello" || text.Size != 14 || text.Font != cat.Fonts.Default() {
		t.Errorf("unexpected text %+v", text)
	}
}
