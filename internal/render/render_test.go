package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/msgsplit/internal/doctree"
)

func TestReopenAndClose_Order(t *testing.T) {
	stack := []doctree.Frame{
		{Tag: "div", Attrs: []doctree.Attr{{Key: "class", Val: "outer"}, {Key: "id", Val: "x"}}},
		{Tag: "p"},
	}

	if got, want := Reopen(stack), `<div class="outer" id="x"><p>`; got != want {
		t.Errorf("reopen: expected %q, got %q", want, got)
	}
	if got, want := Close(stack), "</p></div>"; got != want {
		t.Errorf("close: expected %q, got %q", want, got)
	}
}

func TestReopenAndClose_EmptyStack(t *testing.T) {
	if Reopen(nil) != "" || Close(nil) != "" {
		t.Error("expected empty output for empty stack")
	}
}

func TestSerialize_WrapsContent(t *testing.T) {
	stack := []doctree.Frame{{Tag: "div"}, {Tag: "p"}}
	if got, want := Serialize(stack, "text"), "<div><p>text</p></div>"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestText_Escaping(t *testing.T) {
	tests := []struct {
		in   string
		raw  bool
		want string
	}{
		{"a < b & c > d", false, "a &lt; b &amp; c &gt; d"},
		{`Don't "quote"`, false, `Don't "quote"`},
		{"if (a < b) {}", true, "if (a < b) {}"},
	}
	for _, tt := range tests {
		if got := Text(tt.in, tt.raw); got != tt.want {
			t.Errorf("Text(%q, %v): expected %q, got %q", tt.in, tt.raw, tt.want, got)
		}
	}
}

func TestOpenTag_AttributeEscapingAndBareAttributes(t *testing.T) {
	attrs := []doctree.Attr{
		{Key: "href", Val: `/a?b=1&c="2"`},
		{Key: "disabled"},
	}
	want := `<a href="/a?b=1&amp;c=&#34;2&#34;" disabled>`
	if got := OpenTag("a", attrs); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNode_Subtree(t *testing.T) {
	root := doctree.NewRoot()
	p := &doctree.Node{Kind: doctree.ElementNode, Tag: "p", Splittable: true}
	p.Children = []*doctree.Node{
		{Kind: doctree.TextNode, Text: "Hi "},
		{Kind: doctree.ElementNode, Tag: "b", Children: []*doctree.Node{{Kind: doctree.TextNode, Text: "you & me"}}},
		{Kind: doctree.ElementNode, Tag: "br", Void: true},
		{Kind: doctree.ElementNode, Tag: "img", SelfClosing: true, Attrs: []doctree.Attr{{Key: "src", Val: "x.png"}}},
	}
	root.Children = []*doctree.Node{
		{Kind: doctree.RawNode, Text: "<!-- note -->"},
		p,
	}

	want := `<!-- note --><p>Hi <b>you &amp; me</b><br><img src="x.png"/></p>`
	if got := Node(root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNode_DeepNestingDoesNotRecurse(t *testing.T) {
	root := doctree.NewRoot()
	cur := root
	const depth = 100000
	for i := 0; i < depth; i++ {
		child := &doctree.Node{Kind: doctree.ElementNode, Tag: "div", Splittable: true}
		cur.Children = []*doctree.Node{child}
		cur = child
	}

	out := Node(root)
	if !strings.HasPrefix(out, "<div><div>") || !strings.HasSuffix(out, "</div></div>") {
		t.Fatalf("unexpected output framing")
	}
	if got := strings.Count(out, "<div>"); got != depth {
		t.Errorf("expected %d opening tags, got %d", depth, got)
	}
}

func TestLen_CountsCodePoints(t *testing.T) {
	if got := Len("héllo日"); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}
