package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"github.com/dgallion1/msgsplit/internal/render"
	"github.com/google/go-cmp/cmp"
)

func TestHTMLParser_TreeShape(t *testing.T) {
	root, err := ParseHTML(`<div class="a" id="b"><p>Hi <b>there</b><br></p></div>tail`, NewClassifier(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &doctree.Node{
		Kind:       doctree.ElementNode,
		Splittable: true,
		Children: []*doctree.Node{
			{
				Kind:       doctree.ElementNode,
				Tag:        "div",
				Attrs:      []doctree.Attr{{Key: "class", Val: "a"}, {Key: "id", Val: "b"}},
				Splittable: true,
				Children: []*doctree.Node{
					{
						Kind:       doctree.ElementNode,
						Tag:        "p",
						Splittable: true,
						Children: []*doctree.Node{
							{Kind: doctree.TextNode, Text: "Hi "},
							{
								Kind:     doctree.ElementNode,
								Tag:      "b",
								Children: []*doctree.Node{{Kind: doctree.TextNode, Text: "there"}},
							},
							{Kind: doctree.ElementNode, Tag: "br", Void: true},
						},
					},
				},
			},
			{Kind: doctree.TextNode, Text: "tail"},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLParser_RoundTrip(t *testing.T) {
	inputs := []string{
		`<p>Hello world</p>`,
		"<div>\n  <p>line one</p>\n  <p>line two</p>\n</div>\n",
		`<ul><li><a href="/x?a=1&amp;b=2" title="t">link</a></li></ul>`,
		`<p>a &lt; b &amp;&amp; c &gt; d</p>`,
		`<!DOCTYPE html><!-- c --><p>x<img src="a.png"/>y</p>`,
		`<script>if (a < b && c) { x = "</p>"; }</script>`,
		`<p>  spaced   text  </p>`,
		`<input disabled><hr>`,
	}
	for _, in := range inputs {
		root, err := ParseHTML(in, NewClassifier(nil))
		if err != nil {
			t.Fatalf("parse %q: unexpected error: %v", in, err)
		}
		if got := render.Node(root); got != in {
			t.Errorf("round trip mismatch:\n in: %q\nout: %q", in, got)
		}
	}
}

func TestHTMLParser_EntitiesAreUnescapedOnce(t *testing.T) {
	root, err := ParseHTML(`<p>caf&eacute; &amp; bar</p>`, NewClassifier(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := root.Children[0].Children[0].Text
	if text != "café & bar" {
		t.Errorf("expected %q, got %q", "café & bar", text)
	}
}

func TestHTMLParser_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"mismatched close", `<div><p>text</div></p>`, "does not match"},
		{"unclosed at end", `<div><p>text</p>`, "unclosed <div>"},
		{"stray close", `text</p>`, "no open element"},
		{"void close", `<p>a</br></p>`, "void element"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHTML(tt.input, NewClassifier(nil))
			var mErr *MalformedInputError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected MalformedInputError, got %v", err)
			}
			if !strings.Contains(mErr.Reason, tt.reason) {
				t.Errorf("expected reason containing %q, got %q", tt.reason, mErr.Reason)
			}
		})
	}
}

func TestHTMLParser_MismatchOffset(t *testing.T) {
	_, err := ParseHTML(`<div>ab</span>`, NewClassifier(nil))
	var mErr *MalformedInputError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if mErr.Offset != 7 {
		t.Errorf("expected offset 7, got %d", mErr.Offset)
	}
}

func TestHTMLParser_EmptyInput(t *testing.T) {
	root, err := ParseHTML("", NewClassifier(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !root.Empty() {
		t.Errorf("expected empty root, got %d children", len(root.Children))
	}
}

func TestHTMLParser_Classification(t *testing.T) {
	c := NewClassifier(map[string]bool{"span": false, "b": true, "img": true})
	root, err := ParseHTML(`<span>a</span><b>b</b><img src="x"><script>s</script>`, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{"span": false, "b": true, "img": false, "script": false}
	for _, n := range root.Children {
		if n.Splittable != want[n.Tag] {
			t.Errorf("<%s>: expected splittable=%v, got %v", n.Tag, want[n.Tag], n.Splittable)
		}
	}
}

func TestHTMLParser_SelfClosingElementIsAtomic(t *testing.T) {
	root, err := ParseHTML(`<div/><p>x</p>`, NewClassifier(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	div := root.Children[0]
	if !div.SelfClosing || div.Splittable || len(div.Children) != 0 {
		t.Errorf("expected childless self-closing atomic div, got %+v", div)
	}
	if root.Children[1].Tag != "p" {
		t.Errorf("expected p as next sibling, got %q", root.Children[1].Tag)
	}
}
