package parser

import (
	"io"

	"github.com/dgallion1/msgsplit/internal/doctree"
)

// TextParser handles plain text files. The whole file becomes a single text
// node so that every character survives; markup-significant characters are
// escaped on output.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	root := doctree.NewRoot()
	if len(src) > 0 {
		root.Children = []*doctree.Node{{Kind: doctree.TextNode, Text: string(src)}}
	}
	return root, nil
}

// element builds an element node whose splittability comes from c.
func element(c Classifier, tag string, attrs []doctree.Attr, children ...*doctree.Node) *doctree.Node {
	return &doctree.Node{
		Kind:       doctree.ElementNode,
		Tag:        tag,
		Attrs:      attrs,
		Children:   children,
		Splittable: c.Splittable(tag),
	}
}

func textNode(s string) *doctree.Node {
	return &doctree.Node{Kind: doctree.TextNode, Text: s}
}
