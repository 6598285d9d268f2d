package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"golang.org/x/net/html"
)

// MalformedInputError reports markup whose tag nesting cannot be resolved.
// No repair is attempted; callers abort the whole operation.
type MalformedInputError struct {
	Offset int // Byte offset of the offending token
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed html at offset %d: %s", e.Offset, e.Reason)
}

// HTMLParser builds a node tree from well-formed HTML. It drives the
// x/net/html tokenizer directly instead of html.Parse, which would silently
// insert and close tags the way a browser does.
type HTMLParser struct {
	Classifier Classifier
}

// ParseHTML parses src with the given classifier.
func ParseHTML(src string, c Classifier) (*doctree.Node, error) {
	return (&HTMLParser{Classifier: c}).Parse(strings.NewReader(src))
}

func (p *HTMLParser) Parse(r io.Reader) (*doctree.Node, error) {
	z := html.NewTokenizer(r)
	root := doctree.NewRoot()
	stack := []*doctree.Node{root}
	offset := 0

	for {
		tt := z.Next()
		raw := string(z.Raw())
		top := stack[len(stack)-1]

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, &MalformedInputError{Offset: offset, Reason: fmt.Sprintf("tokenize: %v", err)}
			}
			if len(stack) > 1 {
				return nil, &MalformedInputError{
					Offset: offset,
					Reason: fmt.Sprintf("unexpected end of input, unclosed <%s>", openTags(stack)),
				}
			}
			return root, nil

		case html.TextToken:
			rawText := rawTextElements[top.Tag]
			text := raw
			if !rawText {
				text = html.UnescapeString(raw)
			}
			appendText(top, text, rawText)

		case html.StartTagToken:
			tok := z.Token()
			el := newElement(tok)
			top.Children = append(top.Children, el)
			if voidElements[el.Tag] {
				el.Void = true
				break
			}
			el.Splittable = p.Classifier.Splittable(el.Tag)
			stack = append(stack, el)

		case html.SelfClosingTagToken:
			el := newElement(z.Token())
			el.SelfClosing = true
			el.Void = voidElements[el.Tag]
			top.Children = append(top.Children, el)

		case html.EndTagToken:
			name := z.Token().Data
			switch {
			case voidElements[name]:
				return nil, &MalformedInputError{Offset: offset, Reason: fmt.Sprintf("closing tag </%s> for void element", name)}
			case len(stack) == 1:
				return nil, &MalformedInputError{Offset: offset, Reason: fmt.Sprintf("closing tag </%s> with no open element", name)}
			case top.Tag != name:
				return nil, &MalformedInputError{Offset: offset, Reason: fmt.Sprintf("closing tag </%s> does not match open <%s>", name, top.Tag)}
			}
			stack = stack[:len(stack)-1]

		case html.CommentToken, html.DoctypeToken:
			top.Children = append(top.Children, &doctree.Node{Kind: doctree.RawNode, Text: raw})
		}

		offset += len(raw)
	}
}

func newElement(tok html.Token) *doctree.Node {
	el := &doctree.Node{Kind: doctree.ElementNode, Tag: tok.Data}
	if len(tok.Attr) > 0 {
		el.Attrs = make([]doctree.Attr, 0, len(tok.Attr))
		for _, a := range tok.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + key
			}
			el.Attrs = append(el.Attrs, doctree.Attr{Key: key, Val: a.Val})
		}
	}
	return el
}

// appendText adds text to parent, merging with a preceding text sibling.
func appendText(parent *doctree.Node, text string, rawText bool) {
	if text == "" {
		return
	}
	if n := len(parent.Children); n > 0 {
		if last := parent.Children[n-1]; last.Kind == doctree.TextNode && last.RawText == rawText {
			last.Text += text
			return
		}
	}
	parent.Children = append(parent.Children, &doctree.Node{Kind: doctree.TextNode, Text: text, RawText: rawText})
}

func openTags(stack []*doctree.Node) string {
	names := make([]string, 0, len(stack)-1)
	for _, n := range stack[1:] {
		names = append(names, n.Tag)
	}
	return strings.Join(names, "><")
}
