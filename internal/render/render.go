// Package render turns document nodes and ancestor stacks back into HTML.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"golang.org/x/net/html"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Len returns the length of s in characters (code points), the unit budgets are measured in.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Text escapes markup-significant characters in s. Raw text (script, style)
// is returned unchanged. Quotes are left alone: they are only significant
// inside attribute values.
func Text(s string, raw bool) string {
	if raw {
		return s
	}
	return textEscaper.Replace(s)
}

// OpenTag renders the opening tag for an element with the given attributes.
func OpenTag(tag string, attrs []doctree.Attr) string {
	var sb strings.Builder
	writeOpen(&sb, tag, attrs, false)
	return sb.String()
}

// CloseTag renders the closing tag for tag.
func CloseTag(tag string) string {
	return "</" + tag + ">"
}

// Reopen renders opening tags for stack, outermost first.
func Reopen(stack []doctree.Frame) string {
	var sb strings.Builder
	for _, f := range stack {
		writeOpen(&sb, f.Tag, f.Attrs, false)
	}
	return sb.String()
}

// Close renders closing tags for stack, innermost first.
func Close(stack []doctree.Frame) string {
	var sb strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteString(CloseTag(stack[i].Tag))
	}
	return sb.String()
}

// Serialize wraps content in the reopened and closed ancestor chain.
func Serialize(stack []doctree.Frame, content string) string {
	return Reopen(stack) + content + Close(stack)
}

// Node renders the subtree rooted at n. The implicit root renders only its children.
func Node(n *doctree.Node) string {
	var sb strings.Builder
	WriteNode(&sb, n)
	return sb.String()
}

type step struct {
	node *doctree.Node
	exit bool
}

// WriteNode renders the subtree rooted at n into sb. It walks with an explicit
// stack so deeply nested documents don't grow the call stack.
func WriteNode(sb *strings.Builder, n *doctree.Node) {
	work := []step{{node: n}}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		cur := s.node

		if s.exit {
			sb.WriteString(CloseTag(cur.Tag))
			continue
		}

		switch cur.Kind {
		case doctree.TextNode:
			sb.WriteString(Text(cur.Text, cur.RawText))
			continue
		case doctree.RawNode:
			sb.WriteString(cur.Text)
			continue
		}

		if !cur.IsRoot() {
			writeOpen(sb, cur.Tag, cur.Attrs, cur.SelfClosing)
			if cur.Void || cur.SelfClosing {
				continue
			}
			work = append(work, step{node: cur, exit: true})
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			work = append(work, step{node: cur.Children[i]})
		}
	}
}

func writeOpen(sb *strings.Builder, tag string, attrs []doctree.Attr, selfClosing bool) {
	sb.WriteByte('<')
	sb.WriteString(tag)
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		if a.Val == "" {
			continue
		}
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	if selfClosing {
		sb.WriteByte('/')
	}
	sb.WriteByte('>')
}
