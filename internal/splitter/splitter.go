package splitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"github.com/dgallion1/msgsplit/internal/render"
)

// DefaultMaxLen is the fragment budget used when none is configured.
const DefaultMaxLen = 4096

// WhitespaceMode controls how whitespace-only text nodes behave at a fragment boundary.
type WhitespaceMode int

const (
	// WhitespaceSplit splits whitespace-only text like any other text.
	WhitespaceSplit WhitespaceMode = iota
	// WhitespaceAtomic moves a whitespace-only text node as one unit.
	WhitespaceAtomic
)

func (m WhitespaceMode) String() string {
	if m == WhitespaceAtomic {
		return "atomic"
	}
	return "split"
}

// ParseWhitespaceMode accepts "split" or "atomic".
func ParseWhitespaceMode(s string) (WhitespaceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "split":
		return WhitespaceSplit, nil
	case "atomic":
		return WhitespaceAtomic, nil
	}
	return WhitespaceSplit, &InvalidConfigurationError{Field: "whitespace", Value: s, Reason: "must be 'split' or 'atomic'"}
}

// Config controls splitting behavior.
type Config struct {
	MaxLen     int // Fragment budget in characters.
	Whitespace WhitespaceMode
}

// InvalidConfigurationError reports a configuration value the splitter cannot work with.
type InvalidConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// ErrInternal marks a broken splitter invariant. It is never expected in practice.
var ErrInternal = errors.New("splitter: internal invariant violated")

// Result is the ordered fragment sequence plus any oversize units encountered.
type Result struct {
	Fragments []doctree.Fragment     `json:"fragments"`
	Oversize  []doctree.OversizeUnit `json:"oversize"`
}

// Split walks the tree depth first and packs it greedily into fragments of at
// most cfg.MaxLen characters. Splittable ancestors open at a cut are closed at
// the end of one fragment and reopened at the start of the next; everything
// else is placed whole.
func Split(root *doctree.Node, cfg Config) (*Result, error) {
	if cfg.MaxLen < 1 {
		return nil, &InvalidConfigurationError{Field: "max_len", Value: cfg.MaxLen, Reason: "must be a positive integer"}
	}
	s := &state{cfg: cfg}
	if root == nil {
		return &s.result, nil
	}

	type step struct {
		node *doctree.Node
		exit bool
	}
	var work []step
	pushChildren := func(n *doctree.Node) {
		for i := len(n.Children) - 1; i >= 0; i-- {
			work = append(work, step{node: n.Children[i]})
		}
	}
	if root.IsRoot() {
		pushChildren(root)
	} else {
		work = append(work, step{node: root})
	}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		n := cur.node

		if cur.exit {
			if err := s.closeElement(n); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case n.Kind == doctree.TextNode:
			s.text(n)
		case n.Kind == doctree.RawNode:
			s.place(n.Text, doctree.UnitRaw, "")
		case n.IsRoot():
			pushChildren(n)
		case n.Splittable && !n.Void && !n.SelfClosing:
			s.openElement(n)
			work = append(work, step{node: n, exit: true})
			pushChildren(n)
		default:
			s.place(render.Node(n), doctree.UnitElement, n.Tag)
		}
	}

	if len(s.stack) != 0 {
		return nil, fmt.Errorf("%w: %d ancestors still open at end of document", ErrInternal, len(s.stack))
	}
	if s.dirty {
		s.finalize()
	}
	return &s.result, nil
}

// state is the transient packing state of a single Split call.
type state struct {
	cfg Config

	buf       strings.Builder
	length    int             // Characters in buf.
	prefixLen int             // Characters of the reopened prefix at the start of buf.
	closeLen  int             // Characters needed to close every frame in stack.
	stack     []doctree.Frame // Open splittable ancestors, root to innermost.
	dirty     bool            // buf holds content beyond the reopened prefix.
	oversize  bool            // Current fragment already holds an oversize unit.

	result Result
}

// fits reports whether n more characters fit while still leaving room to
// close every open ancestor.
func (s *state) fits(n int) bool {
	return s.length+n+s.closeLen <= s.cfg.MaxLen
}

func (s *state) write(unit string, n int) {
	s.buf.WriteString(unit)
	s.length += n
	s.dirty = true
}

// place appends an indivisible unit, starting a new fragment first when it
// does not fit. A unit that does not fit even a fresh fragment is emitted
// anyway and reported.
func (s *state) place(unit string, kind doctree.UnitKind, tag string) {
	n := render.Len(unit)
	if !s.fits(n) && s.dirty {
		s.finalize()
	}
	if !s.fits(n) {
		s.flag(kind, tag, n)
	}
	s.write(unit, n)
}

func (s *state) text(n *doctree.Node) {
	if s.cfg.Whitespace == WhitespaceAtomic && strings.TrimSpace(n.Text) == "" {
		s.place(render.Text(n.Text, n.RawText), doctree.UnitText, "")
		return
	}
	// Step by encoded rune so invalid bytes pass through untouched.
	for i := 0; i < len(n.Text); {
		_, size := utf8.DecodeRuneInString(n.Text[i:])
		s.place(render.Text(n.Text[i:i+size], n.RawText), doctree.UnitText, "")
		i += size
	}
}

// openElement emits a splittable element's opening tag and reserves room for
// its closing tag.
func (s *state) openElement(n *doctree.Node) {
	open := render.OpenTag(n.Tag, n.Attrs)
	openLen := render.Len(open)
	closeLen := render.Len(render.CloseTag(n.Tag))

	if !s.fits(openLen+closeLen) && s.dirty {
		s.finalize()
	}
	if !s.fits(openLen + closeLen) {
		s.flag(doctree.UnitOpenTag, n.Tag, openLen+closeLen)
	}
	s.write(open, openLen)
	s.stack = append(s.stack, doctree.FrameOf(n))
	s.closeLen += closeLen
}

// closeElement pops n's frame and emits its closing tag. The tag was reserved
// when n opened, so it always lands in the current fragment. If the reopened
// prefix overflows, the unit placed after it was already flagged.
func (s *state) closeElement(n *doctree.Node) error {
	if len(s.stack) == 0 {
		return fmt.Errorf("%w: ancestor stack underflow closing <%s>", ErrInternal, n.Tag)
	}
	top := s.stack[len(s.stack)-1]
	if top.Tag != n.Tag {
		return fmt.Errorf("%w: closing <%s> but innermost frame is <%s>", ErrInternal, n.Tag, top.Tag)
	}
	s.stack = s.stack[:len(s.stack)-1]

	closing := render.CloseTag(n.Tag)
	n2 := render.Len(closing)
	s.closeLen -= n2
	s.write(closing, n2)
	return nil
}

func (s *state) flag(kind doctree.UnitKind, tag string, size int) {
	s.oversize = true
	s.result.Oversize = append(s.result.Oversize, doctree.OversizeUnit{
		Fragment: len(s.result.Fragments) + 1,
		Kind:     kind,
		Tag:      tag,
		Size:     size,
		Overhead: s.prefixLen + s.closeLen,
		Budget:   s.cfg.MaxLen,
	})
}

// finalize closes the open ancestors, emits the fragment and starts the next
// one by reopening the same ancestors.
func (s *state) finalize() {
	s.buf.WriteString(render.Close(s.stack))
	text := s.buf.String()

	var open []doctree.Frame
	if len(s.stack) > 0 {
		open = make([]doctree.Frame, len(s.stack))
		copy(open, s.stack)
	}
	s.result.Fragments = append(s.result.Fragments, doctree.Fragment{
		Index:    len(s.result.Fragments) + 1,
		Length:   render.Len(text),
		Text:     text,
		Oversize: s.oversize,
		Open:     open,
	})

	s.buf.Reset()
	prefix := render.Reopen(s.stack)
	s.buf.WriteString(prefix)
	s.length = render.Len(prefix)
	s.prefixLen = s.length
	s.dirty = false
	s.oversize = false
}

// Join reassembles the logical document from fragments by dropping the
// synthetic closing and reopening tags at every boundary.
func Join(fragments []doctree.Fragment) string {
	var sb strings.Builder
	var prev []doctree.Frame
	for _, f := range fragments {
		text := strings.TrimPrefix(f.Text, render.Reopen(prev))
		text = strings.TrimSuffix(text, render.Close(f.Open))
		sb.WriteString(text)
		prev = f.Open
	}
	return sb.String()
}
