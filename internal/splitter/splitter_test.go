package splitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"github.com/dgallion1/msgsplit/internal/parser"
	"github.com/dgallion1/msgsplit/internal/render"
	"github.com/stretchr/testify/require"
)

func mustSplit(t *testing.T, src string, cfg Config) *Result {
	t.Helper()
	root, err := parser.ParseHTML(src, parser.NewClassifier(nil))
	require.NoError(t, err)
	res, err := Split(root, cfg)
	require.NoError(t, err)
	return res
}

func texts(res *Result) []string {
	out := make([]string, 0, len(res.Fragments))
	for _, f := range res.Fragments {
		out = append(out, f.Text)
	}
	return out
}

func TestSplit_FitsInOneFragment(t *testing.T) {
	res := mustSplit(t, "<p>Hello world</p>", Config{MaxLen: 100})
	require.Equal(t, []string{"<p>Hello world</p>"}, texts(res))
	require.Equal(t, 1, res.Fragments[0].Index)
	require.Equal(t, 18, res.Fragments[0].Length)
	require.Empty(t, res.Oversize)
}

func TestSplit_ReopensParagraph(t *testing.T) {
	res := mustSplit(t, "<p>AAAAAAAAAA</p>", Config{MaxLen: 10})
	require.Equal(t, []string{"<p>AAA</p>", "<p>AAA</p>", "<p>AAA</p>", "<p>A</p>"}, texts(res))
	for _, f := range res.Fragments {
		require.LessOrEqual(t, f.Length, 10)
		require.False(t, f.Oversize)
	}
	require.Equal(t, "<p>AAAAAAAAAA</p>", Join(res.Fragments))
}

func TestSplit_OversizeImage(t *testing.T) {
	img := `<img src="` + strings.Repeat("x", 28) + `">`
	require.Equal(t, 40, render.Len(img))

	res := mustSplit(t, img, Config{MaxLen: 20})
	require.Len(t, res.Fragments, 1)
	require.Equal(t, img, res.Fragments[0].Text)
	require.Equal(t, 40, res.Fragments[0].Length)
	require.True(t, res.Fragments[0].Oversize)

	require.Equal(t, []doctree.OversizeUnit{{
		Fragment: 1,
		Kind:     doctree.UnitElement,
		Tag:      "img",
		Size:     40,
		Budget:   20,
	}}, res.Oversize)
}

func TestSplit_EmptyInput(t *testing.T) {
	res := mustSplit(t, "", Config{MaxLen: 10})
	require.Empty(t, res.Fragments)
	require.Empty(t, res.Oversize)

	res, err := Split(nil, Config{MaxLen: 10})
	require.NoError(t, err)
	require.Empty(t, res.Fragments)
}

func TestSplit_NestedCloseAndReopenOrder(t *testing.T) {
	res := mustSplit(t, "<div><p>text</p></div>", Config{MaxLen: 20})
	require.Equal(t, []string{"<div><p>te</p></div>", "<div><p>xt</p></div>"}, texts(res))
	require.Equal(t, []doctree.Frame{{Tag: "div"}, {Tag: "p"}}, res.Fragments[0].Open)
	require.Nil(t, res.Fragments[1].Open)
}

func TestSplit_ReopenKeepsAttributes(t *testing.T) {
	src := `<div class="note" data-x="1"><p id="p1">abcdefghij</p></div>`
	res := mustSplit(t, src, Config{MaxLen: 55})
	require.Len(t, res.Fragments, 2)
	for _, f := range res.Fragments {
		require.True(t, strings.HasPrefix(f.Text, `<div class="note" data-x="1"><p id="p1">`), f.Text)
		require.True(t, strings.HasSuffix(f.Text, `</p></div>`), f.Text)
	}
	require.Equal(t, src, Join(res.Fragments))
}

func TestSplit_OversizeOpenTag(t *testing.T) {
	src := `<div class="xxxxxxxxxxxxxxxxxxxx">x</div>`
	res := mustSplit(t, src, Config{MaxLen: 10})
	open := `<div class="xxxxxxxxxxxxxxxxxxxx">`
	require.Equal(t, []string{open + "</div>", open + "x</div>"}, texts(res))
	require.Equal(t, []doctree.OversizeUnit{
		{Fragment: 1, Kind: doctree.UnitOpenTag, Tag: "div", Size: 40, Budget: 10},
		{Fragment: 2, Kind: doctree.UnitText, Size: 1, Overhead: 40, Budget: 10},
	}, res.Oversize)
	require.Equal(t, src, Join(res.Fragments))
}

func TestSplit_InvalidUTF8PassesThrough(t *testing.T) {
	src := "<p>a\xffb\xe6\x97c</p>"
	for maxLen := 1; maxLen <= 40; maxLen++ {
		res := mustSplit(t, src, Config{MaxLen: maxLen})
		require.Equal(t, src, Join(res.Fragments), "max_len=%d", maxLen)
		for _, f := range res.Fragments {
			require.Equal(t, render.Len(f.Text), f.Length)
			require.NotContains(t, f.Text, "\uFFFD", "max_len=%d", maxLen)
		}
	}
}

func TestSplit_TieBreakClosesInCurrentFragment(t *testing.T) {
	src := "<div><p>ab</p></div>"
	require.Equal(t, 20, render.Len(src))
	res := mustSplit(t, src, Config{MaxLen: 20})
	require.Equal(t, []string{src}, texts(res))
}

func TestSplit_AtomicElementMovesWhole(t *testing.T) {
	res := mustSplit(t, "<p>hello <b>bold text</b> end</p>", Config{MaxLen: 23})
	require.Equal(t, []string{"<p>hello </p>", "<p><b>bold text</b></p>", "<p> end</p>"}, texts(res))
	require.Empty(t, res.Oversize)
}

func TestSplit_EntityIsNeverSevered(t *testing.T) {
	res := mustSplit(t, "<p>a&amp;b</p>", Config{MaxLen: 9})
	require.Equal(t, []string{"<p>a</p>", "<p>&amp;</p>", "<p>b</p>"}, texts(res))
	require.True(t, res.Fragments[1].Oversize)
	require.Len(t, res.Oversize, 1)
	require.Equal(t, doctree.OversizeUnit{Fragment: 2, Kind: doctree.UnitText, Size: 5, Overhead: 7, Budget: 9}, res.Oversize[0])
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	res := mustSplit(t, "<p>ééééé</p>", Config{MaxLen: 12})
	require.Equal(t, []string{"<p>ééééé</p>"}, texts(res))
	require.Equal(t, 12, res.Fragments[0].Length)
}

func TestSplit_WhitespacePolicy(t *testing.T) {
	src := "<div>abcdef<b>x</b>      </div>"

	split := mustSplit(t, src, Config{MaxLen: 20, Whitespace: WhitespaceSplit})
	require.Equal(t, []string{"<div>abcdef</div>", "<div><b>x</b> </div>", "<div>     </div>"}, texts(split))

	atomic := mustSplit(t, src, Config{MaxLen: 20, Whitespace: WhitespaceAtomic})
	require.Equal(t, []string{"<div>abcdef</div>", "<div><b>x</b></div>", "<div>      </div>"}, texts(atomic))

	require.Equal(t, src, Join(split.Fragments))
	require.Equal(t, src, Join(atomic.Fragments))
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	root, err := parser.ParseHTML("<p>x</p>", parser.NewClassifier(nil))
	require.NoError(t, err)

	for _, maxLen := range []int{0, -5} {
		_, err := Split(root, Config{MaxLen: maxLen})
		var cfgErr *InvalidConfigurationError
		require.True(t, errors.As(err, &cfgErr), "max_len=%d: expected InvalidConfigurationError, got %v", maxLen, err)
		require.Equal(t, "max_len", cfgErr.Field)
	}
}

func TestSplit_StackMismatchFailsLoudly(t *testing.T) {
	s := &state{cfg: Config{MaxLen: 10}}
	err := s.closeElement(&doctree.Node{Kind: doctree.ElementNode, Tag: "p"})
	require.ErrorIs(t, err, ErrInternal)

	s.stack = []doctree.Frame{{Tag: "div"}}
	err = s.closeElement(&doctree.Node{Kind: doctree.ElementNode, Tag: "p"})
	require.ErrorIs(t, err, ErrInternal)
}

func TestParseWhitespaceMode(t *testing.T) {
	m, err := ParseWhitespaceMode("ATOMIC")
	require.NoError(t, err)
	require.Equal(t, WhitespaceAtomic, m)

	m, err = ParseWhitespaceMode("")
	require.NoError(t, err)
	require.Equal(t, WhitespaceSplit, m)

	_, err = ParseWhitespaceMode("collapse")
	var cfgErr *InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSplit_Deterministic(t *testing.T) {
	src := `<div><p>one <i>two</i> three</p><ul><li>four</li><li>five</li></ul></div>`
	a := mustSplit(t, src, Config{MaxLen: 25})
	b := mustSplit(t, src, Config{MaxLen: 25})
	require.Equal(t, a, b)
}
