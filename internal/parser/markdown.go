package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/msgsplit/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownParser handles Markdown files using goldmark. The rendered HTML is
// well-formed by construction (raw HTML in the source is omitted), so it goes
// through the strict HTML parser unchanged.
type MarkdownParser struct {
	Classifier Classifier
}

func (p *MarkdownParser) Parse(r io.Reader) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return (&HTMLParser{Classifier: p.Classifier}).Parse(&buf)
}
