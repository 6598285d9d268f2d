package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/msgsplit/internal/config"
	"github.com/dgallion1/msgsplit/internal/doctree"
	"github.com/dgallion1/msgsplit/internal/parser"
	"github.com/dgallion1/msgsplit/internal/splitter"
)

// Options selects how a document is parsed and split.
type Options struct {
	MaxLen            int
	Whitespace        splitter.WhitespaceMode
	Classifier        parser.Classifier
	Format            string // Overrides the filename extension when set, e.g. "html"
	FallbackPdftotext bool
}

// OptionsFromConfig builds the default split options from the service
// configuration, including tag overrides from TAGS_FILE and the tag lists.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	ws, err := splitter.ParseWhitespaceMode(cfg.WhitespaceMode)
	if err != nil {
		return Options{}, err
	}
	overrides, err := cfg.TagOverrides()
	if err != nil {
		return Options{}, err
	}
	return Options{
		MaxLen:            cfg.DefaultMaxLen,
		Whitespace:        ws,
		Classifier:        parser.NewClassifier(overrides),
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, nil
}

func (o Options) format(filename string) string {
	if o.Format != "" {
		return o.Format
	}
	return filepath.Ext(filename)
}

func (o Options) splitConfig() splitter.Config {
	return splitter.Config{MaxLen: o.MaxLen, Whitespace: o.Whitespace}
}

// ParseDocument turns raw bytes into a node tree using the parser for the
// document's format.
func ParseDocument(data []byte, filename string, opts Options) (*doctree.Node, error) {
	p, err := parser.ForFormat(opts.format(filename), parser.Options{
		Classifier:        opts.Classifier,
		FallbackPdftotext: opts.FallbackPdftotext,
	})
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data))
}

// SplitDocument parses data and splits it into fragments. The budget is
// checked before parsing so a bad configuration never costs a parse.
func SplitDocument(data []byte, filename string, opts Options) (*splitter.Result, error) {
	if opts.MaxLen < 1 {
		return nil, &splitter.InvalidConfigurationError{Field: "max_len", Value: opts.MaxLen, Reason: "must be a positive integer"}
	}
	tree, err := ParseDocument(data, filename, opts)
	if err != nil {
		return nil, err
	}
	return splitter.Split(tree, opts.splitConfig())
}

// CacheKey identifies a split result: the same bytes split with the same
// settings always produce the same fragments.
func CacheKey(data []byte, filename string, opts Options) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		ContentHashHex(data),
		strconv.Itoa(opts.MaxLen),
		opts.Whitespace,
		parser.NormalizeFormat(opts.format(filename)),
		opts.Classifier.Signature(),
	)
}
