package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/msgsplit/internal/doctree"
)

// Parser converts raw document bytes into a node tree rooted at an implicit container.
type Parser interface {
	Parse(r io.Reader) (*doctree.Node, error)
}

// Options configures the parsers returned by ForFile.
type Options struct {
	Classifier        Classifier
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	return ForFormat(filepath.Ext(filename), opts)
}

// NormalizeFormat maps a format name or extension ("HTML", "md", ".txt") to
// its lower-case dotted extension.
func NormalizeFormat(format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ForFormat returns the parser for a format name or extension ("html", ".md").
func ForFormat(format string, opts Options) (Parser, error) {
	ext := NormalizeFormat(format)
	switch ext {
	case ".html", ".htm":
		return &HTMLParser{Classifier: opts.Classifier}, nil
	case ".md", ".markdown":
		return &MarkdownParser{Classifier: opts.Classifier}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".pdf":
		return &PDFParser{Classifier: opts.Classifier, FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{Classifier: opts.Classifier}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
