package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dgallion1/msgsplit/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first, then falls back
// to pdftotext if enabled. Each page becomes a <div class="page"> holding one
// <p> per paragraph.
type PDFParser struct {
	Classifier        Classifier
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader) (*doctree.Node, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "msgsplit-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return p.pageTree(text), nil
}

// pageTree builds one page div per form-feed separated page. Empty pages are
// dropped but still count toward data-page numbering.
func (p *PDFParser) pageTree(text string) *doctree.Node {
	root := doctree.NewRoot()
	for i, page := range splitPages(text) {
		paras := splitParagraphs(page)
		if len(paras) == 0 {
			continue
		}
		attrs := []doctree.Attr{{Key: "class", Val: "page"}, {Key: "data-page", Val: strconv.Itoa(i + 1)}}
		div := element(p.Classifier, "div", attrs)
		for _, para := range paras {
			div.Children = append(div.Children, element(p.Classifier, "p", nil, textNode(para)))
		}
		root.Children = append(root.Children, div)
	}
	return root
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return joinPages(reader.NumPage(), func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	}), nil
}

// joinPages concatenates pages 1..n separated by form feeds. A page that
// fails to extract contributes empty text so later page numbers stay put.
func joinPages(n int, pageText func(i int) (string, error)) string {
	var buf strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			buf.WriteString("\f")
		}
		text, err := pageText(i)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String()
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
