// Command msgsplit splits an HTML (or Markdown, text, PDF, DOCX) file into
// fragments of at most --max-len characters and prints them in order.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/msgsplit/internal/config"
	"github.com/dgallion1/msgsplit/internal/parser"
	"github.com/dgallion1/msgsplit/internal/pipeline"
	"github.com/dgallion1/msgsplit/internal/splitter"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args, splits the named file and writes fragments to stdout.
// Diagnostics go to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	env := config.Load()

	flagSet := flag.NewFlagSet("msgsplit", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, `
msgsplit - split a document into well-formed HTML fragments.

Usage:
  msgsplit [options] FILE

Options:
`)
		flagSet.PrintDefaults()
	}

	maxLen := flagSet.Int("max-len", env.DefaultMaxLen, "Maximum fragment length in characters.")
	tagsFile := flagSet.String("tags", env.TagsFile, "HCL or JSON file with splittable/non_splittable tag overrides.")
	whitespace := flagSet.String("whitespace", env.WhitespaceMode, "Whitespace-only text at a cut: 'split' or 'atomic'.")
	format := flagSet.String("format", "", "Input format (html, md, txt, pdf, docx). Defaults to the file extension, then html.")
	logLevel := flagSet.String("log-level", "warn", "Logging level: 'debug', 'info', 'warn', 'error'.")
	logFormat := flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return &ExitError{Code: 2}
	}
	path := flagSet.Arg(0)

	lf := strings.ToLower(*logFormat)
	if lf != "text" && lf != "json" {
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	log := config.NewLogger(strings.ToLower(*logLevel), lf, stderr)

	ws, err := splitter.ParseWhitespaceMode(*whitespace)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	env.TagsFile = *tagsFile
	overrides, err := env.TagOverrides()
	if err != nil {
		return fail(err)
	}

	opts := pipeline.Options{
		MaxLen:            *maxLen,
		Whitespace:        ws,
		Classifier:        parser.NewClassifier(overrides),
		Format:            *format,
		FallbackPdftotext: env.PDFFallbackPdftotext,
	}
	if opts.Format == "" && !parser.IsSupportedExtension(path) {
		opts.Format = "html"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	log.Debug("splitting", "file", path, "bytes", len(data), "max_len", opts.MaxLen, "whitespace", ws)
	res, err := pipeline.SplitDocument(data, path, opts)
	if err != nil {
		return fail(err)
	}

	for _, u := range res.Oversize {
		log.Warn("oversize unit",
			"fragment", u.Fragment,
			"kind", u.Kind,
			"tag", u.Tag,
			"size", u.Size,
			"overhead", u.Overhead,
			"budget", u.Budget,
		)
	}
	for _, f := range res.Fragments {
		fmt.Fprintf(stdout, "fragment #%d: %d chars\n", f.Index, f.Length)
		fmt.Fprintln(stdout, f.Text)
	}
	return nil
}

func fail(err error) error {
	return &ExitError{Code: 1, Message: "ERROR: " + err.Error()}
}
