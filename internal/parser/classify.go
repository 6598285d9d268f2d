package parser

import (
	"sort"
	"strings"
)

// DefaultSplittable lists the block containers that may be closed and
// reopened across fragments when no override says otherwise.
var DefaultSplittable = []string{
	"html", "body", "main", "section", "article", "header", "footer", "nav", "aside",
	"div", "p", "span", "ul", "ol", "li", "dl", "dd", "blockquote", "pre", "figure",
	"table", "thead", "tbody", "tfoot", "tr", "td", "th",
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// rawTextElements hold character data the tokenizer does not unescape.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "noscript": true, "plaintext": true,
}

var defaultClassifier = NewClassifier(nil)

// Classifier decides which tags are splittable. It is a single lookup table:
// DefaultSplittable plus caller overrides.
type Classifier struct {
	table     map[string]bool
	overrides map[string]bool
}

// NewClassifier builds a classifier from the defaults and overrides. An
// override of true makes a tag splittable, false forces it atomic.
func NewClassifier(overrides map[string]bool) Classifier {
	c := Classifier{
		table:     make(map[string]bool, len(DefaultSplittable)+len(overrides)),
		overrides: make(map[string]bool, len(overrides)),
	}
	for _, tag := range DefaultSplittable {
		c.table[tag] = true
	}
	for tag, splittable := range overrides {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		c.table[tag] = splittable
		c.overrides[tag] = splittable
	}
	return c
}

// Splittable reports whether elements with this tag may span fragments.
// Void and raw-text elements never do.
func (c Classifier) Splittable(tag string) bool {
	tag = strings.ToLower(tag)
	if voidElements[tag] || rawTextElements[tag] {
		return false
	}
	if c.table == nil {
		return defaultClassifier.table[tag]
	}
	return c.table[tag]
}

// Signature is a stable description of the overrides, usable in cache keys.
func (c Classifier) Signature() string {
	if len(c.overrides) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.overrides))
	for tag, splittable := range c.overrides {
		if splittable {
			parts = append(parts, "+"+tag)
		} else {
			parts = append(parts, "-"+tag)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
