package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// TagOverrides is the content of a tag override file:
//
//	splittable     = ["figure", "details"]
//	non_splittable = ["span"]
//
// The same attributes may be written as JSON in a .json file.
type TagOverrides struct {
	Splittable    []string `hcl:"splittable,optional"`
	NonSplittable []string `hcl:"non_splittable,optional"`
}

// LoadTagOverrides reads an .hcl or .json override file.
func LoadTagOverrides(path string) (TagOverrides, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return TagOverrides{}, fmt.Errorf("read tags file: %w", err)
	}
	return ParseTagOverrides(path, src)
}

// ParseTagOverrides decodes src; the filename extension picks HCL or JSON syntax.
func ParseTagOverrides(filename string, src []byte) (TagOverrides, error) {
	parser := hclparse.NewParser()
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		file, diags = parser.ParseJSON(src, filename)
	default:
		file, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return TagOverrides{}, fmt.Errorf("failed to parse tags file %s: %w", filename, diags)
	}

	var t TagOverrides
	diags = gohcl.DecodeBody(file.Body, nil, &t)
	if diags.HasErrors() {
		return TagOverrides{}, fmt.Errorf("failed to decode tags file %s: %w", filename, diags)
	}
	return t, nil
}

// Map returns the overrides as a classifier table. A tag listed as both
// splittable and non-splittable is an error.
func (t TagOverrides) Map() (map[string]bool, error) {
	out := make(map[string]bool, len(t.Splittable)+len(t.NonSplittable))
	for _, tag := range t.Splittable {
		out[normalizeTag(tag)] = true
	}
	for _, tag := range t.NonSplittable {
		tag = normalizeTag(tag)
		if out[tag] {
			return nil, fmt.Errorf("tag %q listed as both splittable and non_splittable", tag)
		}
		out[tag] = false
	}
	delete(out, "")
	return out, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
