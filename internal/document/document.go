// Package document holds the whole-page helpers shared by the
// regeneration pipeline, the patch pipeline and raw saves.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const Doctype = "<!DOCTYPE html>"

// ErrInvalidHTML is returned when model output is not a complete document.
var ErrInvalidHTML = errors.New("output is not an HTML document")

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:html)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
	doctypeRe     = regexp.MustCompile(`(?i)^\s*<!doctype`)
)

// Clean strips ```html fences and surrounding whitespace from model output.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Validate requires a doctype declaration or an opening html tag.
func Validate(s string) error {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return nil
	}
	return ErrInvalidHTML
}

// EnsureDoctype prepends the HTML5 doctype when s does not start with one.
func EnsureDoctype(s string) string {
	if doctypeRe.MatchString(s) {
		return s
	}
	return Doctype + "\n" + s
}

// Parse builds a queryable document tree from page source.
func Parse(s string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Render serializes the whole tree, always starting with a doctype.
func Render(doc *goquery.Document) (string, error) {
	if len(doc.Nodes) == 0 {
		return "", errors.New("empty document")
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Nodes[0]); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return EnsureDoctype(buf.String()), nil
}
