package models

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Page is a named HTML document backed by one file in the pages directory.
type Page struct {
	Name     string    `json:"name"`
	Content  string    `json:"content"`
	Modified time.Time `json:"-"`
}

// Version returns the opaque change token of the page.
func (p *Page) Version() string {
	return VersionOf(p.Modified)
}

// PageInfo is a listing entry.
type PageInfo struct {
	Name     string `json:"name"`
	Modified int64  `json:"modified"`
	Size     int64  `json:"size"`
}

// VersionInfo is the body of the version endpoint.
type VersionInfo struct {
	Success   bool   `json:"success"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Modified  string `json:"modified"`
}

// NewVersionInfo renders a modification time in the three forms the
// version endpoint exposes.
func NewVersionInfo(modified time.Time) VersionInfo {
	return VersionInfo{
		Success:   true,
		Version:   VersionOf(modified),
		Timestamp: modified.Unix(),
		Modified:  modified.UTC().Format(http.TimeFormat),
	}
}

// VersionOf turns a modification time into a version token. Tokens are
// compared for equality only.
func VersionOf(modified time.Time) string {
	return strconv.FormatInt(modified.UnixNano(), 10)
}

var pageNameStrip = regexp.MustCompile(`[^a-z0-9-]`)

// SanitizePageName lowercases name and drops every character outside
// [a-z0-9-]. An empty result means the name is invalid.
func SanitizePageName(name string) string {
	return pageNameStrip.ReplaceAllString(strings.ToLower(name), "")
}

type PageActionRequest struct {
	Action string `json:"action"` // "create" | "delete"
	Name   string `json:"name"`
}

type SaveRequest struct {
	Page        string `json:"page"`
	HTML        string `json:"html"`
	BaseVersion string `json:"base_version,omitempty"`
}
