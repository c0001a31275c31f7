// Package validate holds field validation shared by the citation handlers.
package validate

import (
	"fmt"
	"net/url"
)

// Text field length limits — single source of truth for backend and frontend.
const (
	MaxTitleLength      = 500
	MaxClaimLength      = 500
	MaxSourceTextLength = 2000
	MaxSourceURLLength  = 2048
	MaxNameLength       = 200
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string      { return checkLen(s, MaxTitleLength, "title") }
func Claim(s string) string      { return checkLen(s, MaxClaimLength, "claim") }
func SourceText(s string) string { return checkLen(s, MaxSourceTextLength, "source text") }
func Name(s string) string       { return checkLen(s, MaxNameLength, "name") }

// SourceURL requires an absolute http(s) URL with a host.
func SourceURL(s string) string {
	if s == "" {
		return "source URL is required"
	}
	if msg := checkLen(s, MaxSourceURLLength, "source URL"); msg != "" {
		return msg
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "source URL must be an absolute URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "source URL must use http or https"
	}
	return ""
}
