package dothttp

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// NameValue is an ordered (name, value) pair — used for headers, where the
// wire order and duplicate names both matter (spec §3).
type NameValue struct {
	Name  string
	Value string
}

// Request is a Request AST entry after full variable substitution (spec
// §3's "Request (post-substitution)").
type Request struct {
	Name        string
	Method      string
	URL         *url.URL
	HTTPVersion string
	Headers     []NameValue
	Body        []byte

	// NoRedirect / Timeout are supplemental per-request settings the
	// grammar accepts as comment directives (see parser_state.go), beyond
	// spec.md's own model.
	NoRedirect bool
	Timeout    time.Duration
}

var httpTokenRE = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// Validate checks the invariants spec §3 places on a post-substitution
// Request: a parseable absolute HTTP(S) URL, and HTTP-token header names.
// It also derives a Host header from the URL when one wasn't set
// explicitly.
func (r *Request) Validate() error {
	if r.URL == nil {
		return fmt.Errorf("request validation: URL is nil")
	}
	if !r.URL.IsAbs() || (r.URL.Scheme != "http" && r.URL.Scheme != "https") {
		return fmt.Errorf("request validation: URL %q is not an absolute http(s) URL", r.URL.String())
	}
	for _, h := range r.Headers {
		if !httpTokenRE.MatchString(h.Name) {
			return fmt.Errorf("request validation: header name %q is not a valid HTTP token", h.Name)
		}
	}
	if r.HeaderValue("Host") == "" && r.URL.Host != "" {
		r.Headers = append(r.Headers, NameValue{Name: "Host", Value: r.URL.Host})
	}
	return nil
}

// HeaderValue returns the first value for a case-insensitive header name
// match, or "" if absent.
func (r *Request) HeaderValue(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
