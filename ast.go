package dothttp

import "time"

// Package dothttp implements a text-driven HTTP client: it parses
// human-authored ".http" request scripts, substitutes variables from
// layered scopes, issues requests, and runs response-handler scripts that
// can extract values or assert outcomes.

// Placeholder is a `{{name}}` reference inside a Template. Name never
// contains "{{" and is trimmed of surrounding whitespace.
type Placeholder struct {
	Name string
}

// segmentKind distinguishes the two kinds of Template segments.
type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentPlaceholder
)

// segment is one piece of a Template: either literal text or a Placeholder.
type segment struct {
	kind    segmentKind
	literal string
	ph      Placeholder
}

// Template is literal text interleaved with Placeholder nodes, as produced
// by the parser from a raw source fragment (URL, header name/value, body).
type Template struct {
	Raw      string
	segments []segment
}

// IsEmpty reports whether the template has no content at all.
func (t Template) IsEmpty() bool {
	return t.Raw == ""
}

// Header is a single parsed header line, name and value both templates.
type Header struct {
	Name  Template
	Value Template
}

// VariableDeclaration is one `@name = value` line appearing before the
// request line of a script.
type VariableDeclaration struct {
	Name  string
	Value Template
}

// RequestLine is the parsed method/URL/http-version portion of a script.
type RequestLine struct {
	Method      string
	Target      Template
	HTTPVersion string
}

// ScriptBlock is a raw, unparsed JavaScript fragment captured between
// `< {%`/`> {%` and a closing `%}`.
type ScriptBlock struct {
	Body string
}

// RequestScript is one "### ..."-delimited block of a .http file.
type RequestScript struct {
	// Name is the `### name` text, or "#<1-based index>" when absent.
	Name string
	// Index is the 1-based position of this script within its file.
	Index int
	// Line is the 1-based source line where this script's content begins.
	Line int

	VariableDeclarations []VariableDeclaration
	PreHandler           *ScriptBlock
	Request              RequestLine
	Headers              []Header
	Body                 Template
	ResponseHandler      *ScriptBlock

	// NoRedirect / Timeout come from "# @no-redirect" / "# @timeout <ms>"
	// comment directives anywhere in the preamble (spec §4.A supplement).
	NoRedirect bool
	Timeout    time.Duration
}

// IsEmpty reports whether the script has no request line at all — the
// result of two consecutive separators, which the executor skips.
func (s *RequestScript) IsEmpty() bool {
	return s.Request.Method == "" && s.Request.Target.Raw == ""
}

// File is the ordered sequence of request scripts parsed from one .http
// file, per spec §3's "File AST".
type File struct {
	Path    string
	Scripts []RequestScript
}
