package dothttp

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// parseTemplate tokenizes raw text into a Template: literal segments
// interleaved with Placeholder nodes for every balanced `{{ ... }}` span.
// Per spec §3, placeholder names never contain "{{"; a nested "{{" before
// the closing "}}" is a parse error.
func parseTemplate(raw string, line, col int) (Template, error) {
	t := Template{Raw: raw}
	rest := raw
	offset := 0
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			if rest != "" {
				t.segments = append(t.segments, segment{kind: segmentLiteral, literal: rest})
			}
			break
		}
		if start > 0 {
			t.segments = append(t.segments, segment{kind: segmentLiteral, literal: rest[:start]})
		}

		afterOpen := rest[start+2:]
		if nested := strings.Index(afterOpen, "{{"); nested != -1 {
			if close := strings.Index(afterOpen, "}}"); close == -1 || nested < close {
				return Template{}, &ParseError{
					Line: line, Column: col + offset + start,
					Expected: "closing '}}' before nested '{{'",
				}
			}
		}

		end := strings.Index(afterOpen, "}}")
		if end == -1 {
			return Template{}, &ParseError{
				Line: line, Column: col + offset + start,
				Expected: "closing '}}' for placeholder",
			}
		}

		name := strings.TrimSpace(afterOpen[:end])
		t.segments = append(t.segments, segment{kind: segmentPlaceholder, ph: Placeholder{Name: name}})

		consumed := start + 2 + end + 2
		offset += consumed
		rest = rest[consumed:]
	}
	return t, nil
}

// isValidHTTPMethod reports whether token looks like an HTTP method: all
// uppercase ASCII letters, at least 3 of them, per spec §3.
func isValidHTTPMethod(token string) bool {
	if len(token) < 3 {
		return false
	}
	for _, r := range token {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// isValidHTTPVersion reports whether token is an "HTTP/1.0" or "HTTP/1.1"
// trailer on a request line.
func isValidHTTPVersion(token string) bool {
	return token == "HTTP/1.0" || token == "HTTP/1.1"
}

// processCommentDirectives recognizes "# @no-redirect" / "# @timeout <ms>"
// directives inside a comment line and sets the matching RequestScript
// field. Unrecognized comment content is ignored, same as the teacher's
// processCommentDirectives.
func processCommentDirectives(trimmed string, script *RequestScript, lineNum int) {
	content := strings.TrimSpace(strings.TrimPrefix(trimmed, commentPrefix))
	switch {
	case content == "@no-redirect" || strings.HasPrefix(content, "@no-redirect "):
		script.NoRedirect = true
	case strings.HasPrefix(content, "@timeout "):
		timeoutStr := strings.TrimSpace(content[len("@timeout "):])
		timeoutMs, err := strconv.Atoi(timeoutStr)
		if err != nil || timeoutMs <= 0 {
			slog.Warn("invalid @timeout directive", "value", timeoutStr, "line", lineNum)
			return
		}
		script.Timeout = time.Duration(timeoutMs) * time.Millisecond
	}
}

// splitHeaderLine splits "Name: value" into trimmed name/value strings.
func splitHeaderLine(line string) (name, value string, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// ParseError is a fatal error for a single file: parsing stops, but the
// CLI may continue on to other files (spec §7).
type ParseError struct {
	Line     int
	Column   int
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: expected %s", e.Line, e.Column, e.Expected)
}
