package dothttp

import (
	"fmt"
	"io"
	"strings"
)

// ReportFormat selects Reporter's output mode (spec §4.H/§6).
type ReportFormat string

const (
	FormatStandard ReportFormat = "standard"
	FormatCI       ReportFormat = "ci"
)

const (
	defaultRequestFormat  = "%N\n%R\n\n"
	defaultResponseFormat = "%R\n%H\n%B\n\n%T\n"
)

// Reporter renders RequestOutcomes to w, either as the human-readable
// "standard" transcript or the compact "ci" table (spec §4.H). It also
// tracks whether the run should exit 1 (ci mode, spec §6).
type Reporter struct {
	w              io.Writer
	format         ReportFormat
	requestFormat  string
	responseFormat string
	failed         bool
}

// NewReporter builds a Reporter writing to w. Empty requestFormat/
// responseFormat fall back to spec §6's defaults.
func NewReporter(w io.Writer, format ReportFormat, requestFormat, responseFormat string) *Reporter {
	if requestFormat == "" {
		requestFormat = defaultRequestFormat
	}
	if responseFormat == "" {
		responseFormat = defaultResponseFormat
	}
	return &Reporter{w: w, format: format, requestFormat: requestFormat, responseFormat: responseFormat}
}

// Report renders one RequestOutcome and updates the ci-mode failure flag.
func (r *Reporter) Report(outcome RequestOutcome) {
	if outcome.Err != nil {
		r.failed = true
	}
	for _, t := range outcome.Tests {
		if t.Status == TestFailed {
			r.failed = true
		}
	}

	switch r.format {
	case FormatCI:
		r.reportCI(outcome)
	default:
		r.reportStandard(outcome)
	}
}

// Failed reports whether any request errored or any test failed across all
// Report calls so far — the ci-mode exit-code-1 condition (spec §6).
func (r *Reporter) Failed() bool { return r.failed }

func (r *Reporter) reportStandard(outcome RequestOutcome) {
	if outcome.Request != nil {
		fmt.Fprint(r.w, renderRequest(r.requestFormat, outcome.Request))
	}
	if outcome.Err != nil {
		fmt.Fprintf(r.w, "error: %s\n\n", outcome.Err)
		return
	}
	if outcome.Response != nil {
		fmt.Fprint(r.w, renderResponse(r.responseFormat, outcome.Response, outcome.Tests))
	}
}

func (r *Reporter) reportCI(outcome RequestOutcome) {
	if outcome.Err != nil {
		fmt.Fprintf(r.w, "%s\trequest\terror: %s\n", outcome.Name, outcome.Err)
		return
	}
	if len(outcome.Tests) == 0 {
		fmt.Fprintf(r.w, "%s\t-\tok\n", outcome.Name)
		return
	}
	for _, t := range outcome.Tests {
		status := "ok"
		if t.Status == TestFailed {
			status = "failed: " + t.Reason
		}
		fmt.Fprintf(r.w, "%s\t%s\t%s\n", outcome.Name, t.Name, status)
	}
}

// renderRequest expands a request-format string per spec §6's tokens: %R
// (protocol line), %N (name), %B (body), %H (headers).
func renderRequest(format string, req *Request) string {
	replacer := strings.NewReplacer(
		"%R", fmt.Sprintf("%s %s %s", req.Method, req.URL.String(), firstNonEmpty(req.HTTPVersion, "HTTP/1.1")),
		"%N", req.Name,
		"%B", string(req.Body),
		"%H", renderHeaders(req.Headers),
	)
	return replacer.Replace(format)
}

// renderResponse expands a response-format string per spec §6's tokens: %R
// (status line), %T (tests), %B (body), %H (headers).
func renderResponse(format string, resp *Response, tests []TestOutcome) string {
	replacer := strings.NewReplacer(
		"%R", fmt.Sprintf("%s %d", firstNonEmpty(resp.Version, "HTTP/1.1"), resp.Status),
		"%T", renderTests(tests),
		"%B", string(resp.BodyBytes),
		"%H", renderHeaders(resp.Headers),
	)
	return replacer.Replace(format)
}

func renderHeaders(headers []NameValue) string {
	var sb strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&sb, "%s: %s\n", h.Name, h.Value)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func renderTests(tests []TestOutcome) string {
	if len(tests) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, t := range tests {
		if t.Status == TestOk {
			fmt.Fprintf(&sb, "✓ %s\n", t.Name)
		} else {
			fmt.Fprintf(&sb, "✗ %s: %s\n", t.Name, t.Reason)
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
