package dothttp

import (
	"encoding/json"
	"strings"
	"time"
)

// Response is a dispatched HTTP response, decoded per spec §3: headers in
// wire order, a raw body, and a derived JSON-or-string "body" view.
type Response struct {
	Status    int
	Version   string
	Headers   []NameValue
	BodyBytes []byte
	Duration  time.Duration

	IsTLS          bool
	TLSVersion     string
	TLSCipherSuite string
}

// HeaderValue returns the first case-insensitive match for name, or "".
func (r *Response) HeaderValue(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Body returns the parsed JSON value when Content-Type indicates JSON and
// parsing succeeds, otherwise the UTF-8 string view of the body (spec §3).
func (r *Response) Body() any {
	if isJSONContentType(r.HeaderValue("Content-Type")) {
		var v any
		if err := json.Unmarshal(r.BodyBytes, &v); err == nil {
			return v
		}
	}
	return string(r.BodyBytes)
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "json")
}

// TestStatus is the outcome of one client.test() invocation (spec §3).
type TestStatus int

const (
	TestOk TestStatus = iota
	TestFailed
)

// TestOutcome is one (name, status) pair produced by client.test during a
// response handler.
type TestOutcome struct {
	Name   string
	Status TestStatus
	Reason string
}
