package dothttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hashicorp/go-multierror"
)

// RequestOutcome is one Reporter event (spec §4.F step 8): a script's name,
// its built Request (if it got that far), its Response (if dispatched), the
// tests its response handler collected, and an error if the request was
// marked failed at any stage.
type RequestOutcome struct {
	Name     string
	Request  *Request
	Response *Response
	Tests    []TestOutcome
	Logs     []string
	Err      error
}

// Executor runs a File's RequestScripts sequentially per spec §4.F/§5: one
// in-flight request at a time, no retries, and a failure at any stage
// marks that script's outcome without aborting the rest of the batch.
type Executor struct {
	Scopes     *Scopes
	Dispatcher *Dispatcher
	OnOutcome  func(RequestOutcome)
	OnSnapshot func() // called after each request if a snapshot path is configured
}

// NewExecutor builds an Executor over the given Scopes and Dispatcher.
func NewExecutor(scopes *Scopes, dispatcher *Dispatcher) *Executor {
	return &Executor{Scopes: scopes, Dispatcher: dispatcher}
}

// Run executes every script in file in order, returning a combined error
// (via hashicorp/go-multierror, matching the teacher's own batch-error
// aggregation in client.go) summarizing which requests failed. Run never
// stops early on a single request's failure.
func (e *Executor) Run(ctx context.Context, file *File) error {
	var result error
	for _, script := range file.Scripts {
		if script.IsEmpty() {
			continue
		}
		outcome := e.runOne(ctx, &script)
		if e.OnOutcome != nil {
			e.OnOutcome(outcome)
		}
		if outcome.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", outcome.Name, outcome.Err))
		}
		if e.OnSnapshot != nil {
			e.OnSnapshot()
		}
		if ctx.Err() != nil {
			break
		}
	}
	return result
}

// runOne implements steps 1-7 of spec §4.F for a single RequestScript; Run
// performs the reporting and snapshot steps.
func (e *Executor) runOne(ctx context.Context, script *RequestScript) RequestOutcome {
	outcome := RequestOutcome{Name: script.Name}

	// 1. Fresh request scope.
	e.Scopes.ResetRequestScope()

	// 2. Evaluate @var declarations in order against a running snapshot.
	for _, decl := range script.VariableDeclarations {
		snap := e.Scopes.TakeSnapshot()
		value, _ := Substitute(decl.Value, snap)
		e.Scopes.Set(ScopeRequest, decl.Name, value)
	}

	host := NewScriptHost(e.Scopes)

	// 3. Pre-handler, if present.
	if script.PreHandler != nil {
		preSnap := e.Scopes.TakeSnapshot()
		if err := host.RunPreHandler(script.PreHandler.Body, script, preSnap); err != nil {
			outcome.Err = &HandlerError{Script: script.Name, Cause: err}
			outcome.Logs = host.Logs()
			slog.Warn("pre-handler failed", "script", script.Name, "error", err)
			return outcome
		}
	}

	// 4. Substitute method/URL/headers/body against a fresh snapshot.
	snap := e.Scopes.TakeSnapshot()
	req, err := buildRequest(script, snap)
	if err != nil {
		outcome.Err = err
		outcome.Logs = host.Logs()
		return outcome
	}
	outcome.Request = req

	// 5. Validate.
	if err := req.Validate(); err != nil {
		outcome.Err = &RequestValidationError{Script: script.Name, Cause: err}
		outcome.Logs = host.Logs()
		return outcome
	}

	// 6. Dispatch.
	resp, err := e.Dispatcher.Dispatch(ctx, req)
	if err != nil {
		outcome.Err = err
		outcome.Logs = host.Logs()
		return outcome
	}
	outcome.Response = resp

	// 7. Response handler, if present, then collect tests.
	if script.ResponseHandler != nil {
		if err := host.RunResponseHandler(script.ResponseHandler.Body, script, snap, resp); err != nil {
			outcome.Err = &HandlerError{Script: script.Name, Cause: err}
		}
	}
	outcome.Tests = host.Tests()
	outcome.Logs = host.Logs()
	return outcome
}

// buildRequest substitutes a RequestScript's templates into a concrete
// Request, per spec §4.F step 4.
func buildRequest(script *RequestScript, snap Snapshot) (*Request, error) {
	rawURL, _ := Substitute(script.Request.Target, snap)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request validation: invalid URL %q: %w", rawURL, err)
	}

	req := &Request{
		Name:        script.Name,
		Method:      script.Request.Method,
		URL:         parsed,
		HTTPVersion: script.Request.HTTPVersion,
		NoRedirect:  script.NoRedirect,
		Timeout:     script.Timeout,
	}
	for _, h := range script.Headers {
		name, _ := Substitute(h.Name, snap)
		value, _ := Substitute(h.Value, snap)
		req.Headers = append(req.Headers, NameValue{Name: name, Value: value})
	}
	if !script.Body.IsEmpty() {
		body, _ := Substitute(script.Body, snap)
		req.Body = []byte(body)
	}
	return req, nil
}
