package dothttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/dop251/goja"
	"github.com/pmezard/go-difflib/difflib"
)

// ScriptHost runs pre/post-request handler scripts in a sandboxed goja VM,
// exposing the frozen client/request/response surface of spec §4.E. It
// binds no I/O, timers, or module loader — only the documented host
// functions — grounded on hemantobora-auto-mock's ScriptEngine and
// sa6mwa-gruno's runPreRequestScript (Go closures bound onto vm objects).
type ScriptHost struct {
	scopes *Scopes
	logs   []string
	tests  []TestOutcome
}

// NewScriptHost builds a ScriptHost bound to the live Scopes of one
// execution run.
func NewScriptHost(scopes *Scopes) *ScriptHost {
	return &ScriptHost{scopes: scopes}
}

// Resolvable exposes a Template's raw text and its substitution against the
// current snapshot, per spec §4.E/§9's "Resolvable" glossary entry.
type Resolvable struct {
	template Template
	snapshot Snapshot
}

func (r Resolvable) getRaw() string { return r.template.Raw }

func (r Resolvable) tryGetSubstituted() string {
	value, _ := Substitute(r.template, r.snapshot)
	return value
}

func (h *ScriptHost) bindResolvable(vm *goja.Runtime, t Template, snap Snapshot) *goja.Object {
	obj := vm.NewObject()
	r := Resolvable{template: t, snapshot: snap}
	_ = obj.Set("getRaw", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(r.getRaw())
	})
	_ = obj.Set("tryGetSubstituted", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(r.tryGetSubstituted())
	})
	return obj
}

// RunPreHandler executes a pre-request handler block (spec §4.E, step 3 of
// §5's per-request sequence). It may mutate any scope and inspect the
// request's Resolvables, but the outgoing Request is built from scopes
// afterward — the handler has no direct request-mutation API beyond the
// variable scopes themselves.
func (h *ScriptHost) RunPreHandler(body string, script *RequestScript, snap Snapshot) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	vm := h.newVM()
	h.bindClient(vm)
	h.bindRequestForPreHandler(vm, script, snap)
	_, err := vm.RunString(body)
	return unwrapScriptError(err)
}

// RunResponseHandler executes a post-response handler block. client.test
// callbacks that throw are caught and recorded as Failed TestOutcomes
// rather than propagating (spec §4.E); any other thrown error is returned
// for the caller to wrap as a HandlerError and mark the request failed.
func (h *ScriptHost) RunResponseHandler(body string, script *RequestScript, snap Snapshot, resp *Response) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	vm := h.newVM()
	h.bindClient(vm)
	h.bindRequestForPreHandler(vm, script, snap)
	h.bindResponse(vm, resp)
	_, err := vm.RunString(body)
	return unwrapScriptError(err)
}

// Logs returns every client.log(...) line recorded across handler runs, in
// invocation order.
func (h *ScriptHost) Logs() []string { return h.logs }

// Tests returns every client.test(...) outcome recorded across handler
// runs, in invocation order; duplicated names are reported independently
// (spec §4.E).
func (h *ScriptHost) Tests() []TestOutcome { return h.tests }

func (h *ScriptHost) newVM() *goja.Runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	return vm
}

func (h *ScriptHost) bindClient(vm *goja.Runtime) {
	client := vm.NewObject()

	_ = client.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		h.logs = append(h.logs, strings.Join(parts, " "))
		return goja.Undefined()
	})

	_ = client.Set("assert", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			message := "assertion failed"
			if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) {
				message = call.Arguments[1].String()
			}
			panic(vm.NewGoError(fmt.Errorf("%s", message)))
		}
		return goja.Undefined()
	})

	// assertEqual supplements spec §4.E's plain client.assert with a
	// diff-bearing failure message, completing the comparison the teacher's
	// validator.go used to do against static fixtures — here against two
	// script-computed values instead.
	_ = client.Set("assertEqual", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		actual := jsonStringify(call.Arguments[0].Export())
		expected := jsonStringify(call.Arguments[1].Export())
		if actual == expected {
			return goja.Undefined()
		}
		message := fmt.Sprintf("values differ:\n%s", unifiedDiff(expected, actual))
		if len(call.Arguments) > 2 && !goja.IsUndefined(call.Arguments[2]) {
			message = call.Arguments[2].String() + "\n" + message
		}
		panic(vm.NewGoError(fmt.Errorf("%s", message)))
	})

	_ = client.Set("test", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		name := call.Arguments[0].String()
		fn, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			return goja.Undefined()
		}
		outcome := TestOutcome{Name: name, Status: TestOk}
		if _, err := fn(goja.Undefined()); err != nil {
			outcome.Status = TestFailed
			outcome.Reason = scriptErrorMessage(err)
		}
		h.tests = append(h.tests, outcome)
		return goja.Undefined()
	})

	global := vm.NewObject()
	_ = global.Set("get", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		v, ok := h.scopes.Get(ScopeGlobal, call.Arguments[0].String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	_ = global.Set("set", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		h.scopes.Set(ScopeGlobal, call.Arguments[0].String(), call.Arguments[1].Export())
		return goja.Undefined()
	})
	_ = global.Set("clear", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		h.scopes.Unset(ScopeGlobal, call.Arguments[0].String())
		return goja.Undefined()
	})
	_ = global.Set("clearAll", func(goja.FunctionCall) goja.Value {
		h.scopes.ClearAll(ScopeGlobal)
		return goja.Undefined()
	})
	_ = global.Set("isEmpty", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(h.scopes.IsEmpty(ScopeGlobal))
	})
	_ = client.Set("global", global)

	_ = vm.Set("client", client)
}

func (h *ScriptHost) bindRequestForPreHandler(vm *goja.Runtime, script *RequestScript, snap Snapshot) {
	request := vm.NewObject()

	environment := vm.NewObject()
	_ = environment.Set("get", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		v, ok := h.scopes.Get(ScopeEnv, call.Arguments[0].String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	_ = request.Set("environment", environment)

	variables := vm.NewObject()
	_ = variables.Set("get", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		v, ok := h.scopes.Get(ScopeRequest, call.Arguments[0].String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	_ = variables.Set("set", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		h.scopes.Set(ScopeRequest, call.Arguments[0].String(), call.Arguments[1].Export())
		return goja.Undefined()
	})
	_ = variables.Set("clear", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		h.scopes.Unset(ScopeRequest, call.Arguments[0].String())
		return goja.Undefined()
	})
	_ = variables.Set("clearAll", func(goja.FunctionCall) goja.Value {
		h.scopes.ClearAll(ScopeRequest)
		return goja.Undefined()
	})
	_ = variables.Set("isEmpty", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(h.scopes.IsEmpty(ScopeRequest))
	})
	_ = request.Set("variables", variables)

	_ = request.Set("url", h.bindResolvable(vm, script.Request.Target, snap))

	headers := vm.NewObject()
	_ = headers.Set("findByName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		name := call.Arguments[0].String()
		for _, hdr := range script.Headers {
			if strings.EqualFold(hdr.Name.Raw, name) {
				return h.bindResolvable(vm, hdr.Value, snap)
			}
		}
		return goja.Undefined()
	})
	_ = request.Set("headers", headers)

	_ = request.Set("body", h.bindResolvable(vm, script.Body, snap))

	_ = vm.Set("request", request)
}

func (h *ScriptHost) bindResponse(vm *goja.Runtime, resp *Response) {
	response := vm.NewObject()
	_ = response.Set("status", resp.Status)

	headers := vm.NewObject()
	seen := map[string]bool{}
	for _, hdr := range resp.Headers {
		key := hdr.Name
		for k := range seen {
			if strings.EqualFold(k, key) {
				key = k
				break
			}
		}
		_ = headers.Set(key, hdr.Value)
		seen[key] = true
	}
	_ = response.Set("headers", headers)

	_ = response.Set("body", resp.Body())

	_ = response.Set("jsonPath", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		result, err := jsonpath.Get(call.Arguments[0].String(), resp.Body())
		if err != nil {
			return goja.Undefined()
		}
		return vm.ToValue(result)
	})

	_ = vm.Set("response", response)
}

// unwrapScriptError turns a goja exception into a plain Go error carrying
// the thrown message, for the caller to classify as HandlerError.
func unwrapScriptError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("script handler: %s", scriptErrorMessage(err))
}

func scriptErrorMessage(err error) string {
	if exc, ok := err.(*goja.Exception); ok {
		return exc.Value().String()
	}
	return err.Error()
}

func jsonStringify(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// unifiedDiff renders a readable expected/actual diff for assertEqual
// failures, grounded on the teacher's validator.go use of go-difflib for
// expected-vs-actual response comparison.
func unifiedDiff(expected, actual string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("expected: %s\nactual:   %s", expected, actual)
	}
	return text
}
