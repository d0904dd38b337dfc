package dothttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScript(t *testing.T, rawURL string) *RequestScript {
	t.Helper()
	target, err := parseTemplate(rawURL, 1, 0)
	require.NoError(t, err)
	return &RequestScript{
		Name:    "test",
		Request: RequestLine{Method: "GET", Target: target},
	}
}

func TestScriptHost_ClientGlobalSetAndGet(t *testing.T) {
	scopes := NewScopes()
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/x")
	snap := scopes.TakeSnapshot()

	err := host.RunPreHandler(`client.global.set("k", "v");`, script, snap)
	require.NoError(t, err)

	v, ok := scopes.Get(ScopeGlobal, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestScriptHost_AssertThrowsOnFalse(t *testing.T) {
	scopes := NewScopes()
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/x")
	snap := scopes.TakeSnapshot()

	err := host.RunPreHandler(`client.assert(1 === 2, "nope");`, script, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestScriptHost_TestCallbackFailureRecordedNotThrown(t *testing.T) {
	scopes := NewScopes()
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/x")
	script.ResponseHandler = &ScriptBlock{}
	snap := scopes.TakeSnapshot()
	resp := &Response{Status: 500}

	err := host.RunResponseHandler(`client.test("status", () => client.assert(response.status === 200));`, script, snap, resp)
	require.NoError(t, err, "a client.test failure must not propagate as a handler error")

	require.Len(t, host.Tests(), 1)
	assert.Equal(t, TestFailed, host.Tests()[0].Status)
}

func TestScriptHost_ResolvableRawVsSubstituted(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "id", "42")
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/users/{{id}}")
	snap := scopes.TakeSnapshot()

	var raw, substituted string
	vm := host.newVM()
	host.bindClient(vm)
	host.bindRequestForPreHandler(vm, script, snap)
	_, err := vm.RunString(`
		raw = request.url.getRaw();
		substituted = request.url.tryGetSubstituted();
	`)
	require.NoError(t, err)
	raw = vm.Get("raw").String()
	substituted = vm.Get("substituted").String()

	assert.Equal(t, "https://example.com/users/{{id}}", raw)
	assert.Equal(t, "https://example.com/users/42", substituted)
}

func TestScriptHost_ResponseJSONPath(t *testing.T) {
	scopes := NewScopes()
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/x")
	script.ResponseHandler = &ScriptBlock{}
	snap := scopes.TakeSnapshot()
	resp := &Response{
		Status:  200,
		Headers: []NameValue{{Name: "Content-Type", Value: "application/json"}},
		BodyBytes: []byte(`{"data":{"id":"abc"}}`),
	}

	err := host.RunResponseHandler(`client.global.set("found", response.jsonPath("$.data.id"));`, script, snap, resp)
	require.NoError(t, err)

	v, ok := scopes.Get(ScopeGlobal, "found")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestScriptHost_AssertEqualDiffsOnMismatch(t *testing.T) {
	scopes := NewScopes()
	host := NewScriptHost(scopes)
	script := newTestScript(t, "https://example.com/x")
	snap := scopes.TakeSnapshot()

	err := host.RunPreHandler(`client.assertEqual({a: 1}, {a: 2});`, script, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "values differ")
}
