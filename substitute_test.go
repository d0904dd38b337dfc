package dothttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTemplate(t *testing.T, raw string) Template {
	t.Helper()
	tmpl, err := parseTemplate(raw, 1, 0)
	require.NoError(t, err)
	return tmpl
}

func TestSubstitute_ResolvedPlaceholder(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "name", "world")
	snap := scopes.TakeSnapshot()

	out, warnings := Substitute(mustTemplate(t, "hello {{name}}"), snap)
	assert.Equal(t, "hello world", out)
	assert.Empty(t, warnings)
}

func TestSubstitute_MissingVariableRetained(t *testing.T) {
	scopes := NewScopes()
	snap := scopes.TakeSnapshot()

	out, warnings := Substitute(mustTemplate(t, "token={{NOPE}}"), snap)
	assert.Equal(t, "token={{NOPE}}", out)
	require.Len(t, warnings, 1)
	assert.Equal(t, "NOPE", warnings[0].Name)
}

func TestSubstitute_OneWarningPerDistinctName(t *testing.T) {
	scopes := NewScopes()
	snap := scopes.TakeSnapshot()

	_, warnings := Substitute(mustTemplate(t, "{{NOPE}} and {{NOPE}} and {{OTHER}}"), snap)
	require.Len(t, warnings, 2)
}

func TestSubstitute_ValueStringification(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "n", float64(42))
	scopes.Set(ScopeGlobal, "obj", map[string]any{"a": float64(1)})
	snap := scopes.TakeSnapshot()

	out, _ := Substitute(mustTemplate(t, "{{n}}-{{obj}}"), snap)
	assert.Equal(t, `42-{"a":1}`, out)
}

func TestSubstitute_NotRecursive(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "outer", "{{inner}}")
	scopes.Set(ScopeGlobal, "inner", "leaked")
	snap := scopes.TakeSnapshot()

	out, _ := Substitute(mustTemplate(t, "{{outer}}"), snap)
	assert.Equal(t, "{{inner}}", out, "the result of one placeholder must not be re-scanned")
}
