package dothttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Precedence(t *testing.T) {
	scopes := NewScopes()
	scopes.LoadEnv(map[string]any{"key": "env-value"})
	scopes.Set(ScopeGlobal, "key", "global-value")
	scopes.Set(ScopeRequest, "key", "request-value")

	snap := scopes.TakeSnapshot()
	v, found := snap.Get("key")
	require.True(t, found)
	assert.Equal(t, "request-value", v)

	scopes.Unset(ScopeRequest, "key")
	snap = scopes.TakeSnapshot()
	v, found = snap.Get("key")
	require.True(t, found)
	assert.Equal(t, "global-value", v)

	scopes.Unset(ScopeGlobal, "key")
	snap = scopes.TakeSnapshot()
	v, found = snap.Get("key")
	require.True(t, found)
	assert.Equal(t, "env-value", v)

	scopes.Unset(ScopeEnv, "key")
	snap = scopes.TakeSnapshot()
	_, found = snap.Get("key")
	assert.False(t, found)
}

func TestSnapshot_DynamicFallback(t *testing.T) {
	scopes := NewScopes()
	snap := scopes.TakeSnapshot()
	v, found := snap.Get("$uuid")
	require.True(t, found)
	assert.NotEmpty(t, v)
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "token", "old")
	snap := scopes.TakeSnapshot()

	scopes.Set(ScopeGlobal, "token", "new")

	v, _ := snap.Get("token")
	assert.Equal(t, "old", v, "a snapshot taken before a write must not observe it")

	fresh := scopes.TakeSnapshot()
	v, _ = fresh.Get("token")
	assert.Equal(t, "new", v)
}

func TestScopes_ResetRequestScope(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeRequest, "a", 1)
	require.False(t, scopes.IsEmpty(ScopeRequest))

	scopes.ResetRequestScope()
	assert.True(t, scopes.IsEmpty(ScopeRequest))
}

func TestScopes_SnapshotGlobalRoundTrip(t *testing.T) {
	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "token", "abc")
	scopes.Set(ScopeGlobal, "count", float64(3))

	data, err := scopes.SnapshotGlobal()
	require.NoError(t, err)

	fresh := NewScopes()
	require.NoError(t, fresh.LoadGlobal(data))

	v, ok := fresh.Get(ScopeGlobal, "token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = fresh.Get(ScopeGlobal, "count")
	require.True(t, ok)
	assert.Equal(t, float64(3), v)
}
