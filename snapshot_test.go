package dothttp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	scopes := NewScopes()
	scopes.Set(ScopeGlobal, "token", "abc123")
	scopes.Set(ScopeGlobal, "count", float64(7))

	require.NoError(t, WriteSnapshot(path, scopes))

	fresh := NewScopes()
	require.NoError(t, LoadSnapshot(path, fresh))

	v, ok := fresh.Get(ScopeGlobal, "token")
	require.True(t, ok)
	assert.Equal(t, "abc123", v)

	v, ok = fresh.Get(ScopeGlobal, "count")
	require.True(t, ok)
	assert.Equal(t, float64(7), v)
}

func TestLoadSnapshot_MissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	scopes := NewScopes()
	err := LoadSnapshot(filepath.Join(dir, "does-not-exist.json"), scopes)
	assert.NoError(t, err)
	assert.True(t, scopes.IsEmpty(ScopeGlobal))
}

func TestLoadEnvironment_SelectsKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.json")
	writeFile(t, path, `{
		"dev": {"host": "https://dev.example.com"},
		"prod": {"host": "https://prod.example.com"}
	}`)

	scopes := NewScopes()
	require.NoError(t, LoadEnvironment(path, "prod", scopes))

	v, ok := scopes.Get(ScopeEnv, "host")
	require.True(t, ok)
	assert.Equal(t, "https://prod.example.com", v)
}

func TestLoadEnvironment_UnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.json")
	writeFile(t, path, `{"dev": {"host": "https://dev.example.com"}}`)

	scopes := NewScopes()
	err := LoadEnvironment(path, "staging", scopes)
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
