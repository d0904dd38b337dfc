package dothttp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadSnapshot reads the global-scope snapshot file at path into scopes. A
// missing file is not an error — a first run has nothing to load (spec
// §4.H, §6).
func LoadSnapshot(path string, scopes *Scopes) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	if err := scopes.LoadGlobal(data); err != nil {
		return fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return nil
}

// WriteSnapshot persists the global scope to path atomically: write to a
// temp file in the same directory, then rename over the destination (spec
// §4.H), so a crash mid-write never leaves a truncated snapshot.
func WriteSnapshot(path string, scopes *Scopes) error {
	data, err := scopes.SnapshotGlobal()
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// environmentFile is the top-level shape of a `-n/--environment-file` JSON
// document: env_key -> { var: value }.
type environmentFile map[string]map[string]json.RawMessage

// LoadEnvironment reads an environment file and loads the named key's
// variables into scopes' env scope. An empty key loads nothing (spec §6's
// "-e default: none").
func LoadEnvironment(path, key string, scopes *Scopes) error {
	if path == "" || key == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("environment: read %s: %w", path, err)
	}
	var envs environmentFile
	if err := json.Unmarshal(data, &envs); err != nil {
		return fmt.Errorf("environment: decode %s: %w", path, err)
	}
	raw, ok := envs[key]
	if !ok {
		return fmt.Errorf("environment: key %q not found in %s", key, path)
	}

	values := make(map[string]any, len(raw))
	for name, rawValue := range raw {
		var v any
		if err := json.Unmarshal(rawValue, &v); err != nil {
			return fmt.Errorf("environment: decode value %q: %w", name, err)
		}
		values[name] = v
	}
	scopes.LoadEnv(values)
	return nil
}

// ExportEnvironmentKeys lists the env_key names present in an environment
// file, for the `export-environment` subcommand.
func ExportEnvironmentKeys(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("environment: read %s: %w", path, err)
	}
	var envs environmentFile
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("environment: decode %s: %w", path, err)
	}
	keys := make([]string, 0, len(envs))
	for k := range envs {
		keys = append(keys, k)
	}
	return keys, nil
}
