package dothttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Warning is a non-fatal condition surfaced during substitution — spec §7
// classifies this as MissingVariable.
type Warning struct {
	Name string
}

func (w Warning) String() string {
	return fmt.Sprintf("missing variable %q, placeholder retained", w.Name)
}

// Substitute renders a Template against snap, returning the concrete string
// and any missing-variable warnings (one per distinct name, spec §4.D).
// The result of one placeholder's substitution is never re-scanned for
// further "{{...}}" — substitution is not recursive.
func Substitute(t Template, snap Snapshot) (string, []Warning) {
	if len(t.segments) == 0 {
		return t.Raw, nil
	}

	var sb strings.Builder
	var warnings []Warning
	seen := map[string]bool{}

	for _, seg := range t.segments {
		switch seg.kind {
		case segmentLiteral:
			sb.WriteString(seg.literal)
		case segmentPlaceholder:
			value, found := snap.Get(seg.ph.Name)
			if !found {
				sb.WriteString("{{" + seg.ph.Name + "}}")
				if !seen[seg.ph.Name] {
					seen[seg.ph.Name] = true
					warnings = append(warnings, Warning{Name: seg.ph.Name})
					slog.Warn("substitution: missing variable, placeholder retained", "name", seg.ph.Name)
				}
				continue
			}
			sb.WriteString(stringifyValue(value))
		}
	}
	return sb.String(), warnings
}

// stringifyValue renders a resolved JSON value as text per spec §4.D:
// strings pass through their characters unquoted; numbers/booleans use
// their JSON textual form; objects/arrays are compact JSON.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
