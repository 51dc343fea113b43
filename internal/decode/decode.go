// Package decode probes loosely shaped server payloads.
//
// VMS builds disagree on field names, so callers pass an explicit, ordered
// list of candidate paths ("total", "summary.total", ...) and take the first
// one that is present and converts to the wanted type.
package decode

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Lookup resolves a dotted path inside nested objects.
func Lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Object returns the nested object at path.
func Object(m map[string]any, path string) (map[string]any, bool) {
	v, ok := Lookup(m, path)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// Int returns the first candidate that converts to an integer. Numeric
// strings are accepted, booleans are not.
func Int(m map[string]any, paths ...string) (int, bool) {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		if n, ok := ToInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

// ToInt converts a single decoded JSON value.
func ToInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		// Decimal only: "010" is ten, not an octal literal.
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the first candidate holding a non-blank string.
func String(m map[string]any, paths ...string) (string, bool) {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// Pick returns the first candidate that is present and not a blank string,
// whatever its type.
func Pick(m map[string]any, paths ...string) (any, bool) {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// ToBool understands real booleans and the usual textual spellings.
func ToBool(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	}
	switch strings.ToLower(strings.TrimSpace(cast.ToString(v))) {
	case "true", "1", "yes", "y", "on":
		return true, true
	case "false", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}

// Bool returns the first candidate that converts to a boolean.
func Bool(m map[string]any, paths ...string) (bool, bool) {
	v, ok := Pick(m, paths...)
	if !ok {
		return false, false
	}
	return ToBool(v)
}
