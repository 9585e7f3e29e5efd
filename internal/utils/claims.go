package utils

import (
	"encoding/json"
	"strconv"
)

// ClaimStrings flattens a decoded JSON claim into strings. It accepts a single
// string, a list of strings, or a list of {"authority": "..."} objects.
func ClaimStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				for _, key := range []string{"authority", "name"} {
					if s, ok := it[key].(string); ok && s != "" {
						out = append(out, s)
						break
					}
				}
			}
		}
		return out
	}
	return nil
}

// ClaimInt64 reads a numeric claim that may have been decoded as a float, a json.Number or a string.
func ClaimInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}
