package entity

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Coercion turns one loosely typed row (as produced by a CSV or JSON reader)
// into a typed record. Missing numeric fields default to 1, missing strings
// to "", missing arrays to an empty set. Numeric lists accept JSON arrays,
// comma lists ("1, 2, 3") and range notation ("1-3").

func CoerceClient(row map[string]any) Client {
	c := Client{
		ClientID:         coerceString(row["ClientID"]),
		ClientName:       coerceString(row["ClientName"]),
		PriorityLevel:    coerceInt(row["PriorityLevel"], 1),
		RequestedTaskIDs: coerceStringList(row["RequestedTaskIDs"]),
		GroupTag:         coerceString(row["GroupTag"]),
	}
	c.AttributesJSON, c.RawAttributes = coerceAttributes(row["AttributesJSON"])
	if c.RawAttributes == "" {
		if s, ok := row["RawAttributes"].(string); ok {
			c.RawAttributes = s
			c.AttributesJSON = nil
		}
	}
	return c
}

func CoerceWorker(row map[string]any) Worker {
	w := Worker{
		WorkerID:           coerceString(row["WorkerID"]),
		WorkerName:         coerceString(row["WorkerName"]),
		Skills:             coerceStringList(row["Skills"]),
		MaxLoadPerPhase:    coerceInt(row["MaxLoadPerPhase"], 1),
		WorkerGroup:        coerceString(row["WorkerGroup"]),
		QualificationLevel: coerceInt(row["QualificationLevel"], 1),
	}
	w.AvailableSlots, w.RawAvailableSlots = coerceIntList(row["AvailableSlots"])
	if w.RawAvailableSlots == "" {
		if s, ok := row["RawAvailableSlots"].(string); ok {
			w.RawAvailableSlots = s
		}
	}
	return w
}

func CoerceTask(row map[string]any) Task {
	t := Task{
		TaskID:         coerceString(row["TaskID"]),
		TaskName:       coerceString(row["TaskName"]),
		Category:       coerceString(row["Category"]),
		Duration:       coerceInt(row["Duration"], 1),
		RequiredSkills: coerceStringList(row["RequiredSkills"]),
		MaxConcurrent:  coerceInt(row["MaxConcurrent"], 1),
	}
	t.PreferredPhases, _ = coerceIntList(row["PreferredPhases"])
	if t.PreferredPhases == nil {
		t.PreferredPhases = []int{}
	}
	return t
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// coerceInt mirrors the permissive numeric handling of the source rows:
// anything unparseable, absent or zero falls back to the default.
func coerceInt(v any, def int) int {
	n := 0
	switch x := v.(type) {
	case float64:
		n = int(x)
	case int:
		n = x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			n = int(f)
		}
	}
	if n == 0 {
		return def
	}
	return n
}

func coerceStringList(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, coerceString(e))
		}
		return out
	case []string:
		return append([]string{}, x...)
	case string:
		out := []string{}
		for _, part := range strings.Split(x, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{}
	}
}

var rangePattern = regexp.MustCompile(`^\d+-\d+$`)

// coerceIntList reads a numeric list. The second return value carries the
// original text when the input was not a list (slots nil) or when some list
// elements were non-numeric and got dropped (slots non-nil).
func coerceIntList(v any) ([]int, string) {
	switch x := v.(type) {
	case nil:
		return []int{}, ""
	case []any:
		out := []int{}
		dropped := false
		for _, e := range x {
			switch n := e.(type) {
			case float64:
				out = append(out, int(n))
			case int:
				out = append(out, n)
			default:
				dropped = true
			}
		}
		if dropped {
			b, _ := json.Marshal(x)
			return out, string(b)
		}
		return out, ""
	case []int:
		return append([]int{}, x...), ""
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return []int{}, ""
		}
		if rangePattern.MatchString(s) {
			return expandRange(s), ""
		}
		// Bracketed text is a JSON array serialized into a cell, the very
		// format the malformed-list suggestion recommends. Decode it before
		// falling back to comma splitting, which would mangle the brackets.
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			var arr []any
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return nil, s
			}
			out, raw := coerceIntList(arr)
			if raw != "" {
				raw = s
			}
			return out, raw
		}
		out := []int{}
		dropped := false
		for _, part := range strings.Split(s, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			if f, err := strconv.ParseFloat(p, 64); err == nil {
				out = append(out, int(f))
			} else {
				dropped = true
			}
		}
		if dropped {
			return out, s
		}
		return out, ""
	default:
		b, _ := json.Marshal(v)
		return nil, string(b)
	}
}

// expandRange turns "1-3" into [1 2 3]. A reversed range yields nothing.
func expandRange(s string) []int {
	parts := strings.SplitN(s, "-", 2)
	start, _ := strconv.Atoi(parts[0])
	end, _ := strconv.Atoi(parts[1])
	out := []int{}
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

func coerceAttributes(v any) (map[string]any, string) {
	switch x := v.(type) {
	case nil:
		return map[string]any{}, ""
	case map[string]any:
		return x, ""
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return map[string]any{}, ""
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, s
		}
		return m, ""
	default:
		return map[string]any{}, ""
	}
}
