package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/christopherklint97/preflight/internal/entity"
)

// ApplyFilter runs a derived search filter over the named collection. Rows
// are matched as loose maps so the filter can address any field, the same
// way the coercion layer reads them.
func ApplyFilter(ds entity.DataSet, cfg SearchConfig) ([]map[string]any, error) {
	var src any
	switch cfg.EntityType {
	case "clients":
		src = ds.Clients
	case "workers":
		src = ds.Workers
	case "tasks":
		src = ds.Tasks
	default:
		return nil, fmt.Errorf("unknown entity type %q", cfg.EntityType)
	}

	b, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", cfg.EntityType, err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cfg.EntityType, err)
	}

	var out []map[string]any
	for _, row := range rows {
		if matches(row[cfg.Filter.Field], cfg.Filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func matches(value any, f Filter) bool {
	switch f.Operator {
	case "equals":
		return stringify(value) == stringify(f.Value)
	case "contains":
		if list, ok := value.([]any); ok {
			for _, e := range list {
				if stringify(e) == stringify(f.Value) {
					return true
				}
			}
			return false
		}
		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(stringify(f.Value)),
		)
	case "greater":
		a, aok := numeric(value)
		b, bok := numeric(f.Value)
		return aok && bok && a > b
	case "less":
		a, aok := numeric(value)
		b, bok := numeric(f.Value)
		return aok && bok && a < b
	case "in":
		list, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, e := range list {
			if stringify(value) == stringify(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
