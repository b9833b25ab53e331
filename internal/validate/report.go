package validate

import "github.com/christopherklint97/preflight/internal/entity"

// Group is the diagnostics sharing one type code, in encounter order.
type Group struct {
	Type        string       `json:"type"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Summary carries the counts shown next to a report. Fixable counts the
// diagnostics that carry a non-empty suggestion.
type Summary struct {
	Total    int                 `json:"total"`
	Errors   int                 `json:"errors"`
	Warnings int                 `json:"warnings"`
	ByEntity map[entity.Kind]int `json:"byEntity"`
	Fixable  int                 `json:"fixable"`
}

// Report is an aggregated view over a diagnostic sequence. It is a pure
// function of its input: diagnostics arrive in waves (deterministic checks
// first, suggestion-service findings later) and the caller simply
// re-aggregates the full sequence each time.
type Report struct {
	all    []Diagnostic
	groups []Group
	byType map[string]int
}

// Aggregate groups diagnostics by type, keeping group order by first
// encounter and diagnostic order within each group.
func Aggregate(diags []Diagnostic) *Report {
	r := &Report{
		all:    append([]Diagnostic(nil), diags...),
		byType: map[string]int{},
	}
	for _, d := range r.all {
		idx, ok := r.byType[d.Type]
		if !ok {
			idx = len(r.groups)
			r.byType[d.Type] = idx
			r.groups = append(r.groups, Group{Type: d.Type})
		}
		r.groups[idx].Diagnostics = append(r.groups[idx].Diagnostics, d)
	}
	return r
}

func (r *Report) All() []Diagnostic { return r.all }

func (r *Report) Groups() []Group { return r.groups }

// Top returns the groups with at most n diagnostics each, for bounded
// display. GroupSize still reports the full counts.
func (r *Report) Top(n int) []Group {
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		out[i] = g
		if n >= 0 && len(g.Diagnostics) > n {
			out[i].Diagnostics = g.Diagnostics[:n]
		}
	}
	return out
}

// GroupSize returns the full diagnostic count for a type, regardless of any
// bounded view taken with Top.
func (r *Report) GroupSize(typ string) int {
	if idx, ok := r.byType[typ]; ok {
		return len(r.groups[idx].Diagnostics)
	}
	return 0
}

func (r *Report) Summary() Summary {
	s := Summary{ByEntity: map[entity.Kind]int{}}
	for _, d := range r.all {
		s.Total++
		switch d.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		}
		s.ByEntity[d.Entity]++
		if d.Suggestion != "" {
			s.Fixable++
		}
	}
	return s
}

// For returns the diagnostics attached to one record, used to annotate a
// specific cell. field == "" matches any field; collection-wide findings
// ("all") are included only when asked for explicitly via id == "all".
func (r *Report) For(kind entity.Kind, id, field string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.all {
		if d.Entity != kind || d.EntityID != id {
			continue
		}
		if field != "" && d.Field != field {
			continue
		}
		out = append(out, d)
	}
	return out
}
