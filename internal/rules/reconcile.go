package rules

import (
	"encoding/json"
	"sort"
)

// Rejected is a candidate that failed structural validation during a merge.
// Rejects are reported, never silently dropped or silently repaired.
type Rejected struct {
	Rule   Rule
	Errors []string
}

// MergeResult is the outcome of folding candidates into an existing set.
type MergeResult struct {
	Rules    []Rule
	Rejected []Rejected
}

// Merge folds candidate rules into the existing set without duplication.
// Two rules are duplicates when they share a type and deep-equal parameters
// after normalizing set-valued fields. On a duplicate, a manual rule beats
// an automated one; between automated rules the higher confidence wins;
// ties keep the earliest-created. Order of the surviving set follows the
// existing set, with genuinely new candidates appended in input order.
func Merge(existing, candidates []Rule) MergeResult {
	res := MergeResult{Rules: append([]Rule(nil), existing...)}
	index := make(map[string]int, len(res.Rules))
	for i, r := range res.Rules {
		index[dedupKey(r)] = i
	}

	for _, c := range candidates {
		if errs := c.Validate(); len(errs) > 0 {
			res.Rejected = append(res.Rejected, Rejected{Rule: c, Errors: errs})
			continue
		}
		key := dedupKey(c)
		i, dup := index[key]
		if !dup {
			index[key] = len(res.Rules)
			res.Rules = append(res.Rules, c)
			continue
		}
		if prefer(c, res.Rules[i]) {
			res.Rules[i] = c
		}
	}
	return res
}

// prefer reports whether candidate should replace incumbent when the two
// are duplicates.
func prefer(candidate, incumbent Rule) bool {
	cm, im := candidate.Source == SourceManual, incumbent.Source == SourceManual
	if cm != im {
		return cm
	}
	if !cm && candidate.Confidence != incumbent.Confidence {
		return candidate.Confidence > incumbent.Confidence
	}
	return candidate.CreatedAt.Before(incumbent.CreatedAt)
}

// dedupKey is the type tag plus the canonical JSON of the normalized
// parameters. encoding/json emits struct fields in declaration order, so
// equal normalized parameters always produce equal keys.
func dedupKey(r Rule) string {
	b, err := json.Marshal(normalize(r.Params))
	if err != nil {
		// Parameters are plain structs of strings, ints and bools; this
		// cannot fail for rules built through this package.
		return string(r.Type()) + "|unencodable"
	}
	return string(r.Type()) + "|" + string(b)
}

// normalize sorts the set-valued parameters. patternMatch targets are an
// ordered sequence and stay as authored.
func normalize(p Params) Params {
	switch v := p.(type) {
	case CoRun:
		tasks := append([]string(nil), v.Tasks...)
		sort.Strings(tasks)
		v.Tasks = tasks
		return v
	case PhaseWindow:
		phases := append([]int(nil), v.AllowedPhases...)
		sort.Ints(phases)
		v.AllowedPhases = phases
		return v
	default:
		return p
	}
}

// Pool holds suggestion candidates awaiting a user decision. Accepting
// removes the rule from the pool and hands it back for merging, its source
// and confidence untouched. Discarding only ever touches the pool.
type Pool struct {
	pending []Rule
}

func NewPool(rs ...Rule) *Pool {
	return &Pool{pending: append([]Rule(nil), rs...)}
}

// Add queues candidates, skipping IDs already pending so a re-run of the
// suggestion service does not re-offer what the user is still looking at.
func (p *Pool) Add(rs ...Rule) {
	for _, r := range rs {
		if p.find(r.ID) >= 0 {
			continue
		}
		p.pending = append(p.pending, r)
	}
}

func (p *Pool) Pending() []Rule {
	return append([]Rule(nil), p.pending...)
}

// Accept removes the rule from the pool and returns it for the caller to
// merge into the authoritative set.
func (p *Pool) Accept(id string) (Rule, bool) {
	i := p.find(id)
	if i < 0 {
		return Rule{}, false
	}
	r := p.pending[i]
	p.pending = append(p.pending[:i], p.pending[i+1:]...)
	return r, true
}

// Discard drops a pending suggestion. The authoritative rule set is never
// involved.
func (p *Pool) Discard(id string) bool {
	i := p.find(id)
	if i < 0 {
		return false
	}
	p.pending = append(p.pending[:i], p.pending[i+1:]...)
	return true
}

func (p *Pool) find(id string) int {
	for i, r := range p.pending {
		if r.ID == id {
			return i
		}
	}
	return -1
}
