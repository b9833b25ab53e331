// Package rules models the typed allocation constraints and the
// reconciliation of rule candidates arriving from different sources.
//
// The rule kinds form a closed set: every parameter variant implements the
// sealed Params interface, so a switch over the concrete types covers all
// rules there are. Structural self-validation lives here; checking a rule's
// entity references against live data is the validator's job.
package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Source is the provenance of a rule, used to break ties when reconciling.
type Source string

const (
	SourceManual          Source = "manual"
	SourceNaturalLanguage Source = "natural-language"
	SourceAISuggested     Source = "ai-suggested"
)

type Type string

const (
	TypeCoRun           Type = "coRun"
	TypeSlotRestriction Type = "slotRestriction"
	TypeLoadLimit       Type = "loadLimit"
	TypePhaseWindow     Type = "phaseWindow"
	TypePrecedence      Type = "precedence"
	TypePatternMatch    Type = "patternMatch"
)

// Params is the sealed parameter union. Validate returns structural
// problems; a rule with a non-empty result must never enter the rule set.
type Params interface {
	Type() Type
	Validate() []string

	sealed()
}

type CoRun struct {
	Tasks  []string `json:"tasks"`
	Strict bool     `json:"strict,omitempty"`
}

func (CoRun) Type() Type { return TypeCoRun }
func (CoRun) sealed()    {}

func (p CoRun) Validate() []string {
	var errs []string
	if len(p.Tasks) < 2 {
		errs = append(errs, "coRun needs at least 2 tasks")
	}
	seen := map[string]bool{}
	for _, t := range p.Tasks {
		if t == "" {
			errs = append(errs, "coRun tasks must not be empty")
			break
		}
		if seen[t] {
			errs = append(errs, fmt.Sprintf("coRun lists task %s twice", t))
			break
		}
		seen[t] = true
	}
	return errs
}

type SlotRestriction struct {
	Group          string `json:"group"`
	GroupType      string `json:"groupType"`
	MinCommonSlots int    `json:"minCommonSlots"`
}

func (SlotRestriction) Type() Type { return TypeSlotRestriction }
func (SlotRestriction) sealed()    {}

func (p SlotRestriction) Validate() []string {
	var errs []string
	if p.Group == "" {
		errs = append(errs, "slotRestriction needs a group")
	}
	if p.GroupType != "client" && p.GroupType != "worker" {
		errs = append(errs, fmt.Sprintf("slotRestriction groupType must be client or worker, got %q", p.GroupType))
	}
	if p.MinCommonSlots < 1 {
		errs = append(errs, "slotRestriction minCommonSlots must be >= 1")
	}
	return errs
}

type LoadLimit struct {
	Group            string `json:"group"`
	MaxSlotsPerPhase int    `json:"maxSlotsPerPhase"`
}

func (LoadLimit) Type() Type { return TypeLoadLimit }
func (LoadLimit) sealed()    {}

func (p LoadLimit) Validate() []string {
	var errs []string
	if p.Group == "" {
		errs = append(errs, "loadLimit needs a group")
	}
	if p.MaxSlotsPerPhase < 1 {
		errs = append(errs, "loadLimit maxSlotsPerPhase must be >= 1")
	}
	return errs
}

type PhaseWindow struct {
	TaskID        string `json:"taskId"`
	AllowedPhases []int  `json:"allowedPhases"`
}

func (PhaseWindow) Type() Type { return TypePhaseWindow }
func (PhaseWindow) sealed()    {}

func (p PhaseWindow) Validate() []string {
	var errs []string
	if p.TaskID == "" {
		errs = append(errs, "phaseWindow needs a taskId")
	}
	if len(p.AllowedPhases) == 0 {
		errs = append(errs, "phaseWindow allowedPhases must not be empty")
	}
	return errs
}

type Precedence struct {
	Before string `json:"before"`
	After  string `json:"after"`
	Gap    int    `json:"gap,omitempty"`
}

func (Precedence) Type() Type { return TypePrecedence }
func (Precedence) sealed()    {}

func (p Precedence) Validate() []string {
	var errs []string
	if p.Before == "" || p.After == "" {
		errs = append(errs, "precedence needs both before and after tasks")
	}
	if p.Before != "" && p.Before == p.After {
		errs = append(errs, "precedence before and after must differ")
	}
	if p.Gap < 0 {
		errs = append(errs, "precedence gap must not be negative")
	}
	return errs
}

type PatternMatch struct {
	Pattern string   `json:"pattern"`
	Action  string   `json:"action"`
	Targets []string `json:"targets"`
}

func (PatternMatch) Type() Type { return TypePatternMatch }
func (PatternMatch) sealed()    {}

func (p PatternMatch) Validate() []string {
	var errs []string
	if p.Pattern == "" {
		errs = append(errs, "patternMatch needs a pattern")
	} else if _, err := regexp.Compile(p.Pattern); err != nil {
		errs = append(errs, fmt.Sprintf("patternMatch pattern does not compile: %v", err))
	}
	if p.Action == "" {
		errs = append(errs, "patternMatch needs an action")
	}
	return errs
}

// Rule is one constraint plus its metadata. Params is never nil on a rule
// built through this package.
type Rule struct {
	ID          string
	Description string
	CreatedAt   time.Time
	Source      Source
	Enabled     bool
	Confidence  float64
	Params      Params
}

func (r Rule) Type() Type {
	if r.Params == nil {
		return ""
	}
	return r.Params.Type()
}

// Validate returns the structural problems of the rule. Metadata problems
// and parameter problems are reported together.
func (r Rule) Validate() []string {
	var errs []string
	switch r.Source {
	case SourceManual, SourceNaturalLanguage, SourceAISuggested:
	default:
		errs = append(errs, fmt.Sprintf("unknown rule source %q", r.Source))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		errs = append(errs, fmt.Sprintf("confidence %v outside [0,1]", r.Confidence))
	}
	if r.Params == nil {
		errs = append(errs, "rule has no parameters")
		return errs
	}
	return append(errs, r.Params.Validate()...)
}

// New builds a rule of the requested type with empty, type-appropriate
// parameters, ready for the caller to fill in.
func New(t Type, source Source) (Rule, error) {
	var p Params
	switch t {
	case TypeCoRun:
		p = CoRun{Tasks: []string{}}
	case TypeSlotRestriction:
		p = SlotRestriction{GroupType: "worker", MinCommonSlots: 1}
	case TypeLoadLimit:
		p = LoadLimit{MaxSlotsPerPhase: 1}
	case TypePhaseWindow:
		p = PhaseWindow{AllowedPhases: []int{}}
	case TypePrecedence:
		p = Precedence{}
	case TypePatternMatch:
		p = PatternMatch{Targets: []string{}}
	default:
		return Rule{}, fmt.Errorf("unknown rule type %q", t)
	}
	return Rule{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Enabled:   true,
		Params:    p,
	}, nil
}

// FromSpec builds a rule from an untrusted type tag and loose parameter
// map, as delivered by the suggestion service or a natural-language
// conversion. The parameters are decoded into the typed variant for the
// declared type; unknown types and undecodable parameters are errors, and
// structural validation is still the caller's responsibility.
func FromSpec(t Type, params map[string]any, description string, source Source, confidence float64) (Rule, error) {
	r, err := New(t, source)
	if err != nil {
		return Rule{}, err
	}
	b, err := json.Marshal(params)
	if err != nil {
		return Rule{}, fmt.Errorf("encoding parameters: %w", err)
	}
	p, err := decodeParams(t, b)
	if err != nil {
		return Rule{}, err
	}
	r.Params = p
	r.Description = description
	r.Confidence = confidence
	return r, nil
}

func decodeParams(t Type, b []byte) (Params, error) {
	switch t {
	case TypeCoRun:
		var v CoRun
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	case TypeSlotRestriction:
		var v SlotRestriction
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	case TypeLoadLimit:
		var v LoadLimit
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	case TypePhaseWindow:
		var v PhaseWindow
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	case TypePrecedence:
		var v Precedence
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	case TypePatternMatch:
		var v PatternMatch
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s parameters: %w", t, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", t)
	}
}
