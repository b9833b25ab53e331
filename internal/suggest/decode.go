package suggest

import (
	"encoding/json"
	"fmt"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/validate"
)

// Wire shapes for the structured responses. The service is asked to emit
// exactly these; decoding still treats every field as optional and every
// entry as suspect.

type findingsPayload struct {
	Findings []validate.Diagnostic `json:"findings"`
}

type rulesPayload struct {
	Suggestions []ruleSpec `json:"suggestions"`
}

type ruleSpec struct {
	Type        string         `json:"type"`
	Parameters  map[string]any `json:"parameters"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
}

// decodeFindings validates the shape of service-sourced diagnostics.
// Entries without a recognizable entity or without a message are dropped;
// an unknown severity degrades to warning rather than being trusted.
func decodeFindings(raw string) ([]validate.Diagnostic, error) {
	var payload findingsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding findings response: %w", err)
	}
	var out []validate.Diagnostic
	for _, d := range payload.Findings {
		switch d.Entity {
		case entity.KindClient, entity.KindWorker, entity.KindTask:
		default:
			continue
		}
		if d.Message == "" {
			continue
		}
		if d.Severity != validate.SeverityError && d.Severity != validate.SeverityWarning {
			d.Severity = validate.SeverityWarning
		}
		if d.Type == "" {
			d.Type = "AI_FINDING"
		}
		if d.EntityID == "" {
			d.EntityID = validate.CollectionWide
		}
		out = append(out, d)
	}
	return out, nil
}

// decodeRuleSpecs turns suggested rule specs into typed candidates. Specs
// with an unknown type or undecodable parameters are skipped and reported;
// structural validation of the survivors is left to reconciliation so the
// rejects surface there like any other candidate.
func decodeRuleSpecs(raw string, source rules.Source) ([]rules.Rule, []error) {
	var payload rulesPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, []error{fmt.Errorf("decoding rule suggestions: %w", err)}
	}
	var (
		out  []rules.Rule
		errs []error
	)
	for i, spec := range payload.Suggestions {
		conf := spec.Confidence
		if conf < 0 || conf > 1 {
			conf = 0.5
		}
		desc := spec.Description
		if desc == "" {
			desc = "AI-generated rule"
		}
		r, err := rules.FromSpec(rules.Type(spec.Type), spec.Parameters, desc, source, conf)
		if err != nil {
			errs = append(errs, fmt.Errorf("suggestion %d: %w", i, err))
			continue
		}
		out = append(out, r)
	}
	return out, errs
}

// decodeRule reads a single converted rule.
func decodeRule(raw string, source rules.Source) (rules.Rule, error) {
	var spec ruleSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return rules.Rule{}, fmt.Errorf("decoding converted rule: %w", err)
	}
	r, err := rules.FromSpec(rules.Type(spec.Type), spec.Parameters, spec.Description, source, spec.Confidence)
	if err != nil {
		return rules.Rule{}, err
	}
	if errs := r.Validate(); len(errs) > 0 {
		return rules.Rule{}, fmt.Errorf("converted rule is structurally invalid: %v", errs)
	}
	return r, nil
}

func decodeSearchConfig(raw string) (SearchConfig, error) {
	var cfg SearchConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("decoding search config: %w", err)
	}
	switch cfg.EntityType {
	case "clients", "workers", "tasks":
	default:
		return SearchConfig{}, fmt.Errorf("search config names unknown entity type %q", cfg.EntityType)
	}
	if cfg.Filter.Field == "" {
		return SearchConfig{}, fmt.Errorf("search config has no filter field")
	}
	switch cfg.Filter.Operator {
	case "equals", "contains", "greater", "less", "in":
	default:
		return SearchConfig{}, fmt.Errorf("search config has unknown operator %q", cfg.Filter.Operator)
	}
	return cfg, nil
}

func decodeCorrection(raw string) (Correction, error) {
	var c Correction
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Correction{}, fmt.Errorf("decoding correction: %w", err)
	}
	if c.Field == "" {
		return Correction{}, fmt.Errorf("correction has no field")
	}
	if c.NewValue == nil {
		return Correction{}, fmt.Errorf("correction has no value")
	}
	return c, nil
}
