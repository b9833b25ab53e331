package rules

import (
	"encoding/json"
	"fmt"
	"time"
)

// ruleJSON is the interchange shape: type and parameters always travel
// together, keyed by the type tag. Provenance metadata is retained so a
// persisted rule set round-trips the reconciliation inputs.
type ruleJSON struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	Source      Source          `json:"source,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Params == nil {
		return nil, fmt.Errorf("rule %s has no parameters", r.ID)
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return nil, fmt.Errorf("encoding %s parameters: %w", r.Type(), err)
	}
	enabled := r.Enabled
	return json.Marshal(ruleJSON{
		ID:          r.ID,
		Type:        r.Type(),
		Parameters:  params,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		Source:      r.Source,
		Enabled:     &enabled,
		Confidence:  r.Confidence,
	})
}

func (r *Rule) UnmarshalJSON(b []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	params, err := decodeParams(raw.Type, raw.Parameters)
	if err != nil {
		return err
	}
	r.ID = raw.ID
	r.Description = raw.Description
	r.CreatedAt = raw.CreatedAt
	r.Source = raw.Source
	r.Confidence = raw.Confidence
	r.Params = params
	// Absent means enabled, matching the authoring default.
	r.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}
