// Package suggest talks to the AI suggestion service: extra validation
// findings, candidate rules, natural-language rule conversion, search
// filters and correction proposals.
//
// Everything coming back is untrusted candidate input. Responses are
// decoded defensively against the expected shapes; a malformed response
// degrades to zero suggestions with the failure reported to the caller,
// never a crash, and accepted candidates still pass the same structural
// validation as manually authored ones.
package suggest

import (
	"context"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/validate"
)

type Provider interface {
	// ValidateData asks for findings beyond the deterministic checks.
	ValidateData(ctx context.Context, ds entity.DataSet) ([]validate.Diagnostic, error)

	// SuggestRules asks for candidate rules based on patterns in the data.
	SuggestRules(ctx context.Context, ds entity.DataSet) ([]rules.Rule, error)

	// ConvertRule turns a natural-language constraint into a typed rule.
	ConvertRule(ctx context.Context, input string) (rules.Rule, error)

	// Search turns a natural-language query into a filter and applies it.
	Search(ctx context.Context, query string, ds entity.DataSet) (SearchResult, error)

	// SuggestCorrection proposes a concrete field edit for a diagnostic.
	SuggestCorrection(ctx context.Context, d validate.Diagnostic) (Correction, error)
}

// SearchConfig is the typed filter the service derives from a query.
type SearchConfig struct {
	EntityType  string `json:"entityType"`
	Filter      Filter `json:"filter"`
	Explanation string `json:"explanation"`
}

type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"` // equals, contains, greater, less, in
	Value    any    `json:"value"`
}

// SearchResult pairs the derived filter with the matching records, so the
// caller can show how the query was interpreted.
type SearchResult struct {
	Config  SearchConfig
	Matches []map[string]any
}

// Correction is a proposed single-field fix for a validation finding. The
// caller applies it through the entity layer, which re-coerces the value.
type Correction struct {
	Field       string `json:"field"`
	NewValue    any    `json:"newValue"`
	Explanation string `json:"explanation"`
}
