// Package validate implements the deterministic cross-entity consistency
// checks and the aggregation of their findings.
//
// All runs five independent passes over a data set and returns an ordered
// diagnostic list: same input, same output, byte for byte. Malformed data is
// never an error here — it becomes a diagnostic. The only hard failures are
// contract misuse by the caller.
package validate

import "github.com/christopherklint97/preflight/internal/entity"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// CollectionWide is the entityId used for findings that concern a whole
// collection rather than one record.
const CollectionWide = "all"

// Diagnostic is one structured validation finding. The JSON shape doubles as
// the interchange format with the suggestion service.
type Diagnostic struct {
	Type       string      `json:"type"`
	Severity   Severity    `json:"severity"`
	Entity     entity.Kind `json:"entity"`
	EntityID   string      `json:"entityId"`
	Field      string      `json:"field,omitempty"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Diagnostic type codes, in the order the passes emit them.
const (
	TypeMissingColumn            = "MISSING_COLUMN"
	TypeDuplicateID              = "DUPLICATE_ID"
	TypeOutOfRange               = "OUT_OF_RANGE"
	TypeInvalidDuration          = "INVALID_DURATION"
	TypeMalformedList            = "MALFORMED_LIST"
	TypeBrokenJSON               = "BROKEN_JSON"
	TypeUnknownReference         = "UNKNOWN_REFERENCE"
	TypeSkillCoverage            = "SKILL_COVERAGE"
	TypeOverloadedWorker         = "OVERLOADED_WORKER"
	TypeMaxConcurrencyInfeasible = "MAX_CONCURRENCY_INFEASIBLE"
	TypePhaseSlotSaturation      = "PHASE_SLOT_SATURATION"
	TypeRuleReference            = "RULE_REFERENCE"
)
