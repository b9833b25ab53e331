package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/validate"
)

func TestDecodeFindingsFiltersBadEntries(t *testing.T) {
	raw := `{"findings":[
		{"type":"BOTTLENECK","severity":"warning","entity":"worker","entityId":"W1","message":"phase 3 looks tight"},
		{"type":"X","severity":"error","entity":"spaceship","entityId":"S1","message":"nope"},
		{"type":"X","severity":"error","entity":"client","entityId":"C1","message":""},
		{"type":"ODD","severity":"critical","entity":"task","entityId":"","message":"strange"}
	]}`

	findings, err := decodeFindings(raw)
	require.NoError(t, err)
	require.Len(t, findings, 2, "unknown entities and empty messages are dropped")

	assert.Equal(t, "W1", findings[0].EntityID)
	assert.Equal(t, validate.SeverityWarning, findings[1].Severity, "unknown severity degrades to warning")
	assert.Equal(t, validate.CollectionWide, findings[1].EntityID, "missing entityId becomes collection-wide")
}

func TestDecodeFindingsMalformedResponse(t *testing.T) {
	_, err := decodeFindings(`{"findings": "lots of them"}`)
	assert.Error(t, err, "a malformed response is an error, not a panic")
}

func TestDecodeRuleSpecs(t *testing.T) {
	raw := `{"suggestions":[
		{"type":"coRun","parameters":{"tasks":["T1","T2"]},"description":"together","confidence":0.8},
		{"type":"teleport","parameters":{},"description":"nope","confidence":0.9},
		{"type":"loadLimit","parameters":{"group":"Dev","maxSlotsPerPhase":2},"confidence":7}
	]}`

	got, errs := decodeRuleSpecs(raw, rules.SourceAISuggested)
	require.Len(t, got, 2)
	require.Len(t, errs, 1, "the unknown type is reported, not silently dropped")

	assert.Equal(t, rules.TypeCoRun, got[0].Type())
	assert.Equal(t, rules.SourceAISuggested, got[0].Source)
	assert.InDelta(t, 0.5, got[1].Confidence, 1e-9, "out-of-range confidence falls back to 0.5")
	assert.Equal(t, "AI-generated rule", got[1].Description)
}

func TestDecodeRuleRejectsStructurallyInvalid(t *testing.T) {
	_, err := decodeRule(`{"type":"coRun","parameters":{"tasks":["T1"]},"description":"just one"}`, rules.SourceNaturalLanguage)
	assert.Error(t, err, "a converted rule failing parameter validation is refused")

	r, err := decodeRule(`{"type":"precedence","parameters":{"before":"T1","after":"T2"},"description":"order"}`, rules.SourceNaturalLanguage)
	require.NoError(t, err)
	assert.Equal(t, rules.SourceNaturalLanguage, r.Source)
}

func TestDecodeSearchConfig(t *testing.T) {
	cfg, err := decodeSearchConfig(`{"entityType":"workers","filter":{"field":"WorkerGroup","operator":"equals","value":"Development"},"explanation":"dev workers"}`)
	require.NoError(t, err)
	assert.Equal(t, "workers", cfg.EntityType)

	_, err = decodeSearchConfig(`{"entityType":"projects","filter":{"field":"x","operator":"equals","value":1}}`)
	assert.Error(t, err)

	_, err = decodeSearchConfig(`{"entityType":"tasks","filter":{"field":"Duration","operator":"approximately","value":1}}`)
	assert.Error(t, err)
}

func TestDecodeCorrection(t *testing.T) {
	c, err := decodeCorrection(`{"field":"PriorityLevel","newValue":3,"explanation":"clamp into range"}`)
	require.NoError(t, err)
	assert.Equal(t, "PriorityLevel", c.Field)

	_, err = decodeCorrection(`{"field":"","newValue":3}`)
	assert.Error(t, err)
	_, err = decodeCorrection(`{"field":"PriorityLevel"}`)
	assert.Error(t, err)
}

func TestApplyFilterOperators(t *testing.T) {
	ds := entity.SampleDataSet()

	equalsCfg := SearchConfig{EntityType: "workers", Filter: Filter{Field: "WorkerGroup", Operator: "equals", Value: "Development"}}
	rows, err := ApplyFilter(ds, equalsCfg)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "W001", rows[0]["WorkerID"])

	containsCfg := SearchConfig{EntityType: "workers", Filter: Filter{Field: "Skills", Operator: "contains", Value: "Python"}}
	rows, err = ApplyFilter(ds, containsCfg)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "W002", rows[0]["WorkerID"])

	greaterCfg := SearchConfig{EntityType: "clients", Filter: Filter{Field: "PriorityLevel", Operator: "greater", Value: float64(4)}}
	rows, err = ApplyFilter(ds, greaterCfg)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C001", rows[0]["ClientID"])

	lessCfg := SearchConfig{EntityType: "tasks", Filter: Filter{Field: "Duration", Operator: "less", Value: float64(2)}}
	rows, err = ApplyFilter(ds, lessCfg)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "T002", rows[0]["TaskID"])

	inCfg := SearchConfig{EntityType: "tasks", Filter: Filter{Field: "TaskID", Operator: "in", Value: []any{"T001", "T003"}}}
	rows, err = ApplyFilter(ds, inCfg)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ApplyFilter(ds, SearchConfig{EntityType: "projects"})
	assert.Error(t, err)
}
