package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRule(t *testing.T, p Params, source Source, confidence float64, created time.Time) Rule {
	t.Helper()
	r, err := New(p.Type(), source)
	require.NoError(t, err)
	r.Params = p
	r.Confidence = confidence
	r.CreatedAt = created
	return r
}

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestMergeAppendsNewRules(t *testing.T) {
	existing := []Rule{mkRule(t, CoRun{Tasks: []string{"T1", "T2"}}, SourceManual, 0, t0)}
	candidate := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 2}, SourceAISuggested, 0.7, t0.Add(time.Hour))

	res := Merge(existing, []Rule{candidate})
	require.Len(t, res.Rules, 2)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, TypeCoRun, res.Rules[0].Type(), "existing order preserved")
	assert.Equal(t, TypeLoadLimit, res.Rules[1].Type())
}

func TestMergeIsIdempotent(t *testing.T) {
	candidate := mkRule(t, PhaseWindow{TaskID: "T1", AllowedPhases: []int{1, 2}}, SourceAISuggested, 0.6, t0)

	once := Merge(nil, []Rule{candidate})
	twice := Merge(once.Rules, []Rule{candidate})
	assert.Len(t, twice.Rules, len(once.Rules), "merging the same candidate twice must not grow the set")
}

func TestMergeManualBeatsAutomated(t *testing.T) {
	manual := mkRule(t, CoRun{Tasks: []string{"T1", "T2"}}, SourceManual, 0, t0)
	ai := mkRule(t, CoRun{Tasks: []string{"T1", "T2"}}, SourceAISuggested, 0.99, t0.Add(-time.Hour))

	res := Merge([]Rule{manual}, []Rule{ai})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, SourceManual, res.Rules[0].Source)

	// And the other way around: a manual candidate displaces an automated
	// incumbent.
	res = Merge([]Rule{ai}, []Rule{manual})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, SourceManual, res.Rules[0].Source)
}

func TestMergeHigherConfidenceWinsAmongAutomated(t *testing.T) {
	low := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 2}, SourceAISuggested, 0.4, t0)
	high := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 2}, SourceNaturalLanguage, 0.8, t0.Add(time.Hour))

	res := Merge([]Rule{low}, []Rule{high})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, high.ID, res.Rules[0].ID)
}

func TestMergeTieKeepsEarliestCreated(t *testing.T) {
	older := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 2}, SourceAISuggested, 0.5, t0)
	newer := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 2}, SourceAISuggested, 0.5, t0.Add(time.Hour))

	res := Merge([]Rule{older}, []Rule{newer})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, older.ID, res.Rules[0].ID)

	res = Merge([]Rule{newer}, []Rule{older})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, older.ID, res.Rules[0].ID)
}

func TestMergeNormalizesSetParameters(t *testing.T) {
	a := mkRule(t, CoRun{Tasks: []string{"T2", "T1"}}, SourceAISuggested, 0.5, t0)
	b := mkRule(t, CoRun{Tasks: []string{"T1", "T2"}}, SourceAISuggested, 0.5, t0.Add(time.Minute))

	res := Merge([]Rule{a}, []Rule{b})
	assert.Len(t, res.Rules, 1, "task order must not defeat duplicate detection")
}

func TestMergeRejectsInvalidCandidates(t *testing.T) {
	bad := mkRule(t, CoRun{Tasks: []string{"T1"}}, SourceAISuggested, 0.9, t0)

	res := Merge(nil, []Rule{bad})
	assert.Empty(t, res.Rules)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, bad.ID, res.Rejected[0].Rule.ID)
	assert.NotEmpty(t, res.Rejected[0].Errors, "rejects carry their reasons")
}

func TestPoolAcceptAndDiscard(t *testing.T) {
	a := mkRule(t, CoRun{Tasks: []string{"T1", "T2"}}, SourceAISuggested, 0.6, t0)
	b := mkRule(t, LoadLimit{Group: "Dev", MaxSlotsPerPhase: 1}, SourceAISuggested, 0.7, t0)

	pool := NewPool(a, b)
	pool.Add(a) // re-offering the same suggestion is a no-op
	assert.Len(t, pool.Pending(), 2)

	got, ok := pool.Accept(a.ID)
	require.True(t, ok)
	assert.Equal(t, SourceAISuggested, got.Source, "accepting promotes the rule unchanged")
	assert.Len(t, pool.Pending(), 1)

	_, ok = pool.Accept(a.ID)
	assert.False(t, ok, "accepted suggestions are not re-offered")

	assert.True(t, pool.Discard(b.ID))
	assert.Empty(t, pool.Pending())
	assert.False(t, pool.Discard(b.ID))
}
