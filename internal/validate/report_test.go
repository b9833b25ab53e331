package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/preflight/internal/entity"
)

func sampleDiags() []Diagnostic {
	return []Diagnostic{
		{Type: TypeDuplicateID, Severity: SeverityError, Entity: entity.KindClient, EntityID: "C2", Field: "ClientID", Message: "dup", Suggestion: "rename"},
		{Type: TypeSkillCoverage, Severity: SeverityWarning, Entity: entity.KindTask, EntityID: "T1", Field: "RequiredSkills", Message: "no cobol"},
		{Type: TypeDuplicateID, Severity: SeverityError, Entity: entity.KindWorker, EntityID: "W2", Field: "WorkerID", Message: "dup", Suggestion: "rename"},
		{Type: TypeSkillCoverage, Severity: SeverityWarning, Entity: entity.KindTask, EntityID: "T1", Field: "RequiredSkills", Message: "no fortran"},
		{Type: TypeSkillCoverage, Severity: SeverityWarning, Entity: entity.KindTask, EntityID: "T2", Field: "RequiredSkills", Message: "no latin"},
	}
}

func TestAggregateGroupsStably(t *testing.T) {
	r := Aggregate(sampleDiags())
	groups := r.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, TypeDuplicateID, groups[0].Type, "group order follows first encounter")
	assert.Equal(t, TypeSkillCoverage, groups[1].Type)
	assert.Equal(t, "no cobol", groups[1].Diagnostics[0].Message, "insertion order kept within a group")
	assert.Equal(t, "no latin", groups[1].Diagnostics[2].Message)
}

func TestSummaryCounts(t *testing.T) {
	s := Aggregate(sampleDiags()).Summary()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Errors)
	assert.Equal(t, 3, s.Warnings)
	assert.Equal(t, 2, s.Fixable)
	assert.Equal(t, 1, s.ByEntity[entity.KindClient])
	assert.Equal(t, 1, s.ByEntity[entity.KindWorker])
	assert.Equal(t, 3, s.ByEntity[entity.KindTask])
}

func TestTopBoundsViewWithoutLosingCounts(t *testing.T) {
	r := Aggregate(sampleDiags())
	top := r.Top(1)
	require.Len(t, top, 2)
	assert.Len(t, top[0].Diagnostics, 1)
	assert.Len(t, top[1].Diagnostics, 1)
	assert.Equal(t, 3, r.GroupSize(TypeSkillCoverage), "full count survives the bounded view")
	assert.Len(t, r.Groups()[1].Diagnostics, 3, "underlying groups untouched")
}

func TestForLookup(t *testing.T) {
	r := Aggregate(sampleDiags())

	hits := r.For(entity.KindTask, "T1", "RequiredSkills")
	assert.Len(t, hits, 2)

	assert.Empty(t, r.For(entity.KindTask, "T1", "Duration"))
	assert.Len(t, r.For(entity.KindTask, "T1", ""), 2, "empty field matches any field")
	assert.Empty(t, r.For(entity.KindClient, "C9", ""))
}

func TestTwoWaveAggregationIsIdempotent(t *testing.T) {
	det := sampleDiags()
	suggested := []Diagnostic{
		{Type: "AI_BOTTLENECK", Severity: SeverityWarning, Entity: entity.KindWorker, EntityID: "W1", Message: "looks tight"},
	}

	first := Aggregate(det)
	second := Aggregate(append(append([]Diagnostic{}, det...), suggested...))

	// The second wave extends, never reshuffles: deterministic findings keep
	// their groups and order.
	assert.Equal(t, first.Groups()[0], second.Groups()[0])
	assert.Equal(t, first.Groups()[1], second.Groups()[1])
	assert.Equal(t, first.Summary().Total+1, second.Summary().Total)

	// Re-aggregating the same sequence is a no-op.
	again := Aggregate(second.All())
	assert.Equal(t, second.Groups(), again.Groups())
	assert.Equal(t, second.Summary(), again.Summary())
}
