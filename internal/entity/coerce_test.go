package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceClientDefaults(t *testing.T) {
	c := CoerceClient(map[string]any{})

	assert.Equal(t, "", c.ClientID)
	assert.Equal(t, "", c.ClientName)
	assert.Equal(t, 1, c.PriorityLevel)
	assert.Equal(t, []string{}, c.RequestedTaskIDs)
	assert.Equal(t, map[string]any{}, c.AttributesJSON)
	assert.Empty(t, c.RawAttributes)
}

func TestCoerceClientCommaList(t *testing.T) {
	c := CoerceClient(map[string]any{
		"ClientID":         "C1",
		"RequestedTaskIDs": "T1, T2 ,T3,",
	})
	assert.Equal(t, []string{"T1", "T2", "T3"}, c.RequestedTaskIDs)
}

func TestCoerceClientBrokenAttributes(t *testing.T) {
	c := CoerceClient(map[string]any{
		"ClientID":       "C1",
		"AttributesJSON": `{"budget": 5000,`,
	})
	assert.Nil(t, c.AttributesJSON)
	assert.Equal(t, `{"budget": 5000,`, c.RawAttributes)

	ok := CoerceClient(map[string]any{
		"ClientID":       "C1",
		"AttributesJSON": `{"budget": 5000}`,
	})
	assert.Empty(t, ok.RawAttributes)
	assert.Equal(t, float64(5000), ok.AttributesJSON["budget"])
}

func TestCoerceWorkerRangeNotation(t *testing.T) {
	w := CoerceWorker(map[string]any{
		"WorkerID":       "W1",
		"AvailableSlots": "1-3",
	})
	assert.Equal(t, []int{1, 2, 3}, w.AvailableSlots)
	assert.Empty(t, w.RawAvailableSlots)
}

func TestCoerceWorkerReversedRange(t *testing.T) {
	w := CoerceWorker(map[string]any{"AvailableSlots": "5-3"})
	assert.Equal(t, []int{}, w.AvailableSlots)
}

func TestCoerceWorkerMalformedSlots(t *testing.T) {
	// Not a list at all: slots nil, raw kept.
	w := CoerceWorker(map[string]any{"AvailableSlots": true})
	assert.Nil(t, w.AvailableSlots)
	assert.NotEmpty(t, w.RawAvailableSlots)

	// List with non-numeric elements: numeric ones kept, raw kept.
	w = CoerceWorker(map[string]any{"AvailableSlots": "1,two,3"})
	assert.Equal(t, []int{1, 3}, w.AvailableSlots)
	assert.Equal(t, "1,two,3", w.RawAvailableSlots)
}

func TestCoerceWorkerBracketedSlots(t *testing.T) {
	// A JSON array serialized into a CSV cell parses cleanly.
	w := CoerceWorker(map[string]any{"WorkerID": "W1", "AvailableSlots": "[1, 2, 3]"})
	assert.Equal(t, []int{1, 2, 3}, w.AvailableSlots)
	assert.Empty(t, w.RawAvailableSlots)

	// Valid JSON array, non-numeric elements: numeric ones kept, raw kept.
	w = CoerceWorker(map[string]any{"WorkerID": "W1", "AvailableSlots": `[1, "two", 3]`})
	assert.Equal(t, []int{1, 3}, w.AvailableSlots)
	assert.Equal(t, `[1, "two", 3]`, w.RawAvailableSlots)

	// Brackets around invalid JSON: not a list, raw kept.
	w = CoerceWorker(map[string]any{"WorkerID": "W1", "AvailableSlots": "[1; 2]"})
	assert.Nil(t, w.AvailableSlots)
	assert.Equal(t, "[1; 2]", w.RawAvailableSlots)
}

func TestCoerceTaskNumericDefaults(t *testing.T) {
	task := CoerceTask(map[string]any{"TaskID": "T1", "Duration": "0"})
	assert.Equal(t, 1, task.Duration, "zero falls back to the default like the loose source rows")
	assert.Equal(t, 1, task.MaxConcurrent)

	task = CoerceTask(map[string]any{"TaskID": "T1", "Duration": float64(4)})
	assert.Equal(t, 4, task.Duration)
}

func TestSetFieldReplacesAtomically(t *testing.T) {
	ds := SampleDataSet()

	require.NoError(t, ds.SetField(KindClient, "C001", "PriorityLevel", 2))
	assert.Equal(t, 2, ds.Clients[0].PriorityLevel)
	assert.Equal(t, "Acme Corp", ds.Clients[0].ClientName, "untouched fields survive the replace")

	require.NoError(t, ds.SetField(KindWorker, "W002", "Skills", "Python, SQL"))
	assert.Equal(t, []string{"Python", "SQL"}, ds.Workers[1].Skills)
}

func TestSetFieldRefusesIDChange(t *testing.T) {
	ds := SampleDataSet()
	err := ds.SetField(KindTask, "T001", "TaskID", "T999")
	require.Error(t, err)
	assert.Equal(t, "T001", ds.Tasks[0].TaskID)
}

func TestSetFieldUnknownRecord(t *testing.T) {
	ds := SampleDataSet()
	assert.Error(t, ds.SetField(KindClient, "C999", "GroupTag", "x"))
	assert.Error(t, ds.SetField(Kind("project"), "C001", "GroupTag", "x"))
}

func TestCloneIsDeep(t *testing.T) {
	ds := SampleDataSet()
	cp := ds.Clone()
	cp.Clients[0].RequestedTaskIDs[0] = "T999"
	cp.Workers[0].AvailableSlots[0] = 99
	assert.Equal(t, "T001", ds.Clients[0].RequestedTaskIDs[0])
	assert.Equal(t, 1, ds.Workers[0].AvailableSlots[0])
}
