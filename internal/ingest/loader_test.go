package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadClientsCSV(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "clients.csv",
		"ClientID,ClientName,PriorityLevel,RequestedTaskIDs,GroupTag,AttributesJSON\n"+
			`C1,Acme,5,"T1, T2",Enterprise,"{""region"":""EU""}"`+"\n"+
			"C2,Beta,0,,SMB,not json\n")

	clients, err := LoadClients(p)
	require.NoError(t, err)
	require.Len(t, clients, 2)

	assert.Equal(t, []string{"T1", "T2"}, clients[0].RequestedTaskIDs)
	assert.Equal(t, map[string]any{"region": "EU"}, clients[0].AttributesJSON)

	assert.Equal(t, 1, clients[1].PriorityLevel, "zero coerces to the default")
	assert.Empty(t, clients[1].RequestedTaskIDs)
	assert.Equal(t, "not json", clients[1].RawAttributes, "unparseable attributes are kept verbatim")
	assert.Nil(t, clients[1].AttributesJSON)
}

func TestLoadWorkersCSVShortRow(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "workers.csv",
		"WorkerID,WorkerName,Skills,AvailableSlots,MaxLoadPerPhase\n"+
			`W1,John,"Go, SQL",1-3,2`+"\n"+
			"W2,Jane\n")

	workers, err := LoadWorkers(p)
	require.NoError(t, err)
	require.Len(t, workers, 2)

	assert.Equal(t, []int{1, 2, 3}, workers[0].AvailableSlots, "range notation expands")
	assert.Empty(t, workers[1].Skills, "short rows leave trailing columns empty")
	assert.Empty(t, workers[1].AvailableSlots)
}

func TestLoadTasksJSON(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "tasks.json",
		`[{"TaskID":"T1","TaskName":"Build","Duration":2,"RequiredSkills":["Go"],"PreferredPhases":[1,2],"MaxConcurrent":1},
		  {"TaskID":"T2","TaskName":"Ship","Duration":0,"PreferredPhases":"2-4"}]`)

	tasks, err := LoadTasks(p)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, []int{1, 2}, tasks[0].PreferredPhases)
	assert.Equal(t, 1, tasks[1].Duration)
	assert.Equal(t, []int{2, 3, 4}, tasks[1].PreferredPhases)
}

func TestReadRowsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "tasks.xlsx", "binary-ish")

	_, err := ReadRows(p)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clients.csv", "ClientID,ClientName,PriorityLevel\nC1,Acme,3\n")
	writeFile(t, dir, "tasks.json", `[{"TaskID":"T1","TaskName":"Build"}]`)

	ds, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, ds.Clients, 1)
	assert.Empty(t, ds.Workers, "a missing file leaves the collection empty")
	require.Len(t, ds.Tasks, 1)
	assert.Equal(t, "T1", ds.Tasks[0].TaskID)
}
