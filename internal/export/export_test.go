package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
)

func readBundle(t *testing.T, ds entity.DataSet, ruleList []rules.Rule, priorities map[string]float64, now time.Time) map[string]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, ds, ruleList, priorities, now))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestBundleLayout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := readBundle(t, entity.SampleDataSet(), nil, nil, now)

	for _, name := range []string{"clients.csv", "workers.csv", "tasks.csv", "rules.json", "README.txt"} {
		assert.Contains(t, files, name)
	}
	assert.Contains(t, files["README.txt"], "Generated: 2025-06-01T12:00:00Z")
}

func TestClientsCSVContent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := readBundle(t, entity.SampleDataSet(), nil, nil, now)

	lines := strings.Split(strings.TrimSpace(files["clients.csv"]), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ClientID,ClientName,PriorityLevel,RequestedTaskIDs,GroupTag,AttributesJSON", lines[0])
	assert.Contains(t, lines[1], `"T001,T002"`, "list columns join with commas and get quoted")
	assert.Contains(t, lines[1], "Acme Corp")
}

func TestEmptyCollectionsGetPlaceholders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := readBundle(t, entity.DataSet{}, nil, nil, now)

	assert.Equal(t, "No clients data available", files["clients.csv"])
	assert.Equal(t, "No workers data available", files["workers.csv"])
	assert.Equal(t, "No tasks data available", files["tasks.csv"])
}

func TestRulesJSONShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ds := entity.SampleDataSet()
	ruleList := []rules.Rule{
		{
			ID: "r-1", Description: "run together", CreatedAt: now,
			Source: rules.SourceManual, Enabled: true, Confidence: 1,
			Params: rules.CoRun{Tasks: []string{"T001", "T002"}},
		},
	}
	priorities := map[string]float64{"priorityLevel": 0.5, "fairness": 0.2}

	files := readBundle(t, ds, ruleList, priorities, now)

	var cfg struct {
		Rules []struct {
			Type        string         `json:"type"`
			Parameters  map[string]any `json:"parameters"`
			Description string         `json:"description"`
		} `json:"rules"`
		Priorities map[string]float64 `json:"priorities"`
		Metadata   struct {
			Version      string `json:"version"`
			TotalRules   int    `json:"totalRules"`
			TotalClients int    `json:"totalClients"`
			TotalWorkers int    `json:"totalWorkers"`
			TotalTasks   int    `json:"totalTasks"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(files["rules.json"]), &cfg))

	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "coRun", cfg.Rules[0].Type)
	assert.Equal(t, []any{"T001", "T002"}, cfg.Rules[0].Parameters["tasks"])
	assert.Equal(t, priorities, cfg.Priorities)
	assert.Equal(t, "1.0.0", cfg.Metadata.Version)
	assert.Equal(t, 1, cfg.Metadata.TotalRules)
	assert.Equal(t, 2, cfg.Metadata.TotalClients)
	assert.Equal(t, 3, cfg.Metadata.TotalWorkers)
	assert.Equal(t, 3, cfg.Metadata.TotalTasks)
}

func TestRawColumnsExportVerbatim(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ds := entity.DataSet{
		Workers: []entity.Worker{
			{WorkerID: "W1", WorkerName: "broken", RawAvailableSlots: "not-a-list"},
		},
	}

	files := readBundle(t, ds, nil, nil, now)
	assert.Contains(t, files["workers.csv"], "not-a-list")
}

func TestBundleName(t *testing.T) {
	assert.Equal(t, "resource-allocation-2025-06-01.zip",
		BundleName(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)))
}
