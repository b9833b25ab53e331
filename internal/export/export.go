// Package export writes the cleaned collections, the rule set and the
// priority weights as one zip bundle ready for a downstream allocation
// system.
package export

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
)

const bundleVersion = "1.0.0"

// Column order is fixed so two exports of the same data are identical.
var (
	clientHeaders = []string{"ClientID", "ClientName", "PriorityLevel", "RequestedTaskIDs", "GroupTag", "AttributesJSON"}
	workerHeaders = []string{"WorkerID", "WorkerName", "Skills", "AvailableSlots", "MaxLoadPerPhase", "WorkerGroup", "QualificationLevel"}
	taskHeaders   = []string{"TaskID", "TaskName", "Category", "Duration", "RequiredSkills", "PreferredPhases", "MaxConcurrent"}
)

type ruleEntry struct {
	Type        rules.Type   `json:"type"`
	Parameters  rules.Params `json:"parameters"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type metadata struct {
	ExportedAt   time.Time `json:"exportedAt"`
	Version      string    `json:"version"`
	TotalRules   int       `json:"totalRules"`
	TotalClients int       `json:"totalClients"`
	TotalWorkers int       `json:"totalWorkers"`
	TotalTasks   int       `json:"totalTasks"`
}

type rulesConfig struct {
	Rules      []ruleEntry        `json:"rules"`
	Priorities map[string]float64 `json:"priorities"`
	Metadata   metadata           `json:"metadata"`
}

// WriteBundle writes the full export to w: clients.csv, workers.csv,
// tasks.csv, rules.json and README.txt. now becomes the exportedAt stamp.
func WriteBundle(w io.Writer, ds entity.DataSet, ruleList []rules.Rule, priorities map[string]float64, now time.Time) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name    string
		content func() (string, error)
	}{
		{"clients.csv", func() (string, error) { return ClientsCSV(ds.Clients) }},
		{"workers.csv", func() (string, error) { return WorkersCSV(ds.Workers) }},
		{"tasks.csv", func() (string, error) { return TasksCSV(ds.Tasks) }},
		{"rules.json", func() (string, error) { return rulesJSON(ds, ruleList, priorities, now) }},
		{"README.txt", func() (string, error) { return readme(now), nil }},
	}

	for _, f := range files {
		content, err := f.content()
		if err != nil {
			return fmt.Errorf("building %s: %w", f.name, err)
		}
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing bundle: %w", err)
	}
	return nil
}

// WriteBundleFile writes the bundle to a file at path.
func WriteBundleFile(path string, ds entity.DataSet, ruleList []rules.Rule, priorities map[string]float64, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteBundle(f, ds, ruleList, priorities, now); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// BundleName is the default file name for an export taken at t.
func BundleName(t time.Time) string {
	return "resource-allocation-" + t.UTC().Format("2006-01-02") + ".zip"
}

// ClientsCSV renders the clients collection in the fixed export column
// order. Empty collections export a placeholder line instead of headers.
func ClientsCSV(clients []entity.Client) (string, error) {
	if len(clients) == 0 {
		return "No clients data available", nil
	}
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		attrs := c.RawAttributes
		if attrs == "" {
			b, err := json.Marshal(c.AttributesJSON)
			if err != nil {
				return "", err
			}
			attrs = string(b)
		}
		rows = append(rows, []string{
			c.ClientID,
			c.ClientName,
			strconv.Itoa(c.PriorityLevel),
			strings.Join(c.RequestedTaskIDs, ","),
			c.GroupTag,
			attrs,
		})
	}
	return toCSV(clientHeaders, rows)
}

func WorkersCSV(workers []entity.Worker) (string, error) {
	if len(workers) == 0 {
		return "No workers data available", nil
	}
	rows := make([][]string, 0, len(workers))
	for _, w := range workers {
		slots := w.RawAvailableSlots
		if slots == "" {
			slots = joinInts(w.AvailableSlots)
		}
		rows = append(rows, []string{
			w.WorkerID,
			w.WorkerName,
			strings.Join(w.Skills, ","),
			slots,
			strconv.Itoa(w.MaxLoadPerPhase),
			w.WorkerGroup,
			strconv.Itoa(w.QualificationLevel),
		})
	}
	return toCSV(workerHeaders, rows)
}

func TasksCSV(tasks []entity.Task) (string, error) {
	if len(tasks) == 0 {
		return "No tasks data available", nil
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.TaskID,
			t.TaskName,
			t.Category,
			strconv.Itoa(t.Duration),
			strings.Join(t.RequiredSkills, ","),
			joinInts(t.PreferredPhases),
			strconv.Itoa(t.MaxConcurrent),
		})
	}
	return toCSV(taskHeaders, rows)
}

func toCSV(headers []string, rows [][]string) (string, error) {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	if err := cw.Write(headers); err != nil {
		return "", err
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", err
	}
	cw.Flush()
	return sb.String(), cw.Error()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func rulesJSON(ds entity.DataSet, ruleList []rules.Rule, priorities map[string]float64, now time.Time) (string, error) {
	if priorities == nil {
		priorities = map[string]float64{}
	}
	entries := make([]ruleEntry, 0, len(ruleList))
	for _, r := range ruleList {
		entries = append(entries, ruleEntry{
			Type:        r.Params.Type(),
			Parameters:  r.Params,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	cfg := rulesConfig{
		Rules:      entries,
		Priorities: priorities,
		Metadata: metadata{
			ExportedAt:   now.UTC(),
			Version:      bundleVersion,
			TotalRules:   len(ruleList),
			TotalClients: len(ds.Clients),
			TotalWorkers: len(ds.Workers),
			TotalTasks:   len(ds.Tasks),
		},
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readme(now time.Time) string {
	return `Resource Allocation Export
Generated: ` + now.UTC().Format(time.RFC3339) + `

This export contains:
1. clients.csv - Client data with priority levels and requested tasks
2. workers.csv - Worker data with skills and availability
3. tasks.csv - Task data with requirements and constraints
4. rules.json - Business rules and priority configurations

Import Instructions:
- Use the cleaned CSV files in your resource allocation system
- Apply the rules from rules.json to configure business logic
- Priority weights in rules.json determine allocation preferences
`
}
