// Package ingest reads the three collections from CSV or JSON files and
// hands every row to the coercion layer. Loading never fails on bad cell
// values, only on unreadable files: value problems become validator
// diagnostics downstream.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/christopherklint97/preflight/internal/entity"
)

// ReadRows parses one file into loose rows keyed by column name. CSV files
// take the first record as the header; JSON files hold an array of objects.
func ReadRows(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".json":
		return readJSON(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .json)", filepath.Ext(path))
	}
}

func readCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Rows with too few or too many cells still parse; short rows just
	// leave their trailing columns absent.
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]any
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSON(r io.Reader) ([]map[string]any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return rows, nil
}

func LoadClients(path string) ([]entity.Client, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.CoerceClient(row))
	}
	return out, nil
}

func LoadWorkers(path string) ([]entity.Worker, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Worker, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.CoerceWorker(row))
	}
	return out, nil
}

func LoadTasks(path string) ([]entity.Task, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.CoerceTask(row))
	}
	return out, nil
}

// collection file names probed by LoadDir, in preference order.
var dirFiles = map[string][]string{
	"clients": {"clients.csv", "clients.json"},
	"workers": {"workers.csv", "workers.json"},
	"tasks":   {"tasks.csv", "tasks.json"},
}

// LoadDir assembles a data set from conventionally named files in dir. A
// missing file leaves that collection empty; the validator has nothing to
// say about collections that were never provided.
func LoadDir(dir string) (entity.DataSet, error) {
	var ds entity.DataSet

	find := func(names []string) string {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return ""
	}

	if p := find(dirFiles["clients"]); p != "" {
		clients, err := LoadClients(p)
		if err != nil {
			return ds, err
		}
		ds.Clients = clients
	}
	if p := find(dirFiles["workers"]); p != "" {
		workers, err := LoadWorkers(p)
		if err != nil {
			return ds, err
		}
		ds.Workers = workers
	}
	if p := find(dirFiles["tasks"]); p != "" {
		tasks, err := LoadTasks(p)
		if err != nil {
			return ds, err
		}
		ds.Tasks = tasks
	}
	return ds, nil
}
