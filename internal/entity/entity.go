// Package entity holds the typed records for clients, workers and tasks,
// and the coercion step that turns loosely typed rows into them.
//
// The records are plain data: construction belongs to the ingestion layer,
// cross-checking belongs to the validate package. A nil slice on a record
// means the source column was absent; an empty non-nil slice means the
// column was present but empty. The validator relies on that distinction.
package entity

import (
	"encoding/json"
	"fmt"
)

type Client struct {
	ClientID         string         `json:"ClientID"`
	ClientName       string         `json:"ClientName"`
	PriorityLevel    int            `json:"PriorityLevel"`
	RequestedTaskIDs []string       `json:"RequestedTaskIDs"`
	GroupTag         string         `json:"GroupTag"`
	AttributesJSON   map[string]any `json:"AttributesJSON"`

	// RawAttributes holds the original text when AttributesJSON arrived as a
	// string that does not parse. The validator turns it into a BROKEN_JSON
	// diagnostic instead of the coercion step failing.
	RawAttributes string `json:"RawAttributes,omitempty"`
}

type Worker struct {
	WorkerID           string   `json:"WorkerID"`
	WorkerName         string   `json:"WorkerName"`
	Skills             []string `json:"Skills"`
	AvailableSlots     []int    `json:"AvailableSlots"`
	MaxLoadPerPhase    int      `json:"MaxLoadPerPhase"`
	WorkerGroup        string   `json:"WorkerGroup"`
	QualificationLevel int      `json:"QualificationLevel"`

	// RawAvailableSlots holds the original text when AvailableSlots could not
	// be read as a numeric list. Slots == nil with a raw value means the
	// source was not a list at all; Slots != nil with a raw value means the
	// list contained non-numeric elements that were dropped.
	RawAvailableSlots string `json:"RawAvailableSlots,omitempty"`
}

type Task struct {
	TaskID          string   `json:"TaskID"`
	TaskName        string   `json:"TaskName"`
	Category        string   `json:"Category"`
	Duration        int      `json:"Duration"`
	RequiredSkills  []string `json:"RequiredSkills"`
	PreferredPhases []int    `json:"PreferredPhases"`
	MaxConcurrent   int      `json:"MaxConcurrent"`
}

// DataSet is a snapshot of the three collections. Callers treat it as
// immutable once handed to the validator; mutation goes through the
// Replace*/SetField helpers which swap whole records.
type DataSet struct {
	Clients []Client `json:"clients"`
	Workers []Worker `json:"workers"`
	Tasks   []Task   `json:"tasks"`
}

func (ds DataSet) Empty() bool {
	return len(ds.Clients) == 0 && len(ds.Workers) == 0 && len(ds.Tasks) == 0
}

// Clone returns a deep copy so edits on the copy cannot leak into snapshots
// already handed out.
func (ds DataSet) Clone() DataSet {
	out := DataSet{
		Clients: make([]Client, len(ds.Clients)),
		Workers: make([]Worker, len(ds.Workers)),
		Tasks:   make([]Task, len(ds.Tasks)),
	}
	copy(out.Clients, ds.Clients)
	copy(out.Workers, ds.Workers)
	copy(out.Tasks, ds.Tasks)
	for i, c := range out.Clients {
		out.Clients[i].RequestedTaskIDs = append([]string(nil), c.RequestedTaskIDs...)
		if c.AttributesJSON != nil {
			m := make(map[string]any, len(c.AttributesJSON))
			for k, v := range c.AttributesJSON {
				m[k] = v
			}
			out.Clients[i].AttributesJSON = m
		}
	}
	for i, w := range out.Workers {
		out.Workers[i].Skills = append([]string(nil), w.Skills...)
		out.Workers[i].AvailableSlots = append([]int(nil), w.AvailableSlots...)
	}
	for i, t := range out.Tasks {
		out.Tasks[i].RequiredSkills = append([]string(nil), t.RequiredSkills...)
		out.Tasks[i].PreferredPhases = append([]int(nil), t.PreferredPhases...)
	}
	return out
}

// ReplaceClient swaps the record whose ClientID matches c. The match is on
// the ID, so a record can never change its own ID through a replace; that
// has to be modeled as clear-and-reload.
func (ds *DataSet) ReplaceClient(c Client) bool {
	for i := range ds.Clients {
		if ds.Clients[i].ClientID == c.ClientID {
			ds.Clients[i] = c
			return true
		}
	}
	return false
}

func (ds *DataSet) ReplaceWorker(w Worker) bool {
	for i := range ds.Workers {
		if ds.Workers[i].WorkerID == w.WorkerID {
			ds.Workers[i] = w
			return true
		}
	}
	return false
}

func (ds *DataSet) ReplaceTask(t Task) bool {
	for i := range ds.Tasks {
		if ds.Tasks[i].TaskID == t.TaskID {
			ds.Tasks[i] = t
			return true
		}
	}
	return false
}

// Kind names one of the three collections in interchange payloads.
type Kind string

const (
	KindClient Kind = "client"
	KindWorker Kind = "worker"
	KindTask   Kind = "task"
)

var idField = map[Kind]string{
	KindClient: "ClientID",
	KindWorker: "WorkerID",
	KindTask:   "TaskID",
}

// SetField applies a single-field edit to the record identified by kind and
// id, as one atomic replace. The new value passes through the same coercion
// as ingested rows, so a correction proposal can carry strings, numbers or
// arrays. Changing the ID field itself is refused.
func (ds *DataSet) SetField(kind Kind, id, field string, value any) error {
	idf, ok := idField[kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	if field == idf {
		return fmt.Errorf("refusing to change %s: IDs are immutable, delete and re-add instead", idf)
	}

	switch kind {
	case KindClient:
		for i := range ds.Clients {
			if ds.Clients[i].ClientID != id {
				continue
			}
			row, err := toRow(ds.Clients[i])
			if err != nil {
				return err
			}
			row[field] = value
			ds.Clients[i] = CoerceClient(row)
			return nil
		}
	case KindWorker:
		for i := range ds.Workers {
			if ds.Workers[i].WorkerID != id {
				continue
			}
			row, err := toRow(ds.Workers[i])
			if err != nil {
				return err
			}
			row[field] = value
			ds.Workers[i] = CoerceWorker(row)
			return nil
		}
	case KindTask:
		for i := range ds.Tasks {
			if ds.Tasks[i].TaskID != id {
				continue
			}
			row, err := toRow(ds.Tasks[i])
			if err != nil {
				return err
			}
			row[field] = value
			ds.Tasks[i] = CoerceTask(row)
			return nil
		}
	}
	return fmt.Errorf("no %s with ID %q", kind, id)
}

func toRow(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return row, nil
}
