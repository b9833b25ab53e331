package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/christopherklint97/preflight/internal/entity"
)

// List columns are stored as JSON text. A nil slice round-trips as "null"
// and an empty one as "[]", so the absent-vs-empty distinction the
// validator depends on survives a save/load cycle.

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding column: %w", err)
	}
	return string(b), nil
}

// SaveDataSet replaces the stored collections with ds in one transaction.
func (db *DB) SaveDataSet(ds entity.DataSet) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"clients", "workers", "tasks"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, c := range ds.Clients {
		tasks, err := encodeJSON(c.RequestedTaskIDs)
		if err != nil {
			return err
		}
		attrs, err := encodeJSON(c.AttributesJSON)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO clients (position, client_id, client_name, priority_level, requested_task_ids, group_tag, attributes_json, raw_attributes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, c.ClientID, c.ClientName, c.PriorityLevel, tasks, c.GroupTag, attrs, c.RawAttributes,
		); err != nil {
			return fmt.Errorf("inserting client %q: %w", c.ClientID, err)
		}
	}

	for i, w := range ds.Workers {
		skills, err := encodeJSON(w.Skills)
		if err != nil {
			return err
		}
		slots, err := encodeJSON(w.AvailableSlots)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO workers (position, worker_id, worker_name, skills, available_slots, max_load_per_phase, worker_group, qualification_level, raw_available_slots)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, w.WorkerID, w.WorkerName, skills, slots, w.MaxLoadPerPhase, w.WorkerGroup, w.QualificationLevel, w.RawAvailableSlots,
		); err != nil {
			return fmt.Errorf("inserting worker %q: %w", w.WorkerID, err)
		}
	}

	for i, t := range ds.Tasks {
		skills, err := encodeJSON(t.RequiredSkills)
		if err != nil {
			return err
		}
		phases, err := encodeJSON(t.PreferredPhases)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO tasks (position, task_id, task_name, category, duration, required_skills, preferred_phases, max_concurrent)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, t.TaskID, t.TaskName, t.Category, t.Duration, skills, phases, t.MaxConcurrent,
		); err != nil {
			return fmt.Errorf("inserting task %q: %w", t.TaskID, err)
		}
	}

	return tx.Commit()
}

// LoadDataSet reads the collections back in source order.
func (db *DB) LoadDataSet() (entity.DataSet, error) {
	var ds entity.DataSet

	clients, err := db.Query(
		`SELECT client_id, client_name, priority_level, requested_task_ids, group_tag, attributes_json, raw_attributes
		 FROM clients ORDER BY position ASC`)
	if err != nil {
		return ds, fmt.Errorf("querying clients: %w", err)
	}
	defer clients.Close()
	for clients.Next() {
		var (
			c            entity.Client
			tasks, attrs string
			raw          sql.NullString
		)
		if err := clients.Scan(&c.ClientID, &c.ClientName, &c.PriorityLevel, &tasks, &c.GroupTag, &attrs, &raw); err != nil {
			return ds, fmt.Errorf("scanning client: %w", err)
		}
		if err := json.Unmarshal([]byte(tasks), &c.RequestedTaskIDs); err != nil {
			return ds, fmt.Errorf("decoding requested tasks for %q: %w", c.ClientID, err)
		}
		if err := json.Unmarshal([]byte(attrs), &c.AttributesJSON); err != nil {
			return ds, fmt.Errorf("decoding attributes for %q: %w", c.ClientID, err)
		}
		c.RawAttributes = raw.String
		ds.Clients = append(ds.Clients, c)
	}
	if err := clients.Err(); err != nil {
		return ds, err
	}

	workers, err := db.Query(
		`SELECT worker_id, worker_name, skills, available_slots, max_load_per_phase, worker_group, qualification_level, raw_available_slots
		 FROM workers ORDER BY position ASC`)
	if err != nil {
		return ds, fmt.Errorf("querying workers: %w", err)
	}
	defer workers.Close()
	for workers.Next() {
		var (
			w             entity.Worker
			skills, slots string
			raw           sql.NullString
		)
		if err := workers.Scan(&w.WorkerID, &w.WorkerName, &skills, &slots, &w.MaxLoadPerPhase, &w.WorkerGroup, &w.QualificationLevel, &raw); err != nil {
			return ds, fmt.Errorf("scanning worker: %w", err)
		}
		if err := json.Unmarshal([]byte(skills), &w.Skills); err != nil {
			return ds, fmt.Errorf("decoding skills for %q: %w", w.WorkerID, err)
		}
		if err := json.Unmarshal([]byte(slots), &w.AvailableSlots); err != nil {
			return ds, fmt.Errorf("decoding slots for %q: %w", w.WorkerID, err)
		}
		w.RawAvailableSlots = raw.String
		ds.Workers = append(ds.Workers, w)
	}
	if err := workers.Err(); err != nil {
		return ds, err
	}

	tasks, err := db.Query(
		`SELECT task_id, task_name, category, duration, required_skills, preferred_phases, max_concurrent
		 FROM tasks ORDER BY position ASC`)
	if err != nil {
		return ds, fmt.Errorf("querying tasks: %w", err)
	}
	defer tasks.Close()
	for tasks.Next() {
		var (
			t              entity.Task
			skills, phases string
		)
		if err := tasks.Scan(&t.TaskID, &t.TaskName, &t.Category, &t.Duration, &skills, &phases, &t.MaxConcurrent); err != nil {
			return ds, fmt.Errorf("scanning task: %w", err)
		}
		if err := json.Unmarshal([]byte(skills), &t.RequiredSkills); err != nil {
			return ds, fmt.Errorf("decoding skills for %q: %w", t.TaskID, err)
		}
		if err := json.Unmarshal([]byte(phases), &t.PreferredPhases); err != nil {
			return ds, fmt.Errorf("decoding phases for %q: %w", t.TaskID, err)
		}
		ds.Tasks = append(ds.Tasks, t)
	}
	return ds, tasks.Err()
}
