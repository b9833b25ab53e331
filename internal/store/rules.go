package store

import (
	"encoding/json"
	"fmt"

	"github.com/christopherklint97/preflight/internal/rules"
)

// Rules are stored as their serialized form in one body column, with the ID
// and type lifted out for lookups. Accepted rules and pending suggestions
// share the table, split by the pending flag.

// SaveRules replaces both the accepted rule set and the pending pool.
func (db *DB) SaveRules(active, pending []rules.Rule) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM rules"); err != nil {
		return fmt.Errorf("clearing rules: %w", err)
	}

	insert := func(list []rules.Rule, pendingFlag int) error {
		for i, r := range list {
			body, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encoding rule %q: %w", r.ID, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO rules (rule_id, rule_type, body, pending, position) VALUES (?, ?, ?, ?, ?)",
				r.ID, string(r.Params.Type()), string(body), pendingFlag, i,
			); err != nil {
				return fmt.Errorf("inserting rule %q: %w", r.ID, err)
			}
		}
		return nil
	}

	if err := insert(active, 0); err != nil {
		return err
	}
	if err := insert(pending, 1); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadRules reads back the accepted rules and the pending pool, each in
// saved order.
func (db *DB) LoadRules() (active, pending []rules.Rule, err error) {
	rows, err := db.Query("SELECT body, pending FROM rules ORDER BY pending ASC, position ASC")
	if err != nil {
		return nil, nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			body        string
			pendingFlag int
		)
		if err := rows.Scan(&body, &pendingFlag); err != nil {
			return nil, nil, fmt.Errorf("scanning rule: %w", err)
		}
		var r rules.Rule
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, nil, fmt.Errorf("decoding rule: %w", err)
		}
		if pendingFlag == 1 {
			pending = append(pending, r)
		} else {
			active = append(active, r)
		}
	}
	return active, pending, rows.Err()
}
