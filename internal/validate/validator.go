package validate

import (
	"fmt"
	"sort"

	"github.com/christopherklint97/preflight/internal/entity"
)

// All runs the five check passes in a fixed order: missing columns,
// duplicate IDs, format and range, references, business feasibility.
// Passes never short-circuit each other; every pass appends what it finds.
// Empty collections are skipped silently.
func All(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic
	out = append(out, missingColumns(ds)...)
	out = append(out, duplicateIDs(ds)...)
	out = append(out, formats(ds)...)
	out = append(out, references(ds)...)
	out = append(out, feasibility(ds)...)
	return out
}

// Pass 1: collection-wide required-column check. A field counts as missing
// when any record in the collection lacks it outright: empty required
// strings, nil lists. Coerced rows always carry non-nil lists and default
// numerics, so this fires for data that bypassed coercion or arrived with
// null columns. Present-but-invalid values (an explicit zero, say) are the
// range checks' business, not a missing column.
func missingColumns(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic

	check := func(kind entity.Kind, field string, missing bool) {
		if !missing {
			return
		}
		out = append(out, Diagnostic{
			Type:       TypeMissingColumn,
			Severity:   SeverityError,
			Entity:     kind,
			EntityID:   CollectionWide,
			Field:      field,
			Message:    fmt.Sprintf("Missing required field: %s", field),
			Suggestion: fmt.Sprintf("Add %s column to your %s data", field, kind),
		})
	}

	if len(ds.Clients) > 0 {
		var noID, noName bool
		for _, c := range ds.Clients {
			noID = noID || c.ClientID == ""
			noName = noName || c.ClientName == ""
		}
		check(entity.KindClient, "ClientID", noID)
		check(entity.KindClient, "ClientName", noName)
	}
	if len(ds.Workers) > 0 {
		var noID, noName, noSkills, noSlots bool
		for _, w := range ds.Workers {
			noID = noID || w.WorkerID == ""
			noName = noName || w.WorkerName == ""
			noSkills = noSkills || w.Skills == nil
			noSlots = noSlots || (w.AvailableSlots == nil && w.RawAvailableSlots == "")
		}
		check(entity.KindWorker, "WorkerID", noID)
		check(entity.KindWorker, "WorkerName", noName)
		check(entity.KindWorker, "Skills", noSkills)
		check(entity.KindWorker, "AvailableSlots", noSlots)
	}
	if len(ds.Tasks) > 0 {
		var noID, noName, noSkills bool
		for _, t := range ds.Tasks {
			noID = noID || t.TaskID == ""
			noName = noName || t.TaskName == ""
			noSkills = noSkills || t.RequiredSkills == nil
		}
		check(entity.KindTask, "TaskID", noID)
		check(entity.KindTask, "TaskName", noName)
		check(entity.KindTask, "RequiredSkills", noSkills)
	}
	return out
}

// Pass 2: duplicate-ID check. The second and later occurrences are flagged,
// scoped to the offending record.
func duplicateIDs(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic

	flag := func(kind entity.Kind, field, id string) {
		out = append(out, Diagnostic{
			Type:       TypeDuplicateID,
			Severity:   SeverityError,
			Entity:     kind,
			EntityID:   id,
			Field:      field,
			Message:    fmt.Sprintf("Duplicate %s: %s", field, id),
			Suggestion: fmt.Sprintf("Change %s to ensure uniqueness", field),
		})
	}

	seen := map[string]bool{}
	for _, c := range ds.Clients {
		if seen[c.ClientID] {
			flag(entity.KindClient, "ClientID", c.ClientID)
		}
		seen[c.ClientID] = true
	}
	seen = map[string]bool{}
	for _, w := range ds.Workers {
		if seen[w.WorkerID] {
			flag(entity.KindWorker, "WorkerID", w.WorkerID)
		}
		seen[w.WorkerID] = true
	}
	seen = map[string]bool{}
	for _, t := range ds.Tasks {
		if seen[t.TaskID] {
			flag(entity.KindTask, "TaskID", t.TaskID)
		}
		seen[t.TaskID] = true
	}
	return out
}

// Pass 3: format and range checks.
func formats(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic

	for _, c := range ds.Clients {
		if c.PriorityLevel < 1 || c.PriorityLevel > 5 {
			out = append(out, Diagnostic{
				Type:       TypeOutOfRange,
				Severity:   SeverityError,
				Entity:     entity.KindClient,
				EntityID:   c.ClientID,
				Field:      "PriorityLevel",
				Message:    fmt.Sprintf("PriorityLevel must be between 1-5, got %d", c.PriorityLevel),
				Suggestion: "Set PriorityLevel to a value between 1 and 5",
			})
		}
	}

	for _, t := range ds.Tasks {
		if t.Duration < 1 {
			out = append(out, Diagnostic{
				Type:       TypeInvalidDuration,
				Severity:   SeverityError,
				Entity:     entity.KindTask,
				EntityID:   t.TaskID,
				Field:      "Duration",
				Message:    fmt.Sprintf("Duration must be >= 1, got %d", t.Duration),
				Suggestion: "Set Duration to at least 1",
			})
		}
	}

	// Two-step list check: the source value was not a list at all, or it was
	// a list carrying non-numeric elements.
	for _, w := range ds.Workers {
		if w.RawAvailableSlots == "" {
			continue
		}
		d := Diagnostic{
			Type:     TypeMalformedList,
			Severity: SeverityError,
			Entity:   entity.KindWorker,
			EntityID: w.WorkerID,
			Field:    "AvailableSlots",
		}
		if w.AvailableSlots == nil {
			d.Message = "AvailableSlots must be an array of numbers"
			d.Suggestion = "Format as [1, 2, 3] or similar"
		} else {
			d.Message = "AvailableSlots contains non-numeric values"
			d.Suggestion = "Ensure all slot values are numbers"
		}
		out = append(out, d)
	}

	for _, c := range ds.Clients {
		if c.RawAttributes != "" {
			out = append(out, Diagnostic{
				Type:       TypeBrokenJSON,
				Severity:   SeverityError,
				Entity:     entity.KindClient,
				EntityID:   c.ClientID,
				Field:      "AttributesJSON",
				Message:    "Invalid JSON in AttributesJSON",
				Suggestion: "Fix JSON syntax or use valid JSON format",
			})
		}
	}
	return out
}

// Pass 4: referential checks. Dangling task references are hard errors;
// uncovered skills are soft warnings since the gap may be filled later.
func references(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic

	taskIDs := make(map[string]bool, len(ds.Tasks))
	for _, t := range ds.Tasks {
		taskIDs[t.TaskID] = true
	}
	workerSkills := map[string]bool{}
	for _, w := range ds.Workers {
		for _, s := range w.Skills {
			workerSkills[s] = true
		}
	}

	for _, c := range ds.Clients {
		for _, id := range c.RequestedTaskIDs {
			if !taskIDs[id] {
				out = append(out, Diagnostic{
					Type:       TypeUnknownReference,
					Severity:   SeverityError,
					Entity:     entity.KindClient,
					EntityID:   c.ClientID,
					Field:      "RequestedTaskIDs",
					Message:    fmt.Sprintf("Unknown task reference: %s", id),
					Suggestion: fmt.Sprintf("Remove %s or add it to tasks", id),
				})
			}
		}
	}

	for _, t := range ds.Tasks {
		for _, skill := range t.RequiredSkills {
			if !workerSkills[skill] {
				out = append(out, Diagnostic{
					Type:       TypeSkillCoverage,
					Severity:   SeverityWarning,
					Entity:     entity.KindTask,
					EntityID:   t.TaskID,
					Field:      "RequiredSkills",
					Message:    fmt.Sprintf("No worker has required skill: %s", skill),
					Suggestion: fmt.Sprintf("Add workers with %s or remove requirement", skill),
				})
			}
		}
	}
	return out
}

// Pass 5: business feasibility. All warnings — technically valid data that a
// downstream allocator may not be able to satisfy.
func feasibility(ds entity.DataSet) []Diagnostic {
	var out []Diagnostic

	// Heuristic, not a precise capacity model: it compares the number of
	// phases a worker is ever available in against its per-phase load
	// ceiling. Kept as-is deliberately.
	for _, w := range ds.Workers {
		if len(w.AvailableSlots) < w.MaxLoadPerPhase {
			out = append(out, Diagnostic{
				Type:     TypeOverloadedWorker,
				Severity: SeverityWarning,
				Entity:   entity.KindWorker,
				EntityID: w.WorkerID,
				Message: fmt.Sprintf("Worker has fewer slots (%d) than MaxLoadPerPhase (%d)",
					len(w.AvailableSlots), w.MaxLoadPerPhase),
				Suggestion: "Increase available slots or reduce MaxLoadPerPhase",
			})
		}
	}

	for _, t := range ds.Tasks {
		qualified := 0
		for _, w := range ds.Workers {
			if hasAllSkills(w, t.RequiredSkills) {
				qualified++
			}
		}
		if t.MaxConcurrent > qualified {
			out = append(out, Diagnostic{
				Type:     TypeMaxConcurrencyInfeasible,
				Severity: SeverityWarning,
				Entity:   entity.KindTask,
				EntityID: t.TaskID,
				Field:    "MaxConcurrent",
				Message: fmt.Sprintf("MaxConcurrent (%d) exceeds qualified workers (%d)",
					t.MaxConcurrent, qualified),
				Suggestion: fmt.Sprintf("Reduce MaxConcurrent to %d or less", qualified),
			})
		}
	}

	// Phase-slot saturation: per phase, total preferred task duration vs the
	// count of workers available in that phase. Phases are reported in
	// ascending order to keep output deterministic.
	load := map[int]int{}
	for _, t := range ds.Tasks {
		for _, p := range t.PreferredPhases {
			load[p] += t.Duration
		}
	}
	phases := make([]int, 0, len(load))
	for p := range load {
		phases = append(phases, p)
	}
	sort.Ints(phases)

	for _, p := range phases {
		supply := 0
		for _, w := range ds.Workers {
			for _, s := range w.AvailableSlots {
				if s == p {
					supply++
					break
				}
			}
		}
		if load[p] > supply {
			out = append(out, Diagnostic{
				Type:     TypePhaseSlotSaturation,
				Severity: SeverityWarning,
				Entity:   entity.KindTask,
				EntityID: CollectionWide,
				Message: fmt.Sprintf("Phase %d is overloaded: %d task units vs %d worker slots",
					p, load[p], supply),
				Suggestion: "Redistribute tasks across phases or add more workers",
			})
		}
	}
	return out
}

// hasAllSkills reports whether the worker's skill set covers every required
// skill (the "qualified worker" test).
func hasAllSkills(w entity.Worker, required []string) bool {
	for _, r := range required {
		found := false
		for _, s := range w.Skills {
			if s == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
