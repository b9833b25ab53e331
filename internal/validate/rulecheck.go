package validate

import (
	"fmt"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
)

// RuleReferences cross-checks rule entity references against the data set.
// Rule references are advisory: a rule naming an unknown task or group is a
// data-quality warning, never a fatal error.
func RuleReferences(ds entity.DataSet, rs []rules.Rule) []Diagnostic {
	taskIDs := make(map[string]bool, len(ds.Tasks))
	for _, t := range ds.Tasks {
		taskIDs[t.TaskID] = true
	}
	clientGroups := map[string]bool{}
	for _, c := range ds.Clients {
		clientGroups[c.GroupTag] = true
	}
	workerGroups := map[string]bool{}
	for _, w := range ds.Workers {
		workerGroups[w.WorkerGroup] = true
	}

	var out []Diagnostic
	warn := func(kind entity.Kind, ruleID, field, msg, fix string) {
		out = append(out, Diagnostic{
			Type:       TypeRuleReference,
			Severity:   SeverityWarning,
			Entity:     kind,
			EntityID:   ruleID,
			Field:      field,
			Message:    msg,
			Suggestion: fix,
		})
	}
	unknownTask := func(ruleID, field, id string, t rules.Type) {
		if id != "" && !taskIDs[id] {
			warn(entity.KindTask, ruleID, field,
				fmt.Sprintf("%s rule references unknown task %s", t, id),
				fmt.Sprintf("Add task %s or update the rule", id))
		}
	}

	for _, r := range rs {
		switch p := r.Params.(type) {
		case rules.CoRun:
			for _, id := range p.Tasks {
				unknownTask(r.ID, "tasks", id, r.Type())
			}
		case rules.PhaseWindow:
			unknownTask(r.ID, "taskId", p.TaskID, r.Type())
		case rules.Precedence:
			unknownTask(r.ID, "before", p.Before, r.Type())
			unknownTask(r.ID, "after", p.After, r.Type())
		case rules.SlotRestriction:
			groups, kind := workerGroups, entity.KindWorker
			if p.GroupType == "client" {
				groups, kind = clientGroups, entity.KindClient
			}
			if p.Group != "" && !groups[p.Group] {
				warn(kind, r.ID, "group",
					fmt.Sprintf("slotRestriction rule references unknown %s group %s", p.GroupType, p.Group),
					fmt.Sprintf("Use an existing %s group or update the rule", p.GroupType))
			}
		case rules.LoadLimit:
			if p.Group != "" && !workerGroups[p.Group] {
				warn(entity.KindWorker, r.ID, "group",
					fmt.Sprintf("loadLimit rule references unknown worker group %s", p.Group),
					"Use an existing worker group or update the rule")
			}
		case rules.PatternMatch:
			// Pattern targets are free-form; nothing to resolve.
		}
	}
	return out
}
