package suggest

import (
	"encoding/json"
	"fmt"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/validate"
)

// Sample sizes sent with each request. Requests are size-bounded: the
// service sees representative slices, never whole collections.
const (
	validationSample = 5
	ruleSample       = 10
	searchSample     = 2
)

func sampleJSON[T any](items []T, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func dataSummary(ds entity.DataSet, n int) string {
	return fmt.Sprintf("Clients (%d total): %s\nWorkers (%d total): %s\nTasks (%d total): %s",
		len(ds.Clients), sampleJSON(ds.Clients, n),
		len(ds.Workers), sampleJSON(ds.Workers, n),
		len(ds.Tasks), sampleJSON(ds.Tasks, n))
}

const validateSystemPrompt = `You are a data-quality assistant for resource-allocation planning.
You receive samples of three collections: clients, workers and tasks.
Report issues beyond standard structural validation: logical inconsistencies,
potential bottlenecks, unrealistic configurations, missing relationships and
suspicious data quality.

Each finding must use severity "error" or "warning", entity "client",
"worker" or "task", and the entityId of the affected record ("all" for
collection-wide issues). If you find nothing, return an empty findings list.`

func buildValidateUserPrompt(ds entity.DataSet) string {
	return "Analyze this resource allocation data for potential issues:\n\n" +
		dataSummary(ds, validationSample)
}

const rulesSystemPrompt = `You are a planning assistant that proposes business rules for
resource allocation.

Look for patterns such as tasks that often appear together (coRun), worker
groups that may need load limits (loadLimit), tasks that should be pinned to
certain phases (phaseWindow), and groups needing common slots
(slotRestriction). Use only those four rule types. Parameters per type:
- coRun: {"tasks": [task IDs]}
- loadLimit: {"group": worker group, "maxSlotsPerPhase": int >= 1}
- phaseWindow: {"taskId": task ID, "allowedPhases": [ints]}
- slotRestriction: {"group": name, "groupType": "client"|"worker", "minCommonSlots": int >= 1}

Set confidence between 0 and 1 and base every suggestion only on the data
actually provided. Return an empty list when no clear pattern exists.`

func buildRulesUserPrompt(ds entity.DataSet) string {
	return "Suggest business rules for this resource allocation data:\n\n" +
		dataSummary(ds, ruleSample)
}

const convertSystemPrompt = `You convert one natural-language constraint into a structured
allocation rule.

Available rule types and parameters:
1. coRun: {"tasks": [task IDs]} - tasks that must run together
2. slotRestriction: {"group": name, "groupType": "client"|"worker", "minCommonSlots": int} - common slots for a group
3. loadLimit: {"group": worker group, "maxSlotsPerPhase": int} - per-phase load ceiling
4. phaseWindow: {"taskId": task ID, "allowedPhases": [ints]} - restrict a task to phases
5. precedence: {"before": task ID, "after": task ID, "gap": optional int} - ordering
6. patternMatch: {"pattern": regex, "action": name, "targets": [strings]} - pattern-driven action

Examples:
- "Tasks T12 and T14 must run together" -> {"type":"coRun","parameters":{"tasks":["T12","T14"]},"description":"Tasks T12 and T14 must run together"}
- "Sales workers handle at most 3 slots per phase" -> {"type":"loadLimit","parameters":{"group":"Sales","maxSlotsPerPhase":3},"description":"Sales workers limited to 3 slots per phase"}`

func buildConvertUserPrompt(input string) string {
	return fmt.Sprintf("Convert this constraint into a structured rule: %q", input)
}

const searchSystemPrompt = `You convert a natural-language question about resource-allocation
data into one filter configuration.

entityType is "clients", "workers" or "tasks". The filter has a field name
from that collection, an operator from equals, contains, greater, less, in,
and a value. Only target a collection that actually has data.`

func buildSearchUserPrompt(query string, ds entity.DataSet) string {
	return fmt.Sprintf("Query: %q\n\nAvailable data:\n%s", query, dataSummary(ds, searchSample))
}

const correctionSystemPrompt = `You propose one concrete field edit that fixes a reported
validation finding. Return the field name, the corrected value with a type
appropriate for that field, and a brief explanation.`

func buildCorrectionUserPrompt(d validate.Diagnostic) string {
	b, _ := json.Marshal(d)
	return "Propose a correction for this validation finding:\n" + string(b)
}
