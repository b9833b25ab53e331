package entity

// SampleDataSet returns a small, internally consistent data set used by
// `preflight init` and by tests. Every requested task exists, every required
// skill is covered and worker availability meets the per-phase task load, so
// a fresh sample validates clean.
func SampleDataSet() DataSet {
	return DataSet{
		Clients: []Client{
			{
				ClientID:         "C001",
				ClientName:       "Acme Corp",
				PriorityLevel:    5,
				RequestedTaskIDs: []string{"T001", "T002"},
				GroupTag:         "Enterprise",
				AttributesJSON:   map[string]any{"industry": "Technology", "size": "Large"},
			},
			{
				ClientID:         "C002",
				ClientName:       "Beta Industries",
				PriorityLevel:    3,
				RequestedTaskIDs: []string{"T003"},
				GroupTag:         "SMB",
				AttributesJSON:   map[string]any{"industry": "Manufacturing", "size": "Medium"},
			},
		},
		Workers: []Worker{
			{
				WorkerID:           "W001",
				WorkerName:         "John Smith",
				Skills:             []string{"JavaScript", "React", "Node.js"},
				AvailableSlots:     []int{1, 2, 3, 4, 5},
				MaxLoadPerPhase:    3,
				WorkerGroup:        "Development",
				QualificationLevel: 4,
			},
			{
				WorkerID:           "W002",
				WorkerName:         "Jane Doe",
				Skills:             []string{"Python", "Data Analysis"},
				AvailableSlots:     []int{2, 3, 4},
				MaxLoadPerPhase:    2,
				WorkerGroup:        "Data Science",
				QualificationLevel: 5,
			},
			{
				WorkerID:           "W003",
				WorkerName:         "Alice Chen",
				Skills:             []string{"DevOps", "Docker"},
				AvailableSlots:     []int{1, 2, 3},
				MaxLoadPerPhase:    2,
				WorkerGroup:        "Operations",
				QualificationLevel: 3,
			},
		},
		Tasks: []Task{
			{
				TaskID:          "T001",
				TaskName:        "Frontend Development",
				Category:        "Development",
				Duration:        2,
				RequiredSkills:  []string{"JavaScript", "React"},
				PreferredPhases: []int{1, 2},
				MaxConcurrent:   1,
			},
			{
				TaskID:          "T002",
				TaskName:        "API Integration",
				Category:        "Development",
				Duration:        1,
				RequiredSkills:  []string{"Node.js"},
				PreferredPhases: []int{2, 3},
				MaxConcurrent:   1,
			},
			{
				TaskID:          "T003",
				TaskName:        "Data Pipeline",
				Category:        "Data",
				Duration:        2,
				RequiredSkills:  []string{"Python"},
				PreferredPhases: []int{3, 4},
				MaxConcurrent:   1,
			},
		},
	}
}
