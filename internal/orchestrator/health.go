package orchestrator

import (
	"math"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// ComputeHealth derives the 0-100 health view from a final issue list using
// the fixed weighted-deduction formula:
//
//	score = clamp(100 - (20*critical + 10*high + 5*medium + 1*low), 0, 100)
//
// Info-level issues carry no weight. The result is computed fresh on every
// run and never cached.
func ComputeHealth(issues []schemas.Issue) schemas.ProjectHealth {
	severityCounts := map[schemas.SeverityLevel]int{
		schemas.LevelCritical: 0,
		schemas.LevelHigh:     0,
		schemas.LevelMedium:   0,
		schemas.LevelLow:      0,
		schemas.LevelInfo:     0,
	}
	categoryCounts := make(map[string]int)

	deduction := 0
	for _, issue := range issues {
		severityCounts[issue.Severity.Level]++
		categoryCounts[issue.Category]++
		deduction += issue.Severity.Weight()
	}

	score := int(math.Round(float64(100 - deduction)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return schemas.ProjectHealth{
		Score:          score,
		SeverityCounts: severityCounts,
		CategoryCounts: categoryCounts,
	}
}
