package schemas

import "time"

// -- Analysis Result Schemas --

// ProjectHealth is the derived 0-100 view of one analysis run. It is computed
// fresh from the final issue list at the end of every run and never cached.
type ProjectHealth struct {
	Score          int                   `json:"score"`
	SeverityCounts map[SeverityLevel]int `json:"severity_counts"`
	CategoryCounts map[string]int        `json:"category_counts"`

	// Trend is a placeholder for score history once snapshots are recorded.
	Trend string `json:"trend,omitempty"`
}

// ScannerFailure records one scanner that failed during the run. The run
// still completes with the remaining scanners' issues (partial results).
type ScannerFailure struct {
	Scanner string `json:"scanner"`
	Reason  string `json:"reason"`
}

// VCSSnapshot captures the version control state observed during the run.
// Present only when the version-control scanner executed.
type VCSSnapshot struct {
	Branch         string   `json:"branch"`
	Commit         string   `json:"commit"`
	Dirty          bool     `json:"dirty"`
	ModifiedFiles  []string `json:"modified_files,omitempty"`
	UntrackedFiles []string `json:"untracked_files,omitempty"`
}

// DeploymentCheck is one entry of the deployment readiness checklist.
type DeploymentCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// AnalysisResult is the unified output of one orchestration run: every
// scanner's issues concatenated, the derived health, and the failure list for
// scanners that did not complete. The orchestrator owns exactly one of these
// per run.
type AnalysisResult struct {
	RunID       string    `json:"run_id"`
	ProjectRoot string    `json:"project_root"`
	StartedAt   time.Time `json:"started_at"`
	Duration    float64   `json:"duration_seconds"`

	Issues   []Issue          `json:"issues"`
	Health   ProjectHealth    `json:"health"`
	Failures []ScannerFailure `json:"failures,omitempty"`
	Scanners []string         `json:"scanners"` // Names of scanners that ran.

	VCS        *VCSSnapshot      `json:"vcs,omitempty"`
	Deployment []DeploymentCheck `json:"deployment,omitempty"`
}

// FixFailure pairs an issue with the human-readable reason its automated fix
// did not apply.
type FixFailure struct {
	Issue  Issue  `json:"issue"`
	Reason string `json:"reason"`
}

// FixReport is the outcome of one auto-remediation pass.
type FixReport struct {
	Fixed  []Issue      `json:"fixed"`
	Failed []FixFailure `json:"failed"`
}
