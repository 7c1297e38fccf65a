// -- internal/reporting/sarif_renderer.go --
package reporting

import (
	"fmt"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "triage-cli"
	ToolInfoURI  = "https://github.com/xkilldash9x/triage-cli"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// sarifRenderer emits the machine-interchange format: one run, one
// de-duplicated rule per distinct rule ID, one result per issue. JSON
// encoding handles escaping, so untrusted issue text cannot break the
// document structure.
type sarifRenderer struct {
	version string
}

func (r *sarifRenderer) Format() string { return "sarif" }

func (r *sarifRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	driver := &sarif.ToolComponent{
		Name:           ToolName,
		Version:        pString(r.version),
		InformationURI: pString(ToolInfoURI),
		Rules:          []*sarif.ReportingDescriptor{},
	}
	run := &sarif.Run{
		Tool:    &sarif.Tool{Driver: driver},
		Results: []*sarif.Result{},
	}

	seenRules := make(map[string]bool)
	for _, issue := range result.Issues {
		if !seenRules[issue.RuleID] {
			seenRules[issue.RuleID] = true
			rule := &sarif.ReportingDescriptor{
				ID:               issue.RuleID,
				Name:             pString(issue.Title),
				ShortDescription: &sarif.MultiformatMessageString{Text: pString(issue.Title)},
			}
			if issue.Suggestion != "" {
				rule.Help = &sarif.MultiformatMessageString{Text: pString(issue.Suggestion)}
			}
			if issue.Documentation != "" {
				rule.HelpURI = pString(issue.Documentation)
			}
			driver.Rules = append(driver.Rules, rule)
		}

		messageText := issue.Description
		if messageText == "" {
			messageText = issue.Title
		}
		run.Results = append(run.Results, &sarif.Result{
			RuleID:    issue.RuleID,
			Message:   &sarif.Message{Text: pString(messageText)},
			Level:     mapSeverityLevel(issue.Severity.Level),
			Locations: []*sarif.Location{issueLocation(issue)},
		})
	}

	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs:    []*sarif.Run{run},
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode SARIF log: %w", err)
	}
	return string(data) + "\n", nil
}

// issueLocation converts an issue location into the SARIF physical location
// block. Line and column stay 1-based; zero values are omitted.
func issueLocation(issue schemas.Issue) *sarif.Location {
	physical := &sarif.PhysicalLocation{
		ArtifactLocation: &sarif.ArtifactLocation{URI: pString(issue.Location.File)},
	}
	if issue.Location.Line > 0 {
		region := &sarif.Region{StartLine: pInt(issue.Location.Line)}
		if issue.Location.Column > 0 {
			region.StartColumn = pInt(issue.Location.Column)
		}
		physical.Region = region
	}
	return &sarif.Location{PhysicalLocation: physical}
}

// mapSeverityLevel converts the engine's severity to the SARIF standard:
// critical and high are errors, medium is a warning, low and info are notes.
func mapSeverityLevel(level schemas.SeverityLevel) sarif.Level {
	switch level {
	case schemas.LevelCritical, schemas.LevelHigh:
		return sarif.LevelError
	case schemas.LevelMedium:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string { return &s }

// pInt returns a pointer to the given int value.
func pInt(i int) *int { return &i }
