// -- internal/reporting/csv.go --
package reporting

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

var csvHeader = []string{
	"id", "rule_id", "severity", "category", "scanner",
	"file", "line", "column", "title", "description", "suggestion", "auto_fixable",
}

// csvRenderer writes one row per issue, RFC 4180 quoting throughout: a
// field containing a comma, quote, or newline is wrapped in quotes with
// embedded quotes doubled.
type csvRenderer struct{}

func (r *csvRenderer) Format() string { return "csv" }

func (r *csvRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	var b strings.Builder
	writeCSVRow(&b, csvHeader)

	for _, issue := range result.Issues {
		writeCSVRow(&b, []string{
			issue.ID,
			issue.RuleID,
			string(issue.Severity.Level),
			issue.Category,
			issue.Source,
			issue.Location.File,
			fmt.Sprintf("%d", issue.Location.Line),
			fmt.Sprintf("%d", issue.Location.Column),
			issue.Title,
			issue.Description,
			issue.Suggestion,
			fmt.Sprintf("%t", issue.AutoFixable),
		})
	}

	// Trailing summary block, separated from the issue rows by a blank line.
	b.WriteByte('\n')
	writeCSVRow(&b, []string{"summary_field", "value"})
	writeCSVRow(&b, []string{"health_score", fmt.Sprintf("%d", result.Health.Score)})
	writeCSVRow(&b, []string{"total_issues", fmt.Sprintf("%d", len(result.Issues))})
	for _, level := range []schemas.SeverityLevel{
		schemas.LevelCritical, schemas.LevelHigh, schemas.LevelMedium, schemas.LevelLow, schemas.LevelInfo,
	} {
		writeCSVRow(&b, []string{string(level), fmt.Sprintf("%d", result.Health.SeverityCounts[level])})
	}
	writeCSVRow(&b, []string{"scanner_failures", fmt.Sprintf("%d", len(result.Failures))})

	return b.String(), nil
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSV(field))
	}
	b.WriteByte('\n')
}

// escapeCSV quotes a field when it contains a delimiter, quote, or line
// break. `a, "b"` becomes `"a, ""b"""`.
func escapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
