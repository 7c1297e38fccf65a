package reporting

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// maxTerminalIssues caps the issue listing; anything beyond it collapses
// into a single "...and N more" line.
const maxTerminalIssues = 20

// severityMarkers are the terminal severity glyphs.
var severityMarkers = map[schemas.SeverityLevel]string{
	schemas.LevelCritical: "🔴",
	schemas.LevelHigh:     "🟠",
	schemas.LevelMedium:   "🟡",
	schemas.LevelLow:      "🟢",
	schemas.LevelInfo:     "⚪",
}

// terminalRenderer produces the interactive report stream: a boxed header,
// emoji severity markers, and a capped issue listing.
type terminalRenderer struct{}

func (r *terminalRenderer) Format() string { return "terminal" }

func (r *terminalRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	var b strings.Builder

	title := "Triage — Project Health"
	width := len([]rune(title)) + 4
	b.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
	b.WriteString("│  " + title + "  │\n")
	b.WriteString("└" + strings.Repeat("─", width) + "┘\n\n")

	fmt.Fprintf(&b, "Health score: %d/100\n", result.Health.Score)
	fmt.Fprintf(&b, "Issues: %d  (🔴 %d  🟠 %d  🟡 %d  🟢 %d)\n\n",
		len(result.Issues),
		result.Health.SeverityCounts[schemas.LevelCritical],
		result.Health.SeverityCounts[schemas.LevelHigh],
		result.Health.SeverityCounts[schemas.LevelMedium],
		result.Health.SeverityCounts[schemas.LevelLow],
	)

	for i, issue := range result.Issues {
		if i == maxTerminalIssues {
			fmt.Fprintf(&b, "...and %d more\n", len(result.Issues)-maxTerminalIssues)
			break
		}
		marker, ok := severityMarkers[issue.Severity.Level]
		if !ok {
			marker = "⚪"
		}
		location := issue.Location.File
		if issue.Location.Line > 0 {
			location = fmt.Sprintf("%s:%d", issue.Location.File, issue.Location.Line)
		}
		fmt.Fprintf(&b, "%s [%s] %s (%s)\n", marker, issue.Severity.Level, issue.Title, location)
	}

	if len(result.Failures) > 0 {
		b.WriteString("\nScanner failures:\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&b, "  ✗ %s: %s\n", f.Scanner, f.Reason)
		}
	}

	return b.String(), nil
}
