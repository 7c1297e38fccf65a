package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// markdownEscaper neutralizes the characters that would let untrusted issue
// text inject markup or raw HTML into the rendered document.
var markdownEscaper = strings.NewReplacer(
	"|", "\\|",
	"<", "&lt;",
	">", "&gt;",
	"`", "\\`",
	"*", "\\*",
	"_", "\\_",
	"[", "\\[",
	"]", "\\]",
)

func mdEscape(s string) string {
	return markdownEscaper.Replace(s)
}

// markdownRenderer produces the human-readable report: a summary table, the
// issues grouped by category, and the version-control and deployment
// sections when the run captured them.
type markdownRenderer struct{}

func (r *markdownRenderer) Format() string { return "markdown" }

func (r *markdownRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	var b strings.Builder

	b.WriteString("# Project Health Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Health score | %d/100 |\n", result.Health.Score)
	fmt.Fprintf(&b, "| Total issues | %d |\n", len(result.Issues))
	for _, level := range []schemas.SeverityLevel{
		schemas.LevelCritical, schemas.LevelHigh, schemas.LevelMedium, schemas.LevelLow, schemas.LevelInfo,
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", titleCase(string(level)), result.Health.SeverityCounts[level])
	}
	fmt.Fprintf(&b, "| Scanners | %s |\n", strings.Join(result.Scanners, ", "))
	b.WriteString("\n")

	if len(result.Failures) > 0 {
		b.WriteString("## Scanner Failures\n\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&b, "- **%s**: %s\n", mdEscape(f.Scanner), mdEscape(f.Reason))
		}
		b.WriteString("\n")
	}

	if len(result.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, category := range sortedCategories(result.Issues) {
			fmt.Fprintf(&b, "### %s\n\n", mdEscape(category))
			for _, issue := range result.Issues {
				if issue.Category != category {
					continue
				}
				location := issue.Location.File
				if issue.Location.Line > 0 {
					location = fmt.Sprintf("%s:%d", issue.Location.File, issue.Location.Line)
				}
				fmt.Fprintf(&b, "- **%s** (%s) — `%s`\n", mdEscape(issue.Title), issue.Severity.Level, location)
				fmt.Fprintf(&b, "  %s\n", mdEscape(issue.Description))
				if issue.Suggestion != "" {
					fmt.Fprintf(&b, "  - Suggestion: %s\n", mdEscape(issue.Suggestion))
				}
			}
			b.WriteString("\n")
		}
	}

	if result.VCS != nil {
		b.WriteString("## Version Control\n\n")
		fmt.Fprintf(&b, "- Branch: `%s`\n", result.VCS.Branch)
		fmt.Fprintf(&b, "- Commit: `%s`\n", result.VCS.Commit)
		fmt.Fprintf(&b, "- Dirty: %t\n", result.VCS.Dirty)
		if n := len(result.VCS.ModifiedFiles); n > 0 {
			fmt.Fprintf(&b, "- Modified files: %d\n", n)
		}
		if n := len(result.VCS.UntrackedFiles); n > 0 {
			fmt.Fprintf(&b, "- Untracked files: %d\n", n)
		}
		b.WriteString("\n")
	}

	if len(result.Deployment) > 0 {
		b.WriteString("## Deployment Checklist\n\n")
		for _, check := range result.Deployment {
			mark := " "
			if check.Passed {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s — %s\n", mark, mdEscape(check.Name), mdEscape(check.Detail))
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// titleCase upper-cases the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sortedCategories returns the distinct categories in alphabetical order so
// the section layout is stable across runs.
func sortedCategories(issues []schemas.Issue) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, issue := range issues {
		if _, ok := seen[issue.Category]; !ok {
			seen[issue.Category] = struct{}{}
			categories = append(categories, issue.Category)
		}
	}
	sort.Strings(categories)
	return categories
}
