// internal/reporting/markdown_test.go
package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

func TestMarkdownSummaryTable(t *testing.T) {
	result := testResult(
		testIssue("security/eval", schemas.LevelCritical, "a.js", 1),
		testIssue("security/inner-html", schemas.LevelHigh, "b.js", 2),
	)

	out, err := (&markdownRenderer{}).Render(result)
	require.NoError(t, err)

	assert.Contains(t, out, "# Project Health Report")
	assert.Contains(t, out, "| Health score | 70/100 |")
	assert.Contains(t, out, "| Total issues | 2 |")
	assert.Contains(t, out, "| Critical | 1 |")
	assert.Contains(t, out, "| High | 1 |")
	assert.Contains(t, out, "| Scanners | security, performance |")
}

func TestMarkdownEscapesUntrustedText(t *testing.T) {
	issue := testIssue("security/eval", schemas.LevelHigh, "a.js", 1)
	issue.Title = "uses <script> | code"
	issue.Description = "breaks [tables] *badly*"

	out, err := (&markdownRenderer{}).Render(testResult(issue))
	require.NoError(t, err)

	assert.Contains(t, out, "uses &lt;script&gt; \\| code")
	assert.Contains(t, out, "breaks \\[tables\\] \\*badly\\*")
	assert.NotContains(t, out, "<script>")
}

func TestMarkdownGroupsIssuesByCategory(t *testing.T) {
	sec := testIssue("security/eval", schemas.LevelHigh, "a.js", 1)
	perf := testIssue("performance/sync-fs", schemas.LevelMedium, "b.js", 2)
	perf.Category = "performance"

	out, err := (&markdownRenderer{}).Render(testResult(sec, perf))
	require.NoError(t, err)

	perfIdx := strings.Index(out, "### performance")
	secIdx := strings.Index(out, "### security")
	require.GreaterOrEqual(t, perfIdx, 0)
	require.GreaterOrEqual(t, secIdx, 0)
	// Categories are alphabetical.
	assert.Less(t, perfIdx, secIdx)
}

func TestMarkdownOptionalSections(t *testing.T) {
	result := testResult()
	out, err := (&markdownRenderer{}).Render(result)
	require.NoError(t, err)
	assert.NotContains(t, out, "## Version Control")
	assert.NotContains(t, out, "## Deployment Checklist")

	result.VCS = &schemas.VCSSnapshot{Branch: "main", Commit: "abc1234", Dirty: true}
	result.Deployment = []schemas.DeploymentCheck{
		{Name: "Dockerfile", Passed: true, Detail: "present"},
		{Name: "README", Passed: false, Detail: "missing"},
	}
	out, err = (&markdownRenderer{}).Render(result)
	require.NoError(t, err)

	assert.Contains(t, out, "## Version Control")
	assert.Contains(t, out, "- Branch: `main`")
	assert.Contains(t, out, "- [x] Dockerfile")
	assert.Contains(t, out, "- [ ] README")
}
