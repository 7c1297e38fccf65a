// internal/autofix/fixer_test.go
package autofix

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFixture(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func fixableIssue(rule, category, file string, line int, lineText string) schemas.Issue {
	return schemas.Issue{
		ID:          schemas.NewIssueID(),
		RuleID:      rule,
		Category:    category,
		AutoFixable: true,
		Location:    schemas.Location{File: file, Line: line},
		Metadata:    &schemas.IssueMetadata{LineChecksum: schemas.LineChecksum(lineText)},
	}
}

func TestFixInsertsEmptyAltAttribute(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "index.html", `<div>
<img src="logo.png">
</div>
`)

	issue := fixableIssue("accessibility/img-alt", "accessibility", "index.html", 2, `<img src="logo.png">`)
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Empty(t, report.Failed)
	require.Len(t, report.Fixed, 1)
	assert.Contains(t, readFixture(t, root, "index.html"), `<img src="logo.png" alt="">`)
}

func TestFixRewritesInnerHTMLAssignment(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.js", "el.innerHTML = userInput;\n")

	issue := fixableIssue("security/inner-html", "security", "app.js", 1, "el.innerHTML = userInput;")
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Empty(t, report.Failed)
	assert.Contains(t, readFixture(t, root, "app.js"), "el.textContent = userInput;")
}

func TestFixDeletesConsoleLogLine(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.js", "const a = 1;\nconsole.log(a);\nreturn a;\n")

	issue := fixableIssue("performance/console-log", "performance", "app.js", 2, "console.log(a);")
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Empty(t, report.Failed)
	fixed := readFixture(t, root, "app.js")
	assert.NotContains(t, fixed, "console.log")
	assert.Equal(t, "const a = 1;\nreturn a;\n", fixed)
}

func TestFixAnnotatesWhenNoStrategyExists(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.ts", "let x: any = load();\n")

	issue := fixableIssue("types/ts7006", "types", "app.ts", 1, "let x: any = load();")
	issue.Suggestion = "declare an explicit type"
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Empty(t, report.Failed)
	assert.Contains(t, readFixture(t, root, "app.ts"), "// FIXME(triage): declare an explicit type")
}

func TestFixRefusesChangedLine(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.js", "el.innerHTML = somethingElse;\n")

	// Checksum was stamped against the line as it looked during analysis.
	issue := fixableIssue("security/inner-html", "security", "app.js", 1, "el.innerHTML = userInput;")
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "changed since analysis")
	// The file is untouched.
	assert.Equal(t, "el.innerHTML = somethingElse;\n", readFixture(t, root, "app.js"))
}

func TestFixDryRunLeavesFilesUntouched(t *testing.T) {
	root := t.TempDir()
	original := "console.log(1);\n"
	writeFixture(t, root, "app.js", original)

	issue := fixableIssue("performance/console-log", "performance", "app.js", 1, "console.log(1);")
	report := New(root, true, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Len(t, report.Fixed, 1)
	assert.Equal(t, original, readFixture(t, root, "app.js"))
}

func TestFixContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "good.js", "console.log(1);\n")

	missing := fixableIssue("performance/console-log", "performance", "gone.js", 1, "console.log(1);")
	good := fixableIssue("performance/console-log", "performance", "good.js", 1, "console.log(1);")

	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{missing, good})

	require.Len(t, report.Failed, 1)
	require.Len(t, report.Fixed, 1)
	assert.Equal(t, "good.js", report.Fixed[0].Location.File)
}

func TestFixRejectsOutOfRangeLine(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "short.js", "console.log(1);\n")

	issue := fixableIssue("performance/console-log", "performance", "short.js", 99, "console.log(1);")
	report := New(root, false, zap.NewNop()).Fix(context.Background(), []schemas.Issue{issue})

	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "beyond the end")
}

func TestFixCancelledContextFailsRemaining(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.js", "console.log(1);\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	issue := fixableIssue("performance/console-log", "performance", "app.js", 1, "console.log(1);")
	report := New(root, false, zap.NewNop()).Fix(ctx, []schemas.Issue{issue})

	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "cancelled")
}

func TestAnnotateSuggestionRequiresSuggestion(t *testing.T) {
	lines := []string{"let x = 1;"}
	_, err := annotateSuggestion(lines, 0, schemas.Issue{})
	assert.Error(t, err)
}

func TestFixAccessibilitySkipsExistingAlt(t *testing.T) {
	lines := []string{`<img src="a.png" alt="logo">`}
	_, err := fixAccessibility(lines, 0, schemas.Issue{})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "alt"))
}
