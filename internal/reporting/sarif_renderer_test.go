// internal/reporting/sarif_renderer_test.go
package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/reporting/sarif"
)

func renderSARIF(t *testing.T, result *schemas.AnalysisResult) *sarif.Log {
	t.Helper()
	out, err := (&sarifRenderer{version: "0.1.0"}).Render(result)
	require.NoError(t, err)

	var log sarif.Log
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	return &log
}

func TestSARIFDocumentShape(t *testing.T) {
	log := renderSARIF(t, testResult(testIssue("security/eval", schemas.LevelCritical, "src/a.js", 3)))

	assert.Equal(t, SARIFVersion, log.Version)
	require.Len(t, log.Runs, 1)

	driver := log.Runs[0].Tool.Driver
	assert.Equal(t, ToolName, driver.Name)
	require.NotNil(t, driver.Version)
	assert.Equal(t, "0.1.0", *driver.Version)
}

func TestSARIFDeduplicatesRules(t *testing.T) {
	result := testResult(
		testIssue("security/eval", schemas.LevelCritical, "a.js", 1),
		testIssue("security/eval", schemas.LevelCritical, "b.js", 2),
		testIssue("security/inner-html", schemas.LevelHigh, "c.js", 3),
	)
	log := renderSARIF(t, result)

	run := log.Runs[0]
	// Three results, but only two distinct rules.
	assert.Len(t, run.Results, 3)
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "security/eval", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "security/inner-html", run.Tool.Driver.Rules[1].ID)
}

func TestSARIFSeverityMapping(t *testing.T) {
	tests := []struct {
		level schemas.SeverityLevel
		want  sarif.Level
	}{
		{schemas.LevelCritical, sarif.LevelError},
		{schemas.LevelHigh, sarif.LevelError},
		{schemas.LevelMedium, sarif.LevelWarning},
		{schemas.LevelLow, sarif.LevelNote},
		{schemas.LevelInfo, sarif.LevelNote},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			log := renderSARIF(t, testResult(testIssue("rule/x", tt.level, "a.js", 1)))
			require.Len(t, log.Runs[0].Results, 1)
			assert.Equal(t, tt.want, log.Runs[0].Results[0].Level)
		})
	}
}

func TestSARIFRegionIsOneBased(t *testing.T) {
	log := renderSARIF(t, testResult(testIssue("rule/x", schemas.LevelHigh, "src/a.js", 42)))

	require.Len(t, log.Runs[0].Results, 1)
	loc := log.Runs[0].Results[0].Locations[0].PhysicalLocation
	require.NotNil(t, loc.Region)
	require.NotNil(t, loc.Region.StartLine)
	assert.Equal(t, 42, *loc.Region.StartLine)
	require.NotNil(t, loc.Region.StartColumn)
	assert.Equal(t, 5, *loc.Region.StartColumn)
	assert.Equal(t, "src/a.js", *loc.ArtifactLocation.URI)
}

func TestSARIFOmitsRegionWithoutLine(t *testing.T) {
	issue := testIssue("deployment/missing-artifact", schemas.LevelMedium, "Dockerfile", 0)
	issue.Location.Column = 0
	log := renderSARIF(t, testResult(issue))

	loc := log.Runs[0].Results[0].Locations[0].PhysicalLocation
	assert.Nil(t, loc.Region)
}
