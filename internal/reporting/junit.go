// -- internal/reporting/junit.go --
package reporting

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// junitRenderer maps the analysis onto the JUnit XML schema so CI systems
// can surface issues as test failures. Every issue is a testcase; only
// critical and high severities carry a <failure> element and count toward
// the suite's failure total.
type junitRenderer struct{}

func (r *junitRenderer) Format() string { return "junit" }

func (r *junitRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	failures := 0
	for _, issue := range result.Issues {
		if junitFails(issue.Severity.Level) {
			failures++
		}
	}

	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", ToolName)
	suite.CreateAttr("tests", fmt.Sprintf("%d", len(result.Issues)))
	suite.CreateAttr("failures", fmt.Sprintf("%d", failures))
	suite.CreateAttr("time", fmt.Sprintf("%.3f", result.Duration))
	suite.CreateAttr("timestamp", result.StartedAt.UTC().Format("2006-01-02T15:04:05"))

	for _, issue := range result.Issues {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", issue.Title)
		tc.CreateAttr("classname", fmt.Sprintf("%s.%s", issue.Source, issue.Category))
		tc.CreateAttr("file", issue.Location.File)
		tc.CreateAttr("line", fmt.Sprintf("%d", issue.Location.Line))

		if junitFails(issue.Severity.Level) {
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", issue.Title)
			failure.CreateAttr("type", string(issue.Severity.Level))
			text := issue.Description
			if issue.Suggestion != "" {
				text += "\nSuggestion: " + issue.Suggestion
			}
			failure.SetText(text)
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize JUnit document: %w", err)
	}
	return out, nil
}

func junitFails(level schemas.SeverityLevel) bool {
	return level == schemas.LevelCritical || level == schemas.LevelHigh
}
