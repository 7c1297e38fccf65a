// internal/reporting/junit_test.go
package reporting

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

func parseJUnit(t *testing.T, result *schemas.AnalysisResult) *etree.Element {
	t.Helper()
	out, err := (&junitRenderer{}).Render(result)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	suite := doc.FindElement("//testsuite")
	require.NotNil(t, suite)
	return suite
}

func TestJUnitCountsOnlySeriousSeveritiesAsFailures(t *testing.T) {
	suite := parseJUnit(t, testResult(
		testIssue("security/eval", schemas.LevelCritical, "a.js", 1),
		testIssue("security/inner-html", schemas.LevelHigh, "b.js", 2),
		testIssue("performance/sync-fs", schemas.LevelMedium, "c.js", 3),
		testIssue("performance/console-log", schemas.LevelLow, "d.js", 4),
	))

	assert.Equal(t, "4", suite.SelectAttrValue("tests", ""))
	assert.Equal(t, "2", suite.SelectAttrValue("failures", ""))

	cases := suite.FindElements("testcase")
	require.Len(t, cases, 4)

	failures := suite.FindElements("testcase/failure")
	assert.Len(t, failures, 2)
}

func TestJUnitTestcaseAttributes(t *testing.T) {
	suite := parseJUnit(t, testResult(testIssue("security/eval", schemas.LevelCritical, "src/a.js", 7)))

	tc := suite.FindElement("testcase")
	require.NotNil(t, tc)
	assert.Equal(t, "Dangerous construct", tc.SelectAttrValue("name", ""))
	assert.Equal(t, "security.security", tc.SelectAttrValue("classname", ""))
	assert.Equal(t, "src/a.js", tc.SelectAttrValue("file", ""))
	assert.Equal(t, "7", tc.SelectAttrValue("line", ""))

	failure := tc.FindElement("failure")
	require.NotNil(t, failure)
	assert.Equal(t, "critical", failure.SelectAttrValue("type", ""))
	assert.Contains(t, failure.Text(), "A dangerous construct was found.")
	assert.Contains(t, failure.Text(), "Suggestion: Remove it.")
}

func TestJUnitEscapesMarkupInText(t *testing.T) {
	issue := testIssue("security/eval", schemas.LevelCritical, "a.js", 1)
	issue.Description = `uses <script>alert("x")</script>`

	out, err := (&junitRenderer{}).Render(testResult(issue))
	require.NoError(t, err)

	// The raw markup must not survive unescaped.
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")

	// And the parsed document recovers the original text.
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	failure := doc.FindElement("//failure")
	require.NotNil(t, failure)
	assert.Contains(t, failure.Text(), `uses <script>alert("x")</script>`)
}
