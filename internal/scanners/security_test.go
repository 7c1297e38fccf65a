// internal/scanners/security_test.go
package scanners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// A structurally valid JWT (HS256 header, simple claims). Never a live
// credential; it only has to parse.
const fixtureJWT = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJzdWIiOiIxMjM0NTY3ODkwIiwibmFtZSI6IkpvaG4gRG9lIn0." +
	"SflKxwRJSMeKKF2QT4fwpMeJf36POk6yJV_adQssw5c"

func TestSecurityScannerDetectsDangerousPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js": `const out = eval(userInput);
el.innerHTML = markup;
document.write("<p>hi</p>");
const apiKey = "sk-abcdef1234567890";
`,
	})

	issues := runScanner(t, NewSecurity(zap.NewNop()), root)

	assert.ElementsMatch(t, []string{
		"security/eval",
		"security/inner-html",
		"security/document-write",
		"security/hardcoded-secret",
	}, rulesFound(issues))

	for _, issue := range issues {
		assert.Equal(t, "security", issue.Source)
		assert.Equal(t, "Security", issue.Category)
		assert.Equal(t, "src/app.js", issue.Location.File)
		require.NotNil(t, issue.Metadata)
		assert.NotEmpty(t, issue.Metadata.LineChecksum)
	}
}

func TestSecurityScannerReportsOneIssuePerMatchingLine(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.js": "eval(x);\neval(y);\n",
	})

	issues := runScanner(t, NewSecurity(zap.NewNop()), root)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Location.Line)
	assert.Equal(t, 2, issues[1].Location.Line)
}

func TestSecurityScannerConfirmsJWTsByParsing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"token.js": "const token = \"" + fixtureJWT + "\";\n",
		// JWT-shaped but not a decodable token.
		"fake.js": "const id = \"eyJunkjunk.notbase64json.xxxx\";\n",
	})

	issues := runScanner(t, NewSecurity(zap.NewNop()), root)

	var jwtIssues []schemas.Issue
	for _, issue := range issues {
		if issue.RuleID == "security/hardcoded-jwt" {
			jwtIssues = append(jwtIssues, issue)
		}
	}
	require.Len(t, jwtIssues, 1)
	assert.Equal(t, "token.js", jwtIssues[0].Location.File)
	assert.Equal(t, schemas.LevelCritical, jwtIssues[0].Severity.Level)
}

func TestSecurityScannerCleanFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"clean.js": "export const add = (a, b) => a + b;\n",
	})

	issues := runScanner(t, NewSecurity(zap.NewNop()), root)
	assert.Empty(t, issues)
}
