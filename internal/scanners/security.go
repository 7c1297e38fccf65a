package scanners

import (
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// jwtCandidateRe matches the three-segment base64url shape of a JWT. A match
// is only reported after the token actually parses, so random identifiers
// with dots do not trip the rule.
var jwtCandidateRe = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]*`)

// NewSecurity builds the security scanner: line-level heuristics over script
// sources plus hardcoded-credential detection.
func NewSecurity(logger *zap.Logger) schemas.Scanner {
	return &ruleScanner{
		name:     "security",
		kind:     "security",
		category: "Security",
		exts:     []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
		logger:   logger.Named("security"),
		rules: []lineRule{
			{
				id:          "security/eval",
				level:       schemas.LevelCritical,
				title:       "Use of eval",
				description: "eval executes arbitrary strings as code and is a direct injection vector.",
				suggestion:  "Replace eval with JSON.parse or an explicit dispatch table.",
				docs:        "https://developer.mozilla.org/docs/Web/JavaScript/Reference/Global_Objects/eval",
				match:       reMatch(`\beval\s*\(`),
			},
			{
				id:          "security/inner-html",
				level:       schemas.LevelHigh,
				title:       "Assignment to innerHTML",
				description: "Writing markup through innerHTML lets attacker-controlled strings become live DOM.",
				suggestion:  "Assign to textContent, or sanitize the markup before insertion.",
				autoFixable: true,
				docs:        "https://developer.mozilla.org/docs/Web/API/Element/innerHTML",
				match:       reMatch(`\.innerHTML\s*=`),
			},
			{
				id:          "security/document-write",
				level:       schemas.LevelMedium,
				title:       "Use of document.write",
				description: "document.write injects unparsed markup and breaks on async execution.",
				suggestion:  "Build nodes with the DOM API and append them instead.",
				autoFixable: true,
				match:       reMatch(`document\.write\s*\(`),
			},
			{
				id:          "security/hardcoded-secret",
				level:       schemas.LevelCritical,
				title:       "Hardcoded credential",
				description: "A credential-shaped literal is committed to the source tree.",
				suggestion:  "Move the value into the environment or a secret manager and rotate it.",
				match:       reMatch(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*["'][^"']{8,}["']`),
			},
		},
		extra: jwtFindings,
	}
}

// jwtFindings confirms JWT-shaped literals by parsing them unverified. Only
// structurally valid tokens are flagged.
func jwtFindings(line string) []lineFinding {
	var findings []lineFinding
	for _, candidate := range jwtCandidateRe.FindAllString(line, -1) {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(strings.TrimSpace(candidate), jwt.MapClaims{}); err != nil {
			continue
		}
		findings = append(findings, lineFinding{rule: lineRule{
			id:          "security/hardcoded-jwt",
			level:       schemas.LevelCritical,
			title:       "Hardcoded JWT",
			description: "A structurally valid JSON Web Token is embedded in the source tree.",
			suggestion:  "Remove the token, rotate the signing key, and load tokens at runtime.",
			docs:        "https://datatracker.ietf.org/doc/html/rfc7519",
		}})
	}
	return findings
}
