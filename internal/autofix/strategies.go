package autofix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

var (
	imgTagRe      = regexp.MustCompile(`<img\b[^>]*?(/?)>`)
	consoleCallRe = regexp.MustCompile(`^\s*console\.(log|debug|trace)\s*\(.*\)\s*;?\s*$`)
)

// fixAccessibility handles the accessibility category. Currently it repairs
// images with no alternative text by inserting an empty alt attribute, which
// marks the image decorative until an author supplies real text.
func fixAccessibility(lines []string, lineIdx int, issue schemas.Issue) ([]string, error) {
	line := lines[lineIdx]
	if !strings.Contains(line, "<img") {
		return nil, fmt.Errorf("no <img> tag on line %d to repair", lineIdx+1)
	}
	if strings.Contains(line, "alt=") {
		return nil, fmt.Errorf("line %d already carries an alt attribute", lineIdx+1)
	}

	fixed := imgTagRe.ReplaceAllStringFunc(line, func(tag string) string {
		if strings.HasSuffix(tag, "/>") {
			return strings.TrimSuffix(tag, "/>") + `alt="" />`
		}
		return strings.TrimSuffix(tag, ">") + ` alt="">`
	})
	lines[lineIdx] = fixed
	return lines, nil
}

// securityRewrites maps security rule IDs to safe line-level substitutions.
// Rules without an entry cannot be rewritten mechanically and fail the
// attempt with a reason instead.
var securityRewrites = map[string]struct {
	from *regexp.Regexp
	to   string
}{
	"security/inner-html": {
		from: regexp.MustCompile(`\.innerHTML\s*=`),
		to:   ".textContent =",
	},
	"security/document-write": {
		from: regexp.MustCompile(`document\.write\s*\(`),
		to:   "document.body.append(",
	},
}

// fixSecurity applies the substitution registered for the issue's rule.
func fixSecurity(lines []string, lineIdx int, issue schemas.Issue) ([]string, error) {
	rewrite, ok := securityRewrites[issue.RuleID]
	if !ok {
		return nil, fmt.Errorf("no automated rewrite for rule %s; manual review required", issue.RuleID)
	}

	line := lines[lineIdx]
	if !rewrite.from.MatchString(line) {
		return nil, fmt.Errorf("line %d no longer matches rule %s", lineIdx+1, issue.RuleID)
	}
	lines[lineIdx] = rewrite.from.ReplaceAllString(line, rewrite.to)
	return lines, nil
}

// fixPerformance handles the performance category. Leftover console logging
// is deleted outright; other performance findings have no mechanical fix.
func fixPerformance(lines []string, lineIdx int, issue schemas.Issue) ([]string, error) {
	if issue.RuleID != "performance/console-log" {
		return nil, fmt.Errorf("no automated rewrite for rule %s; manual review required", issue.RuleID)
	}
	if !consoleCallRe.MatchString(lines[lineIdx]) {
		return nil, fmt.Errorf("line %d is not a bare console call", lineIdx+1)
	}
	return append(lines[:lineIdx], lines[lineIdx+1:]...), nil
}

// annotateSuggestion is the fallback strategy: the issue's suggestion is
// appended to the offending line as an inline annotation so the finding
// survives in the source until someone addresses it.
func annotateSuggestion(lines []string, lineIdx int, issue schemas.Issue) ([]string, error) {
	if issue.Suggestion == "" {
		return nil, fmt.Errorf("issue carries no suggestion to annotate")
	}
	if strings.Contains(lines[lineIdx], "FIXME(triage):") {
		return nil, fmt.Errorf("line %d is already annotated", lineIdx+1)
	}
	lines[lineIdx] = lines[lineIdx] + " // FIXME(triage): " + issue.Suggestion
	return lines, nil
}
