package scanners

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// NewAccessibility builds the accessibility scanner over markup-bearing
// sources.
func NewAccessibility(logger *zap.Logger) schemas.Scanner {
	return &ruleScanner{
		name:     "accessibility",
		kind:     "accessibility",
		category: "Accessibility",
		exts:     []string{".html", ".htm", ".jsx", ".tsx"},
		logger:   logger.Named("accessibility"),
		rules: []lineRule{
			{
				id:          "accessibility/img-alt",
				level:       schemas.LevelHigh,
				title:       "Image without alternative text",
				description: "Screen readers have nothing to announce for an image with no alt attribute.",
				suggestion:  "Add a descriptive alt attribute, or alt=\"\" for purely decorative images.",
				autoFixable: true,
				docs:        "https://www.w3.org/WAI/tutorials/images/",
				match: func(line string) bool {
					return strings.Contains(line, "<img") && !strings.Contains(line, "alt=")
				},
			},
			{
				id:          "accessibility/click-div",
				level:       schemas.LevelMedium,
				title:       "Click handler on non-interactive element",
				description: "A div or span with a click handler is unreachable by keyboard and invisible to assistive tech.",
				suggestion:  "Use a button, or add role and key handlers plus tabindex.",
				match:       reMatch(`<(div|span)\b[^>]*\bon[cC]lick\s*=`),
			},
			{
				id:          "accessibility/autoplay",
				level:       schemas.LevelLow,
				title:       "Autoplaying media",
				description: "Media that starts on its own disorients screen reader users and cannot always be stopped.",
				suggestion:  "Drop the autoplay attribute and let the user start playback.",
				match:       reMatch(`<(video|audio)\b[^>]*\bautoplay\b`),
			},
		},
	}
}
