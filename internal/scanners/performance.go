package scanners

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// NewPerformance builds the performance scanner: line-level heuristics for
// common event-loop and rendering hazards in script sources.
func NewPerformance(logger *zap.Logger) schemas.Scanner {
	return &ruleScanner{
		name:     "performance",
		kind:     "performance",
		category: "Performance",
		exts:     []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
		logger:   logger.Named("performance"),
		rules: []lineRule{
			{
				id:          "performance/console-log",
				level:       schemas.LevelLow,
				title:       "Leftover console logging",
				description: "Console calls in shipped code add noise and measurable overhead in hot paths.",
				suggestion:  "Remove the console call or route it through a leveled logger.",
				autoFixable: true,
				match:       reMatch(`^\s*console\.(log|debug|trace)\s*\(`),
			},
			{
				id:          "performance/sync-fs",
				level:       schemas.LevelMedium,
				title:       "Synchronous filesystem call",
				description: "Synchronous fs APIs block the event loop for the full duration of the I/O.",
				suggestion:  "Use the promise-based fs API and await the result.",
				docs:        "https://nodejs.org/api/fs.html#synchronous-api",
				match:       reMatch(`\b(readFileSync|writeFileSync|readdirSync|statSync)\s*\(`),
			},
			{
				id:          "performance/json-clone",
				level:       schemas.LevelMedium,
				title:       "Deep clone via JSON round-trip",
				description: "JSON.parse(JSON.stringify(...)) serializes the whole object graph and silently drops functions and dates.",
				suggestion:  "Use structuredClone for deep copies.",
				match:       reMatch(`JSON\.parse\s*\(\s*JSON\.stringify`),
			},
		},
	}
}
