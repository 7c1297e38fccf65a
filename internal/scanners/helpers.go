// Package scanners holds the built-in scanner set. Every scanner satisfies
// the schemas.Scanner contract and is a black box to the orchestrator; the
// file-walking ones share the collection helpers and the cache plumbing in
// this file.
package scanners

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/cache"
)

// Directories never worth scanning, regardless of configuration.
var skippedDirs = map[string]struct{}{
	".git":         {},
	".triage":      {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"vendor":       {},
}

// collectFiles walks the project tree and returns root-relative paths of
// regular files matching one of the extensions, honoring the configured
// include and exclude patterns.
func collectFiles(cfg schemas.ScanConfig, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(cfg.ProjectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := skippedDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		matched := false
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		rel, err := filepath.Rel(cfg.ProjectRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, cfg.Exclude) {
			return nil
		}
		if len(cfg.Include) > 0 && !included(rel, cfg.Include) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if strings.Contains(rel, p) {
			return true
		}
	}
	return false
}

func included(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if strings.Contains(rel, p) {
			return true
		}
	}
	return false
}

// readLines loads a root-relative file and splits it into lines.
func readLines(root, rel string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

// contextAround extracts up to two lines either side of idx (zero-based).
func contextAround(lines []string, idx int) *schemas.IssueContext {
	if idx < 0 || idx >= len(lines) {
		return nil
	}
	ctx := &schemas.IssueContext{Line: lines[idx]}
	for i := max(0, idx-2); i < idx; i++ {
		ctx.Before = append(ctx.Before, lines[i])
	}
	for i := idx + 1; i <= idx+2 && i < len(lines); i++ {
		ctx.After = append(ctx.After, lines[i])
	}
	return ctx
}

// severityFor fills the advisory impact and urgency axes from the level.
func severityFor(level schemas.SeverityLevel) schemas.Severity {
	s := schemas.Severity{Level: level}
	switch level {
	case schemas.LevelCritical:
		s.Impact, s.Urgency = schemas.ImpactBlocking, schemas.UrgencyImmediate
	case schemas.LevelHigh:
		s.Impact, s.Urgency = schemas.ImpactMajor, schemas.UrgencyHigh
	case schemas.LevelMedium:
		s.Impact, s.Urgency = schemas.ImpactMinor, schemas.UrgencyMedium
	case schemas.LevelLow:
		s.Impact, s.Urgency = schemas.ImpactMinor, schemas.UrgencyLow
	default:
		s.Impact, s.Urgency = schemas.ImpactCosmetic, schemas.UrgencyLow
	}
	return s
}

// lineMetadata stamps provenance for an issue anchored to a source line.
func lineMetadata(line string) *schemas.IssueMetadata {
	return &schemas.IssueMetadata{
		LineChecksum: schemas.LineChecksum(line),
		Timestamp:    time.Now(),
	}
}

// cacheAware is embedded by scanners that use the session result cache. The
// orchestrator injects the store before the run starts; access is guarded
// because injection and the scanner goroutine may race on repeated runs.
type cacheAware struct {
	mu    sync.Mutex
	store *cache.Store
}

// SetCache satisfies orchestrator.CacheAware.
func (c *cacheAware) SetCache(store *cache.Store) {
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
}

// cached looks up a file's issues for the named scanner.
func (c *cacheAware) cached(file, scanner string) ([]schemas.Issue, bool) {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()
	if store == nil {
		return nil, false
	}
	return store.Get(file, []string{scanner})
}

// remember records a file's freshly computed issues for the named scanner.
// Cache write failures only cost a rescan, so they are swallowed here.
func (c *cacheAware) remember(file, scanner string, issues []schemas.Issue) {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()
	if store == nil {
		return
	}
	_ = store.Set(file, issues, []string{scanner})
}
