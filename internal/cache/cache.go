// Package cache implements the content-addressed result cache: per file, the
// issues last produced for it, keyed by a hash of the file bytes rather than
// its mtime. Editor round-trips that do not change bytes stay cache hits.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// Version identifies the persisted document layout. A mismatch invalidates
// the entire store; there is no partial migration.
const Version = "1"

// artifactName is the single JSON document the store persists to.
const artifactName = "results.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CorruptionError flags a persisted artifact that could not be used. It is
// never fatal: the store logs it and cold-starts.
type CorruptionError struct {
	Path   string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("cache artifact %s is unusable: %s", e.Path, e.Reason)
}

// Entry is the cached state for one file.
type Entry struct {
	ContentHash string          `json:"content_hash"`
	Issues      []schemas.Issue `json:"issues"`
	ProducedBy  []string        `json:"produced_by"`
	Timestamp   time.Time       `json:"timestamp"`
}

// document is the persisted shape of the whole store.
type document struct {
	Version string           `json:"version"`
	Files   map[string]Entry `json:"files"`
}

// Store maps project-relative file paths to their last-known analysis
// results. One Store is bound to one orchestration session: Open loads or
// cold-starts it, Save flushes it exactly once after the scanner fan-in.
type Store struct {
	logger *zap.Logger
	root   string
	path   string
	maxAge time.Duration

	mu    sync.Mutex
	files map[string]Entry
}

// Open loads the persisted store for the project, or starts empty when the
// artifact is absent, corrupt, or carries a different version. Corruption is
// logged and treated as a cold start, never surfaced to the run.
func Open(projectRoot string, cfg config.CacheConfig, logger *zap.Logger) *Store {
	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}

	s := &Store{
		logger: logger.Named("cache"),
		root:   projectRoot,
		path:   filepath.Join(dir, artifactName),
		maxAge: cfg.MaxAge,
		files:  make(map[string]Entry),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read cache artifact, starting cold",
				zap.String("path", s.path), zap.Error(err))
		}
		return s
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		corrupt := &CorruptionError{Path: s.path, Reason: err.Error()}
		s.logger.Warn("Cache artifact corrupt, starting cold", zap.Error(corrupt))
		return s
	}
	if doc.Version != Version {
		s.logger.Info("Cache version mismatch, starting cold",
			zap.String("found", doc.Version), zap.String("want", Version))
		return s
	}
	if doc.Files != nil {
		s.files = doc.Files
	}

	s.logger.Debug("Cache loaded", zap.Int("entries", len(s.files)))
	return s
}

// Get returns the cached issues for a file if the freshness invariant holds:
// the requested scanner set is covered by the entry, the file's current
// content hash matches, and the entry is younger than the configured max age.
// A violated invariant evicts the entry in place and reports a miss.
func (s *Store) Get(file string, requiredScanners []string) ([]schemas.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.files[file]
	if !ok {
		return nil, false
	}

	if !coveredBy(requiredScanners, entry.ProducedBy) {
		delete(s.files, file)
		return nil, false
	}
	if s.maxAge > 0 && time.Since(entry.Timestamp) >= s.maxAge {
		delete(s.files, file)
		return nil, false
	}

	hash, err := s.hashFile(file)
	if err != nil || hash != entry.ContentHash {
		delete(s.files, file)
		return nil, false
	}

	return entry.Issues, true
}

// Set computes a fresh content hash for the file and replaces its entry
// wholesale. Entries are never patched partially.
func (s *Store) Set(file string, issues []schemas.Issue, producedBy []string) error {
	hash, err := s.hashFile(file)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", file, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file] = Entry{
		ContentHash: hash,
		Issues:      issues,
		ProducedBy:  producedBy,
		Timestamp:   time.Now(),
	}
	return nil
}

// Invalidate removes the listed entries without touching the rest.
func (s *Store) Invalidate(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.files, p)
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Save serializes the whole store to its artifact. The orchestrator calls
// this exactly once per run, after every scanner has finished; it is the only
// writer of the artifact.
func (s *Store) Save() error {
	s.mu.Lock()
	doc := document{Version: Version, Files: s.files}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache artifact: %w", err)
	}

	s.logger.Debug("Cache saved", zap.String("path", s.path), zap.Int("entries", len(doc.Files)))
	return nil
}

// Clear resets the in-memory state and deletes the persisted artifact. A
// missing artifact is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.files = make(map[string]Entry)
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache artifact: %w", err)
	}
	return nil
}

// hashFile hashes the current bytes of a project-relative file.
func (s *Store) hashFile(file string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, file))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// coveredBy reports whether every required scanner contributed to the entry.
func coveredBy(required, producedBy []string) bool {
	have := make(map[string]struct{}, len(producedBy))
	for _, p := range producedBy {
		have[p] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}
