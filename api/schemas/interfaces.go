package schemas

import (
	"context"
	"fmt"
)

// -- Scanner Contract --

// ScanConfig is the finished configuration handed to every scanner. It is
// produced once by configuration finalization before any scanner executes.
type ScanConfig struct {
	// ProjectRoot is the absolute path of the tree under analysis.
	ProjectRoot string
	// Include restricts analysis to these glob patterns when non-empty.
	Include []string
	// Exclude removes matching paths from analysis.
	Exclude []string
	// Concurrency bounds in-flight work inside scanners that walk many files.
	Concurrency int
	// EnabledScanners holds the names of scanners the run should execute.
	// Empty means all registered scanners.
	EnabledScanners []string
}

// WantsScanner reports whether the configuration asks for the named scanner.
func (c ScanConfig) WantsScanner(name string) bool {
	if len(c.EnabledScanners) == 0 {
		return true
	}
	for _, n := range c.EnabledScanners {
		if n == name {
			return true
		}
	}
	return false
}

// Scanner is the fixed contract every pluggable analysis unit implements.
// The orchestrator treats implementations as black boxes: it filters on
// CanRun, executes Run concurrently with the other scanners, and absorbs any
// returned error as a ScanError without letting it disturb the rest of the
// run.
type Scanner interface {
	// Name identifies the scanner in issue sources and cache entries.
	Name() string
	// CanRun reports whether the scanner applies to the configured project.
	CanRun(cfg ScanConfig) bool
	// Run executes the scan and returns every issue it found. A non-nil
	// error means the scanner produced no usable result this run.
	Run(ctx context.Context, cfg ScanConfig) ([]Issue, error)
}

// ScanError wraps a single scanner's failure. It is always recoverable: the
// orchestrator records it on the result and continues with the remaining
// scanners.
type ScanError struct {
	Scanner string
	Err     error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanner %q failed: %v", e.Scanner, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
