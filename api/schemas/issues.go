package schemas

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// -- Issue Schemas --

// SeverityLevel ranks how serious a finding is, from critical down to
// informational. The values are lowercase to keep renderer output stable.
type SeverityLevel string

// Constants defining the standard severity levels for issues.
const (
	LevelCritical SeverityLevel = "critical" // Must be addressed before anything ships.
	LevelHigh     SeverityLevel = "high"     // Serious defect, prioritized remediation.
	LevelMedium   SeverityLevel = "medium"   // Should be scheduled for a fix.
	LevelLow      SeverityLevel = "low"      // Minor defect or smell.
	LevelInfo     SeverityLevel = "info"     // Informational only, no deduction.
)

// SeverityImpact describes how much of the project a finding degrades.
type SeverityImpact string

const (
	ImpactBlocking SeverityImpact = "blocking"
	ImpactMajor    SeverityImpact = "major"
	ImpactMinor    SeverityImpact = "minor"
	ImpactCosmetic SeverityImpact = "cosmetic"
)

// SeverityUrgency describes how soon a finding needs attention.
type SeverityUrgency string

const (
	UrgencyImmediate SeverityUrgency = "immediate"
	UrgencyHigh      SeverityUrgency = "high"
	UrgencyMedium    SeverityUrgency = "medium"
	UrgencyLow       SeverityUrgency = "low"
)

// Severity is the full three-axis classification of one issue. Level drives
// the health score deduction; Impact and Urgency are advisory dimensions
// carried through to the renderers untouched.
type Severity struct {
	Level   SeverityLevel   `json:"level"`
	Impact  SeverityImpact  `json:"impact"`
	Urgency SeverityUrgency `json:"urgency"`
}

// Weight returns the health score deduction for the severity level.
func (s Severity) Weight() int {
	switch s.Level {
	case LevelCritical:
		return 20
	case LevelHigh:
		return 10
	case LevelMedium:
		return 5
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// Location points at the offending spot in the project tree. File is always
// relative to the project root. Line and Column are 1-based and zero when the
// finding applies to the whole file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IssueContext carries up to two lines either side of the offending line so a
// reader can orient without opening the file.
type IssueContext struct {
	Before []string `json:"before,omitempty"`
	Line   string   `json:"line"`
	After  []string `json:"after,omitempty"`
}

// IssueMetadata holds provenance details attached by the scanner that
// produced the issue.
type IssueMetadata struct {
	// LineChecksum is a content checksum of the offending line, used to
	// detect drift between analysis and remediation.
	LineChecksum string    `json:"line_checksum,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Component    string    `json:"component,omitempty"`
	Framework    string    `json:"framework,omitempty"`
}

// Issue encapsulates one normalized finding produced by a scanner. Issues are
// immutable once created; a re-run produces a fresh issue set rather than
// mutating a previous one.
type Issue struct {
	ID       string   `json:"id"`   // Unique within one analysis run.
	Kind     string   `json:"kind"` // Open category, e.g. "security", "performance".
	Severity Severity `json:"severity"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    Location `json:"location"`

	RuleID   string `json:"rule_id"`
	Category string `json:"category"` // Display grouping used by the renderers.
	Source   string `json:"source"`   // Name of the scanner that produced the issue.

	Suggestion    string `json:"suggestion,omitempty"`
	AutoFixable   bool   `json:"auto_fixable"`
	Documentation string `json:"documentation,omitempty"`

	Context  *IssueContext  `json:"context,omitempty"`
	Metadata *IssueMetadata `json:"metadata,omitempty"`
}

// NewIssueID returns an opaque identifier for a freshly created issue.
func NewIssueID() string {
	return uuid.NewString()
}

// LineChecksum is the shared checksum of one source line, used by scanners
// when stamping IssueMetadata and by the fixer to detect drift before
// touching a file. Leading and trailing whitespace does not participate.
func LineChecksum(line string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(line)))
	return hex.EncodeToString(sum[:8])
}
