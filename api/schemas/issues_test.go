// api/schemas/issues_test.go
package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityWeights(t *testing.T) {
	tests := []struct {
		level SeverityLevel
		want  int
	}{
		{LevelCritical, 20},
		{LevelHigh, 10},
		{LevelMedium, 5},
		{LevelLow, 1},
		{LevelInfo, 0},
		{SeverityLevel("bogus"), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Severity{Level: tt.level}.Weight(), string(tt.level))
	}
}

func TestNewIssueIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewIssueID()
		assert.NotEmpty(t, id)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestLineChecksumIgnoresSurroundingWhitespace(t *testing.T) {
	base := LineChecksum("console.log(x);")
	assert.Equal(t, base, LineChecksum("   console.log(x);\t"))
	assert.NotEqual(t, base, LineChecksum("console.log(y);"))
	assert.Len(t, base, 16)
}

func TestWantsScanner(t *testing.T) {
	all := ScanConfig{}
	assert.True(t, all.WantsScanner("security"))

	some := ScanConfig{EnabledScanners: []string{"security", "syntax"}}
	assert.True(t, some.WantsScanner("syntax"))
	assert.False(t, some.WantsScanner("performance"))
}

func TestScanErrorWrapsCause(t *testing.T) {
	cause := errors.New("walk failed")
	err := &ScanError{Scanner: "security", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"security"`)
}
