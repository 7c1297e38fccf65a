package reporting

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonRenderer emits the result at full fidelity: stable two-space
// indentation, every field present in the schema, lossless round trip.
type jsonRenderer struct{}

func (r *jsonRenderer) Format() string { return "json" }

func (r *jsonRenderer) Render(result *schemas.AnalysisResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data) + "\n", nil
}
