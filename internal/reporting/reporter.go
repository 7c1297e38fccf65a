// -- internal/reporting/reporter.go --
// Report renderers. Every renderer is a pure function from one
// AnalysisResult to a string; writing the string anywhere is the caller's
// business. Issue titles and descriptions are untrusted input and each
// renderer escapes them by its target format's rules.
package reporting

import (
	"fmt"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// Renderer converts a unified analysis result into one output format.
type Renderer interface {
	// Render produces the complete report document.
	Render(result *schemas.AnalysisResult) (string, error)
	// Format returns the renderer's registry name.
	Format() string
}

// FormatInfo pairs a format with its content type and file extension.
type FormatInfo struct {
	ContentType string
	Extension   string
}

// formats is the renderer registry. Terminal output has no meaningful file
// extension; it is a stream format.
var formats = map[string]FormatInfo{
	"json":     {ContentType: "application/json", Extension: ".json"},
	"markdown": {ContentType: "text/markdown", Extension: ".md"},
	"terminal": {ContentType: "text/plain", Extension: ""},
	"sarif":    {ContentType: "application/sarif+json", Extension: ".sarif"},
	"csv":      {ContentType: "text/csv", Extension: ".csv"},
	"junit":    {ContentType: "application/xml", Extension: ".xml"},
}

// Info returns the content-type/extension pairing for a format.
func Info(format string) (FormatInfo, bool) {
	info, ok := formats[format]
	return info, ok
}

// New creates the renderer for the requested format. The tool version is
// carried into formats that embed a tool descriptor.
func New(format, toolVersion string) (Renderer, error) {
	switch format {
	case "json":
		return &jsonRenderer{}, nil
	case "markdown":
		return &markdownRenderer{}, nil
	case "terminal":
		return &terminalRenderer{}, nil
	case "sarif":
		return &sarifRenderer{version: toolVersion}, nil
	case "csv":
		return &csvRenderer{}, nil
	case "junit":
		return &junitRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
