package results

import (
	"encoding/json"
	"fmt"
)

// ExportFilename is the download name for exported analyses.
const ExportFilename = "resume-analysis.json"

// ExportError wraps a failure to serialize a result.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export analysis: %v", e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

type exportDocument struct {
	ResumeAnalysis AnalysisResult `json:"resume_analysis"`
}

// Export serializes the result as indented JSON under resume_analysis. The
// output is byte-identical for the same in-memory result.
func Export(r AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(exportDocument{ResumeAnalysis: r}, "", "  ")
	if err != nil {
		return nil, &ExportError{Err: err}
	}
	return append(data, '\n'), nil
}
