package results

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestExportIsDeterministic(t *testing.T) {
	r := Decode(loadFixture(t, "analysis_wrapped.json"))
	first, err := Export(r)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := Export(r)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected byte-identical exports")
	}
	if !bytes.HasPrefix(first, []byte("{\n  \"resume_analysis\": {\n")) {
		t.Fatalf("unexpected export prefix: %s", first[:40])
	}
	overview := bytes.Index(first, []byte(`"job_title_match"`))
	industry := bytes.Index(first, []byte(`"industry_fit"`))
	if overview < 0 || industry < 0 || overview > industry {
		t.Fatalf("expected backend key order preserved in export")
	}
}

func TestExportReflectsKeywordRemoval(t *testing.T) {
	r := Decode(loadFixture(t, "analysis_wrapped.json"))
	r.RemoveKeyword(KeywordPresent, "React")

	data, err := Export(r)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(string(data), `"React"`) {
		t.Fatalf("expected React removed from export")
	}

	var roundTrip struct {
		ResumeAnalysis struct {
			CriticalGaps []Gap `json:"critical_gaps"`
		} `json:"resume_analysis"`
	}
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if len(roundTrip.ResumeAnalysis.CriticalGaps) != 3 {
		t.Fatalf("expected gaps exported as a list")
	}
}

func TestExportErrorUnwraps(t *testing.T) {
	inner := json.Unmarshal([]byte("{"), &struct{}{})
	err := &ExportError{Err: inner}
	if !strings.HasPrefix(err.Error(), "export analysis:") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err.Unwrap() != inner {
		t.Fatalf("expected Unwrap to return inner error")
	}
}
