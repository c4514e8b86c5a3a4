// Package results models the analysis document returned by the backend and
// turns it into something the review page can render and export.
package results

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// KeywordKind selects one of the three keyword groups.
type KeywordKind string

const (
	KeywordPresent   KeywordKind = "present"
	KeywordMissing   KeywordKind = "missing"
	KeywordSuggested KeywordKind = "suggested"
)

// KeywordKinds lists the groups in display order.
var KeywordKinds = []KeywordKind{KeywordPresent, KeywordMissing, KeywordSuggested}

// ParseKeywordKind accepts both the short and the backend spelling of a group.
func ParseKeywordKind(raw string) (KeywordKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present", "present_keywords":
		return KeywordPresent, true
	case "missing", "missing_keywords":
		return KeywordMissing, true
	case "suggested", "suggested_keywords":
		return KeywordSuggested, true
	default:
		return "", false
	}
}

// Gap is one critical gap with the backend's advice for closing it.
type Gap struct {
	Description string `json:"description"`
	Suggestions string `json:"suggestions,omitempty"`
}

// KeywordAnalysis groups keywords found, missing and suggested for the resume.
type KeywordAnalysis struct {
	Present   []string `json:"present_keywords"`
	Missing   []string `json:"missing_keywords"`
	Suggested []string `json:"suggested_keywords"`
}

// AnalysisResult is the decoded analysis. A nil or empty section means the
// backend omitted it or sent something unusable.
type AnalysisResult struct {
	QuickOverview         *orderedmap.OrderedMap[string, string]   `json:"quick_overview,omitempty"`
	ScoreBreakdown        *orderedmap.OrderedMap[string, string]   `json:"score_breakdown,omitempty"`
	CriticalGaps          []Gap                                    `json:"critical_gaps,omitempty"`
	KeywordAnalysis       *KeywordAnalysis                         `json:"keyword_analysis,omitempty"`
	ImprovementPlan       *orderedmap.OrderedMap[string, []string] `json:"improvement_plan,omitempty"`
	SuccessMetrics        *orderedmap.OrderedMap[string, string]   `json:"success_metrics,omitempty"`
	CustomizedSuggestions []string                                 `json:"customized_suggestions,omitempty"`
}

const wrapperKey = "resume_analysis"

type rawObject = orderedmap.OrderedMap[string, json.RawMessage]

// Decode reads an analysis document. Each section is decoded on its own so a
// malformed section never discards the others. The document may be wrapped in
// a resume_analysis object.
func Decode(data []byte) AnalysisResult {
	doc := decodeObject(data)
	if doc == nil {
		return AnalysisResult{}
	}
	if inner, ok := doc.Get(wrapperKey); ok {
		if unwrapped := decodeObject(inner); unwrapped != nil {
			doc = unwrapped
		}
	}

	var out AnalysisResult
	if raw, ok := doc.Get("quick_overview"); ok {
		out.QuickOverview = decodeStringMap(raw)
	}
	if raw, ok := doc.Get("score_breakdown"); ok {
		out.ScoreBreakdown = decodeStringMap(raw)
	}
	if raw, ok := doc.Get("critical_gaps"); ok {
		out.CriticalGaps = decodeGaps(raw)
	}
	if raw, ok := doc.Get("keyword_analysis"); ok {
		out.KeywordAnalysis = decodeKeywords(raw)
	}
	if raw, ok := doc.Get("improvement_plan"); ok {
		out.ImprovementPlan = decodePlan(raw)
	}
	if raw, ok := doc.Get("success_metrics"); ok {
		out.SuccessMetrics = decodeStringMap(raw)
	}
	if raw, ok := doc.Get("customized_suggestions"); ok {
		out.CustomizedSuggestions = decodeStringList(raw)
	}
	return out
}

// Keywords returns the keywords of one group.
func (r *AnalysisResult) Keywords(kind KeywordKind) []string {
	if r == nil || r.KeywordAnalysis == nil {
		return nil
	}
	switch kind {
	case KeywordPresent:
		return r.KeywordAnalysis.Present
	case KeywordMissing:
		return r.KeywordAnalysis.Missing
	case KeywordSuggested:
		return r.KeywordAnalysis.Suggested
	default:
		return nil
	}
}

// RemoveKeyword drops every occurrence of keyword from the group. The change
// is local; only a fresh analysis brings the keyword back.
func (r *AnalysisResult) RemoveKeyword(kind KeywordKind, keyword string) bool {
	if r == nil || r.KeywordAnalysis == nil {
		return false
	}
	var target *[]string
	switch kind {
	case KeywordPresent:
		target = &r.KeywordAnalysis.Present
	case KeywordMissing:
		target = &r.KeywordAnalysis.Missing
	case KeywordSuggested:
		target = &r.KeywordAnalysis.Suggested
	default:
		return false
	}
	kept := make([]string, 0, len(*target))
	for _, k := range *target {
		if k != keyword {
			kept = append(kept, k)
		}
	}
	if len(kept) == len(*target) {
		return false
	}
	*target = kept
	return true
}

func decodeObject(data []byte) *rawObject {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	obj := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, obj); err != nil {
		return nil
	}
	return obj
}

// scalarString renders JSON strings, numbers and booleans as text.
func scalarString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

func decodeStringMap(raw json.RawMessage) *orderedmap.OrderedMap[string, string] {
	obj := decodeObject(raw)
	if obj == nil {
		return nil
	}
	out := orderedmap.New[string, string]()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if s, ok := scalarString(pair.Value); ok {
			out.Set(pair.Key, s)
		}
	}
	return out
}

func decodeStringList(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if s, ok := scalarString(trimmed); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalarString(item); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeGaps(raw json.RawMessage) []Gap {
	trimmed := bytes.TrimSpace(raw)
	var items []json.RawMessage
	if obj := decodeObject(trimmed); obj != nil {
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			items = append(items, pair.Value)
		}
	} else if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}

	out := make([]Gap, 0, len(items))
	for _, item := range items {
		if gap, ok := decodeGap(item); ok {
			out = append(out, gap)
		}
	}
	return out
}

func decodeGap(raw json.RawMessage) (Gap, bool) {
	if s, ok := scalarString(raw); ok {
		s = strings.TrimSpace(s)
		return Gap{Description: s}, s != ""
	}
	obj := decodeObject(raw)
	if obj == nil {
		return Gap{}, false
	}
	var gap Gap
	if v, ok := obj.Get("description"); ok {
		gap.Description, _ = scalarString(v)
	}
	if v, ok := obj.Get("suggestions"); ok {
		gap.Suggestions = strings.Join(decodeStringList(v), " ")
	}
	if gap.Description == "" && gap.Suggestions == "" {
		return Gap{}, false
	}
	return gap, true
}

func decodeKeywords(raw json.RawMessage) *KeywordAnalysis {
	obj := decodeObject(raw)
	if obj == nil {
		return nil
	}
	var out KeywordAnalysis
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		kind, ok := ParseKeywordKind(pair.Key)
		if !ok {
			continue
		}
		list := decodeStringList(pair.Value)
		switch kind {
		case KeywordPresent:
			out.Present = list
		case KeywordMissing:
			out.Missing = list
		case KeywordSuggested:
			out.Suggested = list
		}
	}
	return &out
}

func decodePlan(raw json.RawMessage) *orderedmap.OrderedMap[string, []string] {
	obj := decodeObject(raw)
	if obj == nil {
		return nil
	}
	out := orderedmap.New[string, []string]()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if steps := decodeStringList(pair.Value); len(steps) > 0 {
			out.Set(pair.Key, steps)
		}
	}
	return out
}
