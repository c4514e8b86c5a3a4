package results

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tones used by the templates to pick colors.
const (
	ToneGood    = "good"
	ToneFair    = "fair"
	TonePoor    = "poor"
	ToneCaution = "caution"
	ToneNeutral = "neutral"
)

// Empty-state messages for sections the backend omitted or mangled.
const (
	EmptyOverview    = "No quick overview available."
	EmptyScores      = "No score breakdown available."
	EmptyGaps        = "No critical gaps identified."
	EmptyKeywords    = "No keyword analysis available."
	EmptyPlan        = "No improvement plan available."
	EmptyMetrics     = "No success metrics available."
	EmptySuggestions = "No customized suggestions available."
)

// Section is one independently rendered block of the review page.
type Section[T any] struct {
	Title string
	Items []T
	Empty string
}

// HasItems reports whether the section has anything to show.
func (s Section[T]) HasItems() bool {
	return len(s.Items) > 0
}

// Badge is a quick-overview status.
type Badge struct {
	Label string
	Value string
	Tone  string
}

// Bar is a score rendered as a progress bar.
type Bar struct {
	Label string
	Value string
	Width string
	Tone  string
}

// GapView is a numbered critical gap.
type GapView struct {
	Number      int
	Description string
	Suggestions string
}

// KeywordGroup is one removable chip list.
type KeywordGroup struct {
	Kind     KeywordKind
	Title    string
	Keywords []string
	Empty    string
}

// PlanPhase is one improvement-plan phase.
type PlanPhase struct {
	Title string
	Steps []string
}

// Metric is a labeled success metric.
type Metric struct {
	Label string
	Value string
}

// View is the render model for the review page.
type View struct {
	Overview    Section[Badge]
	Scores      Section[Bar]
	Gaps        Section[GapView]
	Keywords    Section[KeywordGroup]
	Plan        Section[PlanPhase]
	Metrics     Section[Metric]
	Suggestions Section[string]
}

// Render maps a result to its view. It never fails: every section falls back
// to its empty-state message independently.
func Render(r AnalysisResult) View {
	v := View{
		Overview:    Section[Badge]{Title: "Quick Overview", Empty: EmptyOverview},
		Scores:      Section[Bar]{Title: "Score Breakdown", Empty: EmptyScores},
		Gaps:        Section[GapView]{Title: "Critical Gaps", Empty: EmptyGaps},
		Keywords:    Section[KeywordGroup]{Title: "Keyword Analysis", Empty: EmptyKeywords},
		Plan:        Section[PlanPhase]{Title: "Improvement Plan", Empty: EmptyPlan},
		Metrics:     Section[Metric]{Title: "Success Metrics", Empty: EmptyMetrics},
		Suggestions: Section[string]{Title: "Customized Suggestions", Empty: EmptySuggestions},
	}

	eachString(r.QuickOverview, func(k, val string) {
		v.Overview.Items = append(v.Overview.Items, Badge{Label: Humanize(k), Value: val, Tone: BadgeTone(val)})
	})
	eachString(r.ScoreBreakdown, func(k, val string) {
		width, pct, ok := ProgressWidth(val)
		tone := TonePoor
		if ok {
			tone = BarTone(pct)
		}
		v.Scores.Items = append(v.Scores.Items, Bar{Label: Humanize(k), Value: val, Width: width, Tone: tone})
	})
	for i, gap := range r.CriticalGaps {
		v.Gaps.Items = append(v.Gaps.Items, GapView{Number: i + 1, Description: gap.Description, Suggestions: gap.Suggestions})
	}
	if r.KeywordAnalysis != nil {
		for _, kind := range KeywordKinds {
			title := Humanize(string(kind)) + " Keywords"
			v.Keywords.Items = append(v.Keywords.Items, KeywordGroup{
				Kind:     kind,
				Title:    title,
				Keywords: append([]string(nil), r.Keywords(kind)...),
				Empty:    "No " + strings.ToLower(title) + ".",
			})
		}
	}
	if r.ImprovementPlan != nil {
		for pair := r.ImprovementPlan.Oldest(); pair != nil; pair = pair.Next() {
			v.Plan.Items = append(v.Plan.Items, PlanPhase{Title: Humanize(pair.Key), Steps: append([]string(nil), pair.Value...)})
		}
	}
	eachString(r.SuccessMetrics, func(k, val string) {
		v.Metrics.Items = append(v.Metrics.Items, Metric{Label: Humanize(k), Value: val})
	})
	v.Suggestions.Items = append(v.Suggestions.Items, r.CustomizedSuggestions...)
	return v
}

func eachString(m *orderedmap.OrderedMap[string, string], fn func(k, v string)) {
	if m == nil {
		return
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Humanize turns snake_case keys into title-cased labels, keeping acronyms.
func Humanize(key string) string {
	parts := strings.Split(key, "_")
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		words = append(words, string(unicode.ToUpper(r))+p[size:])
	}
	return strings.Join(words, " ")
}

var percentPattern = regexp.MustCompile(`^-?\d+(\.\d+)?%$`)

// ProgressWidth converts a percentage string into a CSS width clamped to
// 0-100%. Anything other than a number followed by % yields "0%" and ok=false.
func ProgressWidth(value string) (width string, pct float64, ok bool) {
	trimmed := strings.TrimSpace(value)
	if !percentPattern.MatchString(trimmed) {
		return "0%", 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "%"), 64)
	if err != nil {
		return "0%", 0, false
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + "%", n, true
}

// BarTone picks the bar color for a clamped percentage.
func BarTone(pct float64) string {
	switch {
	case pct >= 70:
		return ToneGood
	case pct >= 50:
		return ToneFair
	default:
		return TonePoor
	}
}

// BadgeTone picks the badge color for a quick-overview status.
func BadgeTone(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "high":
		return ToneGood
	case "medium":
		return ToneFair
	case "low":
		return TonePoor
	case "entry-level":
		return ToneCaution
	default:
		return ToneNeutral
	}
}
