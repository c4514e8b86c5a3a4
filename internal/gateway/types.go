package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// ResumeFile is a resume blob on its way to the backend.
type ResumeFile struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// JobPost is the job post form payload.
type JobPost struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	JobURL      string `json:"jobUrl,omitempty"`
}

// JobPostAck is the backend's acknowledgement of a created job post.
type JobPostAck struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ResumeAck is the backend's acknowledgement of an uploaded resume.
type ResumeAck struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

// CompareRequest asks the backend to compare two LinkedIn profiles.
type CompareRequest struct {
	UserURL       string `json:"user_url"`
	ReferenceURL  string `json:"reference_url"`
	JobRole       string `json:"job_role"`
	TargetCompany string `json:"target_company,omitempty"`
}

// Text accepts a JSON string, number, bool or list and keeps it as text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(strings.Join(flatten(data), ", "))
	return nil
}

// List accepts a JSON list of scalars or a single scalar.
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	*l = flatten(data)
	return nil
}

func flatten(data []byte) []string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		var out []string
		for _, item := range items {
			out = append(out, flatten(item)...)
		}
		return out
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	}
	if trimmed[0] == '{' {
		return nil
	}
	return []string{string(trimmed)}
}

// Designation is one role held at a company.
type Designation struct {
	Designation string `json:"designation"`
	Duration    Text   `json:"duration"`
	Location    Text   `json:"location"`
	Projects    Text   `json:"projects"`
}

// Experience is one company on a profile.
type Experience struct {
	CompanyName  string        `json:"company_name"`
	Duration     Text          `json:"duration"`
	Designations []Designation `json:"designations"`
}

// Education is one school on a profile.
type Education struct {
	College  string `json:"college"`
	Degree   Text   `json:"degree"`
	Duration Text   `json:"duration"`
	Grade    Text   `json:"grade"`
}

// Skill is one listed skill.
type Skill struct {
	SkillName string `json:"skill_name"`
}

// Profile is a scraped LinkedIn profile. Raw keeps the full document.
type Profile struct {
	Name       string          `json:"name"`
	Headline   Text            `json:"headline"`
	URL        string          `json:"url"`
	About      Text            `json:"about"`
	Experience []Experience    `json:"experience"`
	Education  []Education     `json:"education"`
	Skills     []Skill         `json:"skills"`
	Raw        json.RawMessage `json:"-"`
}

// SkillsComparison lists shared and missing skills.
type SkillsComparison struct {
	MatchingSkills     List `json:"matching_skills"`
	MissingSkills      List `json:"missing_skills"`
	SkillGapPercentage Text `json:"skill_gap_percentage"`
}

// ExperienceAnalysis compares career paths.
type ExperienceAnalysis struct {
	Alignment   Text `json:"alignment"`
	Gaps        List `json:"gaps"`
	Suggestions List `json:"suggestions"`
}

// EducationComparison compares schooling.
type EducationComparison struct {
	Analysis        Text `json:"analysis"`
	Recommendations List `json:"recommendations"`
}

// ActionableRecommendations are next steps for the user.
type ActionableRecommendations struct {
	Steps               List `json:"steps"`
	PrioritySkills      List `json:"priority_skills"`
	RecommendedProjects List `json:"recommended_projects"`
}

// ComparisonAnalysis is the AI verdict on two profiles.
type ComparisonAnalysis struct {
	SkillsComparison          SkillsComparison          `json:"skills_comparison"`
	ExperienceAnalysis        ExperienceAnalysis        `json:"experience_analysis"`
	EducationComparison       EducationComparison       `json:"education_comparison"`
	ActionableRecommendations ActionableRecommendations `json:"actionable_recommendations"`
	Strengths                 List                      `json:"strengths"`
}

// Comparison is the compare endpoint response.
type Comparison struct {
	UserProfile      *Profile           `json:"user_profile"`
	ReferenceProfile *Profile           `json:"reference_profile"`
	Analysis         ComparisonAnalysis `json:"analysis"`
}

// Resource is a learning link attached to a recommendation.
type Resource struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Recommendation groups resources for one skill.
type Recommendation struct {
	Skill     string     `json:"skill"`
	Resources []Resource `json:"resources"`
}

// SavedAnalysis is a stored resume-vs-job analysis.
type SavedAnalysis struct {
	ID      string `json:"id"`
	JobPost struct {
		Title      string `json:"title"`
		Company    string `json:"company"`
		ParsedData struct {
			RequiredSkills List `json:"requiredSkills"`
		} `json:"parsedData"`
	} `json:"jobPost"`
	Resume struct {
		FileName   string `json:"fileName"`
		ParsedData struct {
			Skills List `json:"skills"`
		} `json:"parsedData"`
	} `json:"resume"`
	SkillScore float64 `json:"skillScore"`
	SkillGap   struct {
		Missing List `json:"missing"`
	} `json:"skillGap"`
	Recommendations []Recommendation `json:"recommendations"`
}

// MatchedSkills returns required skills that overlap a resume skill, case-insensitively and by substring.
func (a SavedAnalysis) MatchedSkills() []string {
	var out []string
	for _, required := range a.JobPost.ParsedData.RequiredSkills {
		r := strings.ToLower(required)
		for _, have := range a.Resume.ParsedData.Skills {
			h := strings.ToLower(have)
			if strings.Contains(h, r) || strings.Contains(r, h) {
				out = append(out, required)
				break
			}
		}
	}
	return out
}

// ScoreLabel buckets the skill score into a verdict.
func (a SavedAnalysis) ScoreLabel() string {
	switch {
	case a.SkillScore >= 80:
		return "Excellent"
	case a.SkillScore >= 60:
		return "Good"
	case a.SkillScore >= 40:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// ScoreTone picks the ring color for the skill score.
func (a SavedAnalysis) ScoreTone() string {
	switch {
	case a.SkillScore >= 70:
		return "good"
	case a.SkillScore >= 40:
		return "fair"
	default:
		return "poor"
	}
}
