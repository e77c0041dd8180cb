package types

import "strings"

// Seniority is a hint extracted from a job advertisement. It only drives
// template selection and never affects matching or validation.
type Seniority string

const (
	SeniorityUnknown   Seniority = ""
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityExecutive Seniority = "executive"
)

// ParseSeniority maps free-text level descriptions to a Seniority value.
func ParseSeniority(s string) Seniority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior", "entry", "entry-level", "intern":
		return SeniorityJunior
	case "mid", "mid-level", "intermediate":
		return SeniorityMid
	case "senior", "lead", "staff", "principal":
		return SenioritySenior
	case "executive", "director", "vp", "c-level", "chief":
		return SeniorityExecutive
	default:
		return SeniorityUnknown
	}
}

// JobRequirement is the structured view of a job advertisement.
type JobRequirement struct {
	Position       string    `json:"position"`
	Company        string    `json:"company,omitempty"`
	RequiredSkills []string  `json:"requiredSkills"`
	Qualifications []string  `json:"qualifications"`
	Seniority      Seniority `json:"seniority,omitempty"`
}

// RequiredItems returns the combined list of required skills and
// qualifications, in order. Gap analysis and match scoring operate on
// this combined list.
func (j *JobRequirement) RequiredItems() []string {
	items := make([]string, 0, len(j.RequiredSkills)+len(j.Qualifications))
	items = append(items, j.RequiredSkills...)
	return append(items, j.Qualifications...)
}

// Gap is a required skill or qualification from the job advertisement that
// is absent from the candidate's canonical resume.
type Gap struct {
	ID          string `json:"id"`
	Category    string `json:"category"` // "skill" or "qualification"
	Description string `json:"description"`
	RequiredBy  string `json:"requiredBy"`
}

// Question is a targeted question generated for a single gap.
type Question struct {
	ID    string `json:"id"`
	GapID string `json:"gapId"`
	Text  string `json:"question"`
}

// Questionnaire bundles the gap questions with a rough completion estimate.
type Questionnaire struct {
	Questions        []Question `json:"questions"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
}

// Answer pairs a gap with the user-provided response collected by the
// interaction stage.
type Answer struct {
	GapID    string `json:"gapId"`
	Gap      string `json:"gap"`
	Response string `json:"response"`
}
