// Package types defines the canonical data structures shared by all pipeline stages.
package types

// EndDateOpen is the explicit marker for an open-ended engagement.
// Blank, "present" or "current" end dates normalize to this value; a
// concrete date is never guessed.
const EndDateOpen = "present"

// CanonicalResume is the single structured representation of a candidate's
// background. Every stage consumes and produces this shape; the schema is
// closed, so field synonyms (category/items, issuer/date, city/state) are
// only tolerated on input and never at rest.
type CanonicalResume struct {
	Basics       Basics        `json:"basics" validate:"required"`
	Work         []Work        `json:"work"`
	Education    []Education   `json:"education"`
	Skills       []Skill       `json:"skills"`
	Projects     []Project     `json:"projects"`
	Certificates []Certificate `json:"certificates"`
}

// Basics holds identity and contact information.
// Location is a single free-text address string, not decomposed fields.
type Basics struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone,omitempty"`
	URL      string    `json:"url,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Location string    `json:"location,omitempty"`
	Profiles []Profile `json:"profiles,omitempty"`
}

// Profile is a social or professional network reference.
type Profile struct {
	Network  string `json:"network"`
	Username string `json:"username,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Work is a single employment entry. Dates use YYYY-MM granularity;
// EndDate is EndDateOpen for a current position.
type Work struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights"`
}

// Education is a single education entry.
type Education struct {
	Institution string `json:"institution"`
	Area        string `json:"area"`
	StudyType   string `json:"studyType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	GPA         string `json:"gpa,omitempty"`
	Honors      string `json:"honors,omitempty"`
}

// Skill groups individual skill keywords under a category label.
// A skill entry never carries level or proficiency fields.
type Skill struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Project is a project entry. Description is an ordered list whose first
// element is the summary and remaining elements are highlights.
type Project struct {
	Name        string   `json:"name"`
	Description []string `json:"description"`
	URL         string   `json:"url,omitempty"`
}

// Certificate is a certification entry. Details holds free-text lines such
// as "Issuer: Amazon" and "Date: 2023-06".
type Certificate struct {
	Name    string   `json:"name"`
	Details []string `json:"details"`
}

// Clone returns a deep copy of the resume. Stages receive snapshots and
// must never share backing slices with session state.
func (r *CanonicalResume) Clone() *CanonicalResume {
	if r == nil {
		return nil
	}
	out := *r
	out.Basics.Profiles = append([]Profile(nil), r.Basics.Profiles...)
	if r.Work != nil {
		out.Work = make([]Work, len(r.Work))
		for i, w := range r.Work {
			w.Highlights = append([]string(nil), w.Highlights...)
			out.Work[i] = w
		}
	}
	out.Education = append([]Education(nil), r.Education...)
	if r.Skills != nil {
		out.Skills = make([]Skill, len(r.Skills))
		for i, s := range r.Skills {
			s.Keywords = append([]string(nil), s.Keywords...)
			out.Skills[i] = s
		}
	}
	if r.Projects != nil {
		out.Projects = make([]Project, len(r.Projects))
		for i, p := range r.Projects {
			p.Description = append([]string(nil), p.Description...)
			out.Projects[i] = p
		}
	}
	if r.Certificates != nil {
		out.Certificates = make([]Certificate, len(r.Certificates))
		for i, c := range r.Certificates {
			c.Details = append([]string(nil), c.Details...)
			out.Certificates[i] = c
		}
	}
	return &out
}

// KeywordCount returns the total number of individual skill keywords.
func (r *CanonicalResume) KeywordCount() int {
	count := 0
	for _, s := range r.Skills {
		count += len(s.Keywords)
	}
	return count
}
