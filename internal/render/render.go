// Package render builds the final rendering payload: the tailored resume
// paired with the template choice and session metadata a downstream
// renderer needs. Document formatting itself stays outside the pipeline;
// RenderText exists as a reference output for previews and tests.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/cv-tailor/internal/types"
)

// DefaultTemplate is used when no keyword family matches the position.
const DefaultTemplate = "professional"

// Payload is the generation stage's final product.
type Payload struct {
	Resume      *types.CanonicalResume `json:"resume"`
	TemplateID  string                 `json:"templateId"`
	Position    string                 `json:"position,omitempty"`
	Company     string                 `json:"company,omitempty"`
	MatchScore  float64                `json:"matchScore"`
	Warnings    []string               `json:"warnings,omitempty"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

type templateRule struct {
	id       string
	keywords []string
}

// templateRules map position wording to template families. Order matters:
// executive outranks management, which outranks the generic families, so a
// "VP of Engineering" gets the executive template.
var templateRules = []templateRule{
	{"executive", []string{"executive", "director", "vp", "vice president", "ceo", "cto", "cfo", "chief"}},
	{"engineering", []string{"engineer", "developer", "programmer", "software", "backend", "frontend", "fullstack", "devops", "sre"}},
	{"management", []string{"manager", "lead", "head of", "supervisor", "coordinator"}},
	{"design", []string{"designer", "ux", "ui", "creative", "graphic"}},
	{"data", []string{"data scientist", "data analyst", "data engineer", "ml engineer", "machine learning"}},
	{"marketing", []string{"marketing", "growth", "seo", "content", "brand"}},
	{"sales", []string{"sales", "account executive", "business development", "account manager"}},
	{"finance", []string{"accountant", "financial analyst", "finance", "auditor", "controller"}},
	{"operations", []string{"operations", "logistics", "supply chain"}},
	{"hr", []string{"human resources", "recruiter", "talent acquisition"}},
	{"consulting", []string{"consultant", "advisor", "strategist"}},
}

// SelectTemplate picks a template from the job's position wording, with
// the seniority read as a tiebreaker for executive roles.
func SelectTemplate(job *types.JobRequirement) string {
	if job == nil {
		return DefaultTemplate
	}
	if job.Seniority == types.SeniorityExecutive {
		return "executive"
	}

	search := strings.ToLower(job.Position)
	for _, rule := range templateRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(search, keyword) {
				return rule.id
			}
		}
	}
	return DefaultTemplate
}

// RenderText formats the resume as plain text, one section per block.
func RenderText(r *types.CanonicalResume) string {
	var b strings.Builder

	b.WriteString(r.Basics.Name + "\n")
	var contact []string
	for _, field := range []string{r.Basics.Email, r.Basics.Phone, r.Basics.Location, r.Basics.URL} {
		if field != "" {
			contact = append(contact, field)
		}
	}
	b.WriteString(strings.Join(contact, " | ") + "\n")
	for _, p := range r.Basics.Profiles {
		if p.URL != "" {
			fmt.Fprintf(&b, "%s: %s\n", p.Network, p.URL)
		}
	}
	if r.Basics.Summary != "" {
		b.WriteString("\nSummary\n" + r.Basics.Summary + "\n")
	}

	if len(r.Work) > 0 {
		b.WriteString("\nExperience\n")
		for _, w := range r.Work {
			fmt.Fprintf(&b, "%s, %s (%s - %s)\n", w.Position, w.Company, w.StartDate, w.EndDate)
			if w.Description != "" {
				b.WriteString(w.Description + "\n")
			}
			for _, h := range w.Highlights {
				b.WriteString("- " + h + "\n")
			}
		}
	}

	if len(r.Education) > 0 {
		b.WriteString("\nEducation\n")
		for _, e := range r.Education {
			fmt.Fprintf(&b, "%s, %s, %s (%s - %s)\n", e.StudyType, e.Area, e.Institution, e.StartDate, e.EndDate)
			if e.GPA != "" {
				b.WriteString("GPA: " + e.GPA + "\n")
			}
		}
	}

	if len(r.Skills) > 0 {
		b.WriteString("\nSkills\n")
		for _, s := range r.Skills {
			fmt.Fprintf(&b, "%s: %s\n", s.Name, strings.Join(s.Keywords, ", "))
		}
	}

	if len(r.Projects) > 0 {
		b.WriteString("\nProjects\n")
		for _, p := range r.Projects {
			b.WriteString(p.Name + "\n")
			for _, d := range p.Description {
				b.WriteString("- " + d + "\n")
			}
		}
	}

	if len(r.Certificates) > 0 {
		b.WriteString("\nCertifications\n")
		for _, c := range r.Certificates {
			b.WriteString(c.Name + "\n")
			for _, d := range c.Details {
				b.WriteString("  " + d + "\n")
			}
		}
	}

	return b.String()
}
