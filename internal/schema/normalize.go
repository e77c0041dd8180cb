// Package schema defines the canonical resume shape and converts
// heterogeneous stage outputs into it. The canonical schema is closed:
// known alternate shapes are mapped, unknown extra fields are dropped, and
// normalization of already-canonical data is a no-op.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/types"
)

// Normalize converts a raw stage output (typically LLM-produced JSON) into
// a CanonicalResume. It fails with a SchemaError when the required identity
// fields are unrecoverable.
func Normalize(raw json.RawMessage) (*types.CanonicalResume, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding resume document: %w", agent.Errorf(agent.KindSchema, "not a JSON object: %v", err))
	}

	resume := &types.CanonicalResume{
		Basics:       normalizeBasics(asMap(doc["basics"])),
		Work:         normalizeWork(asList(doc["work"])),
		Education:    normalizeEducation(asList(doc["education"])),
		Skills:       normalizeSkills(asList(doc["skills"])),
		Projects:     normalizeProjects(asList(doc["projects"])),
		Certificates: normalizeCertificates(asList(doc["certificates"])),
	}

	if resume.Basics.Name == "" || resume.Basics.Email == "" {
		return nil, agent.Errorf(agent.KindSchema, "required identity fields are unrecoverable (name=%q, email=%q)",
			resume.Basics.Name, resume.Basics.Email)
	}
	return resume, nil
}

// NormalizeResume re-normalizes an already-typed resume in place: date
// granularity, open-ended end dates and whitespace. Used after tailoring,
// where the candidate parses into the canonical struct but may carry
// denormalized dates.
func NormalizeResume(r *types.CanonicalResume) {
	for i := range r.Work {
		r.Work[i].StartDate = NormalizeDate(r.Work[i].StartDate)
		r.Work[i].EndDate = NormalizeEndDate(r.Work[i].EndDate)
	}
	for i := range r.Education {
		r.Education[i].StartDate = NormalizeDate(r.Education[i].StartDate)
		r.Education[i].EndDate = NormalizeEndDate(r.Education[i].EndDate)
	}
}

func normalizeBasics(m map[string]any) types.Basics {
	b := types.Basics{
		Name:    str(m, "name"),
		Email:   str(m, "email"),
		Phone:   str(m, "phone"),
		URL:     str(m, "url", "website"),
		Summary: str(m, "summary"),
	}

	// Location may arrive as the canonical free-text string or as a
	// decomposed object; decomposed fields collapse into one string.
	switch loc := m["location"].(type) {
	case string:
		b.Location = strings.TrimSpace(loc)
	case map[string]any:
		b.Location = collapseLocation(loc)
	}

	for _, item := range asList(m["profiles"]) {
		pm := asMap(item)
		p := types.Profile{
			Network:  str(pm, "network"),
			Username: str(pm, "username"),
			URL:      str(pm, "url"),
		}
		if p.Network != "" || p.URL != "" {
			b.Profiles = append(b.Profiles, p)
		}
	}
	return b
}

// collapseLocation joins decomposed address fields into the single
// free-text string the canonical schema requires.
func collapseLocation(m map[string]any) string {
	if addr := str(m, "address"); addr != "" {
		return addr
	}
	var parts []string
	for _, key := range []string{"city", "region", "state", "postalCode", "countryCode", "country"} {
		if v := str(m, key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func normalizeWork(items []any) []types.Work {
	var out []types.Work
	for _, item := range items {
		m := asMap(item)
		if m == nil {
			continue
		}
		w := types.Work{
			Company:     str(m, "company", "name", "organization"),
			Position:    str(m, "position", "title", "role"),
			Location:    str(m, "location"),
			StartDate:   NormalizeDate(str(m, "startDate", "start_date", "start")),
			EndDate:     NormalizeEndDate(str(m, "endDate", "end_date", "end")),
			Description: str(m, "description", "summary"),
			Highlights:  strList(m["highlights"]),
		}
		if w.Company == "" && w.Position == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

func normalizeEducation(items []any) []types.Education {
	var out []types.Education
	for _, item := range items {
		m := asMap(item)
		if m == nil {
			continue
		}
		e := types.Education{
			Institution: str(m, "institution", "school", "university"),
			Area:        str(m, "area", "field", "fieldOfStudy"),
			StudyType:   str(m, "studyType", "degree"),
			StartDate:   NormalizeDate(str(m, "startDate", "start_date")),
			EndDate:     NormalizeEndDate(str(m, "endDate", "end_date")),
			GPA:         str(m, "gpa", "score"),
			Honors:      str(m, "honors"),
		}
		if e.Institution == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// normalizeSkills maps the {category, items} alternate shape and plain
// strings to {name, keywords}. Level and proficiency fields are dropped;
// a canonical skill entry never carries them.
func normalizeSkills(items []any) []types.Skill {
	var out []types.Skill
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, types.Skill{Name: "General", Keywords: []string{s}})
			}
		case map[string]any:
			s := types.Skill{
				Name:     str(v, "name", "category"),
				Keywords: strList(firstOf(v, "keywords", "items")),
			}
			if s.Name == "" && len(s.Keywords) == 0 {
				continue
			}
			if s.Name == "" {
				s.Name = "General"
			}
			out = append(out, s)
		}
	}
	return out
}

// normalizeProjects collapses {summary, highlights, technologies} into the
// single ordered description list, summary first.
func normalizeProjects(items []any) []types.Project {
	var out []types.Project
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, types.Project{Name: s})
			}
		case map[string]any:
			p := types.Project{
				Name: str(v, "name"),
				URL:  str(v, "url", "repository"),
			}
			var desc []string
			if summary := str(v, "summary"); summary != "" {
				desc = append(desc, summary)
			}
			switch d := v["description"].(type) {
			case string:
				if d = strings.TrimSpace(d); d != "" {
					desc = append(desc, d)
				}
			case []any:
				desc = append(desc, strList(d)...)
			}
			desc = append(desc, strList(v["highlights"])...)
			if tech := strList(v["technologies"]); len(tech) > 0 {
				desc = append(desc, "Technologies: "+strings.Join(tech, ", "))
			}
			p.Description = desc
			if p.Name == "" && len(p.Description) == 0 {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// normalizeCertificates collapses {issuer, date, credential} fields into
// the ordered details list of "Label: value" lines.
func normalizeCertificates(items []any) []types.Certificate {
	var out []types.Certificate
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, types.Certificate{Name: s})
			}
		case map[string]any:
			c := types.Certificate{
				Name:    str(v, "name"),
				Details: strList(v["details"]),
			}
			if issuer := str(v, "issuer"); issuer != "" {
				c.Details = append(c.Details, "Issuer: "+issuer)
			}
			if date := str(v, "date"); date != "" {
				c.Details = append(c.Details, "Date: "+NormalizeDate(date))
			}
			if cred := str(v, "credential", "credentialId"); cred != "" {
				c.Details = append(c.Details, "Credential: "+cred)
			}
			if c.Name == "" {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// --- lenient accessors over decoded JSON ---

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// str returns the first non-empty string value among the given keys.
func str(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstOf(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func strList(v any) []string {
	var out []string
	for _, item := range asList(v) {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
