package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// sectionPatterns map canonical section names to header spellings seen in
// real CVs. Headers match a whole line, allowing decoration characters.
var sectionPatterns = map[string][]string{
	"summary":        {`summary`, `profile`, `objective`, `about\s*me`},
	"experience":     {`(work\s*)?experience`, `employment\s*(history)?`, `professional\s*experience`, `career\s*history`},
	"education":      {`education`, `academic\s*(background)?`, `qualifications`, `degrees?`},
	"skills":         {`skills`, `technical\s*skills`, `competencies`, `expertise`},
	"projects":       {`projects`, `portfolio`, `personal\s*projects`},
	"certifications": {`certifications?`, `certificates?`, `licenses?`},
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{2,4}\)?[-.\s]?)?\d{3,4}[-.\s]?\d{4}`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com/in/([\w-]+)`)
	githubPattern   = regexp.MustCompile(`(?i)github\.com/([\w-]+)`)
	bulletPattern   = regexp.MustCompile(`^\s*[•\-\*]\s*(.+)`)
	dateRangePattern = regexp.MustCompile(`(?i)(\d{4}|\w+\s+\d{4})\s*[-–—]\s*(\d{4}|\w+\s+\d{4}|Present|Current)`)
	roleAtPattern    = regexp.MustCompile(`(.+?)\s+(?:at|@|\|)\s+(.+)`)
	degreePattern    = regexp.MustCompile(`(?i)(Bachelor|Master|PhD|B\.?S\.?|M\.?S\.?|B\.?A\.?|M\.?A\.?|Doctor)`)
	gpaPattern       = regexp.MustCompile(`(?i)GPA:?\s*(\d+\.\d+)`)
	categoryPattern  = regexp.MustCompile(`([^:\n]+):\s*([^\n]+)`)
	urlPattern       = regexp.MustCompile(`https?://[\w.-]+(?:/[\w.-]*)*`)
	certDatePattern  = regexp.MustCompile(`(\w+\s+\d{4}|\d{4})`)
)

// ParseSections heuristically splits CV text into a resume document using
// header detection and line patterns. The output uses the alternate shapes
// the schema normalizer maps (skills as category/items, certificates with
// issuer and date fields), so it feeds straight into normalization.
func ParseSections(text string) map[string]any {
	doc := map[string]any{
		"basics": parseContact(head(text, 1000)),
	}

	bounds := findSectionBounds(text)
	for name, span := range bounds {
		body := strings.TrimSpace(text[span[0]:span[1]])
		if body == "" {
			continue
		}
		switch name {
		case "summary":
			basics := doc["basics"].(map[string]any)
			basics["summary"] = strings.Join(strings.Fields(body), " ")
		case "experience":
			doc["work"] = parseExperience(body)
		case "education":
			doc["education"] = parseEducation(body)
		case "skills":
			doc["skills"] = parseSkills(body)
		case "projects":
			doc["projects"] = parseProjects(body)
		case "certifications":
			doc["certificates"] = parseCertifications(body)
		}
	}
	return doc
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// parseContact reads identity fields from the CV header. The first
// non-empty line is assumed to be the name.
func parseContact(text string) map[string]any {
	basics := map[string]any{}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			basics["name"] = line
			break
		}
	}

	if m := emailPattern.FindString(text); m != "" {
		basics["email"] = m
	}
	if m := phonePattern.FindString(text); strings.TrimSpace(m) != "" {
		basics["phone"] = strings.TrimSpace(m)
	}

	var profiles []any
	if m := linkedinPattern.FindStringSubmatch(text); m != nil {
		profiles = append(profiles, map[string]any{"network": "LinkedIn", "url": "https://linkedin.com/in/" + m[1]})
	}
	if m := githubPattern.FindStringSubmatch(text); m != nil {
		profiles = append(profiles, map[string]any{"network": "GitHub", "url": "https://github.com/" + m[1]})
	}
	if len(profiles) > 0 {
		basics["profiles"] = profiles
	}
	return basics
}

type sectionSpan struct {
	name  string
	start int
}

// findSectionBounds locates section headers and returns each section's
// content range. A section runs to the next header or end of text.
func findSectionBounds(text string) map[string][2]int {
	var spans []sectionSpan
	for name, patterns := range sectionPatterns {
		for _, pattern := range patterns {
			re := regexp.MustCompile(`(?im)^[\s\-=]*` + pattern + `[\s\-=:]*$`)
			if loc := re.FindStringIndex(text); loc != nil {
				spans = append(spans, sectionSpan{name: name, start: loc[0]})
				break
			}
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	bounds := make(map[string][2]int, len(spans))
	for i, span := range spans {
		headerEnd := strings.Index(text[span.start:], "\n")
		if headerEnd < 0 {
			continue
		}
		contentStart := span.start + headerEnd + 1
		contentEnd := len(text)
		if i+1 < len(spans) {
			contentEnd = spans[i+1].start
		}
		bounds[span.name] = [2]int{contentStart, contentEnd}
	}
	return bounds
}

func splitEntries(text string) []string {
	var entries []string
	for _, entry := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		if strings.TrimSpace(entry) != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func nonEmptyLines(entry string) []string {
	var lines []string
	for _, line := range strings.Split(entry, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseExperience(text string) []any {
	var out []any
	for _, entry := range splitEntries(text) {
		lines := nonEmptyLines(entry)
		if len(lines) == 0 {
			continue
		}

		exp := map[string]any{}
		if m := roleAtPattern.FindStringSubmatch(lines[0]); m != nil {
			exp["position"] = strings.TrimSpace(m[1])
			exp["company"] = strings.TrimSpace(m[2])
		} else {
			exp["position"] = lines[0]
		}

		for _, line := range lines {
			if m := dateRangePattern.FindStringSubmatch(line); m != nil {
				exp["startDate"] = m[1]
				exp["endDate"] = m[2]
				break
			}
		}

		var highlights []any
		var description []string
		for _, line := range lines[1:] {
			if m := bulletPattern.FindStringSubmatch(line); m != nil {
				highlights = append(highlights, strings.TrimSpace(m[1]))
			} else if !dateRangePattern.MatchString(line) {
				description = append(description, line)
			}
		}
		if len(highlights) > 0 {
			exp["highlights"] = highlights
		}
		if len(description) > 0 {
			exp["description"] = strings.Join(description, " ")
		}
		out = append(out, exp)
	}
	return out
}

func parseEducation(text string) []any {
	var out []any
	for _, entry := range splitEntries(text) {
		lines := nonEmptyLines(entry)
		if len(lines) == 0 {
			continue
		}

		edu := map[string]any{"institution": lines[0]}
		for _, line := range lines {
			if degreePattern.MatchString(line) && line != lines[0] {
				edu["degree"] = line
				break
			}
		}
		for _, line := range lines {
			if m := dateRangePattern.FindStringSubmatch(line); m != nil {
				edu["startDate"] = m[1]
				edu["endDate"] = m[2]
				break
			}
		}
		for _, line := range lines {
			if m := gpaPattern.FindStringSubmatch(line); m != nil {
				edu["gpa"] = m[1]
				break
			}
		}
		out = append(out, edu)
	}
	return out
}

// parseSkills prefers "Category: a, b, c" lines, falling back to one flat
// General group split on common delimiters.
func parseSkills(text string) []any {
	var out []any
	for _, m := range categoryPattern.FindAllStringSubmatch(text, -1) {
		items := splitDelimited(m[2])
		if len(items) > 0 {
			out = append(out, map[string]any{"category": strings.TrimSpace(m[1]), "items": items})
		}
	}
	if len(out) == 0 {
		if items := splitDelimited(text); len(items) > 0 {
			out = append(out, map[string]any{"category": "General", "items": items})
		}
	}
	return out
}

func splitDelimited(s string) []any {
	var items []any
	for _, item := range regexp.MustCompile(`[,;•|\n]`).Split(s, -1) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseProjects(text string) []any {
	var out []any
	for _, entry := range splitEntries(text) {
		lines := nonEmptyLines(entry)
		if len(lines) == 0 {
			continue
		}

		project := map[string]any{"name": lines[0]}
		if m := urlPattern.FindString(entry); m != "" {
			project["url"] = m
		}

		var highlights []any
		var description []string
		for _, line := range lines[1:] {
			if m := bulletPattern.FindStringSubmatch(line); m != nil {
				highlights = append(highlights, strings.TrimSpace(m[1]))
			} else {
				description = append(description, line)
			}
		}
		if len(highlights) > 0 {
			project["highlights"] = highlights
		}
		if len(description) > 0 {
			project["summary"] = strings.Join(description, " ")
		}
		out = append(out, project)
	}
	return out
}

func parseCertifications(text string) []any {
	var out []any
	for _, line := range nonEmptyLines(text) {
		line = bulletPattern.ReplaceAllString(line, "$1")

		cert := map[string]any{"name": line}
		if parts := regexp.MustCompile(`\s+[-–—,]\s+`).Split(line, -1); len(parts) >= 2 {
			cert["name"] = parts[0]
			cert["issuer"] = parts[1]
		}
		if m := certDatePattern.FindString(line); m != "" {
			cert["date"] = m
		}
		out = append(out, cert)
	}
	return out
}
