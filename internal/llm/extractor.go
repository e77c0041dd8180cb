package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/cv-tailor/internal/types"
)

// Schema hints passed alongside prompts. They describe the target shape to
// the model; real enforcement happens downstream in the schema package.

const resumeSchemaHint = `{
  "basics": {"name": "string", "email": "string", "phone": "string", "url": "string", "summary": "string", "location": "string",
             "profiles": [{"network": "string", "username": "string", "url": "string"}]},
  "work": [{"company": "string", "position": "string", "location": "string", "startDate": "YYYY-MM", "endDate": "YYYY-MM or present",
            "description": "string", "highlights": ["string"]}],
  "education": [{"institution": "string", "area": "string", "studyType": "string", "startDate": "YYYY-MM", "endDate": "YYYY-MM or present"}],
  "skills": [{"name": "string", "keywords": ["string"]}],
  "projects": [{"name": "string", "description": ["string"], "url": "string"}],
  "certificates": [{"name": "string", "details": ["string"]}]
}`

const jobSchemaHint = `{
  "position": "string",
  "company": "string",
  "requiredSkills": ["string"],
  "qualifications": ["string"],
  "seniority": "junior|mid|senior|executive"
}`

const questionnaireSchemaHint = `{
  "questions": [{"gapId": "string", "text": "string"}]
}`

// BuildResumeExtractionPrompt asks for a structured resume from raw CV
// text. The schema hint goes with it on the completion call.
func BuildResumeExtractionPrompt(cvText string) (prompt, schemaHint string) {
	var b strings.Builder
	b.WriteString("You are a resume parser. Extract the structured resume data from the raw CV text below.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Extract only information present in the text. Never invent employers, dates or skills.\n")
	b.WriteString("- Dates use YYYY-MM granularity. An ongoing position has endDate \"present\".\n")
	b.WriteString("- Group skills by category under name, individual skills under keywords.\n")
	b.WriteString("- Omit sections with no content.\n\n")
	b.WriteString("CV text:\n---\n")
	b.WriteString(cvText)
	b.WriteString("\n---")
	return b.String(), resumeSchemaHint
}

// BuildJobExtractionPrompt asks for structured job requirements from job
// ad text.
func BuildJobExtractionPrompt(adText string) (prompt, schemaHint string) {
	var b strings.Builder
	b.WriteString("You are a job posting analyzer. Extract the structured requirements from the job ad below.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- requiredSkills are concrete technical or domain skills explicitly required.\n")
	b.WriteString("- qualifications are non-skill requirements (degrees, years of experience, clearances).\n")
	b.WriteString("- seniority is your best read of the level: junior, mid, senior or executive.\n\n")
	b.WriteString("Job ad:\n---\n")
	b.WriteString(adText)
	b.WriteString("\n---")
	return b.String(), jobSchemaHint
}

// BuildQuestionnairePrompt asks for one clarifying question per identified
// gap between the candidate profile and the job requirements.
func BuildQuestionnairePrompt(gaps []types.Gap, job *types.JobRequirement) (prompt, schemaHint string) {
	var b strings.Builder
	b.WriteString("The candidate's CV does not cover the following requirements of the ")
	b.WriteString(job.Position)
	b.WriteString(" role. Write one short, concrete question per gap that lets the candidate supply missing evidence. ")
	b.WriteString("Reference each gap by its gapId.\n\nGaps:\n")
	for _, g := range gaps {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", g.ID, g.Category, g.Description)
	}
	return b.String(), questionnaireSchemaHint
}

// BuildTailoringPrompt asks for a job-tailored variant of the canonical
// resume. Factual invariants are stated in the prompt and enforced again by
// the validation engine on the way back.
func BuildTailoringPrompt(resume *types.CanonicalResume, job *types.JobRequirement, answers []types.Answer) (prompt, schemaHint string, err error) {
	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding resume for prompt: %w", err)
	}
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding job requirements for prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a resume writer. Produce a version of the resume below tailored to the job requirements.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Reorder and rephrase to emphasize relevant experience. Never invent employers, roles, dates, degrees or certifications.\n")
	b.WriteString("- Name, email, phone and dates must be copied unchanged.\n")
	b.WriteString("- Keep every section that has content. Do not drop work history.\n")
	b.WriteString("- Mirror the job ad's terminology where the candidate genuinely has the skill.\n\n")
	b.WriteString("Resume:\n")
	b.Write(resumeJSON)
	b.WriteString("\n\nJob requirements:\n")
	b.Write(jobJSON)

	if len(answers) > 0 {
		b.WriteString("\n\nThe candidate supplied additional context for gaps in the CV. Work it in where truthful:\n")
		for _, a := range answers {
			fmt.Fprintf(&b, "- %s: %s\n", a.Gap, a.Response)
		}
	}
	return b.String(), resumeSchemaHint, nil
}
