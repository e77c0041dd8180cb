// Package jobanalysis implements the second stage: job ad text or URL in,
// structured requirements, gap list and match score out.
package jobanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/fetch"
	"github.com/jonathan/cv-tailor/internal/llm"
	"github.com/jonathan/cv-tailor/internal/types"
)

// ActionAnalyze is the stage's single action.
const ActionAnalyze = "analyze"

// Result is the job analysis output. Gaps are ordered as the job ad
// ordered its requirements.
type Result struct {
	Job        *types.JobRequirement `json:"job"`
	Gaps       []types.Gap           `json:"gaps"`
	MatchScore float64               `json:"matchScore"`
}

// Fetcher resolves a job ad URL to posting text.
type Fetcher interface {
	JobText(ctx context.Context, url string) (string, bool, error)
}

// Stage wraps requirement extraction and gap analysis.
type Stage struct {
	completer llm.Completer
	fetcher   Fetcher
}

func New(completer llm.Completer, fetcher Fetcher) *Stage {
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(0, nil)
	}
	return &Stage{completer: completer, fetcher: fetcher}
}

func (s *Stage) Name() agent.StageName { return agent.StageJobAnalysis }

func (s *Stage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		ActionAnalyze: s.analyze,
	}
}

func (s *Stage) analyze(ctx context.Context, params agent.Params) (any, error) {
	resume, ok := params["resume"].(*types.CanonicalResume)
	if !ok || resume == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "analyze requires a resume param")
	}

	text, _ := params["job_text"].(string)
	if text == "" {
		url, _ := params["job_url"].(string)
		if url == "" {
			return nil, agent.Errorf(agent.KindAgentCommunication, "analyze requires job_text or job_url")
		}
		fetched, _, err := s.fetcher.JobText(ctx, url)
		if err != nil {
			return nil, err
		}
		text = fetched
	}

	job, err := s.extractRequirements(ctx, text)
	if err != nil {
		return nil, err
	}

	gaps := FindGaps(job, resume)
	return &Result{
		Job:        job,
		Gaps:       gaps,
		MatchScore: MatchScore(job, gaps),
	}, nil
}

func (s *Stage) extractRequirements(ctx context.Context, text string) (*types.JobRequirement, error) {
	if s.completer == nil {
		return nil, agent.Errorf(agent.KindProvider, "job analysis requires a completion provider")
	}

	prompt, hint := llm.BuildJobExtractionPrompt(text)
	raw, err := s.completer.Complete(ctx, prompt, hint)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Position       string   `json:"position"`
		Company        string   `json:"company"`
		RequiredSkills []string `json:"requiredSkills"`
		Qualifications []string `json:"qualifications"`
		Seniority      string   `json:"seniority"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &decoded); err != nil {
		return nil, agent.Errorf(agent.KindSchema, "job requirement output is not valid JSON: %v", err)
	}
	if decoded.Position == "" {
		return nil, agent.Errorf(agent.KindSchema, "job requirement output has no position")
	}

	return &types.JobRequirement{
		Position:       decoded.Position,
		Company:        decoded.Company,
		RequiredSkills: decoded.RequiredSkills,
		Qualifications: decoded.Qualifications,
		Seniority:      types.ParseSeniority(decoded.Seniority),
	}, nil
}

// FindGaps returns the required items with no evidence in the resume, in
// requirement order.
func FindGaps(job *types.JobRequirement, resume *types.CanonicalResume) []types.Gap {
	haystack := strings.ToLower(resumeEvidence(resume))

	var gaps []types.Gap
	skillCount := len(job.RequiredSkills)
	for i, item := range job.RequiredItems() {
		if strings.Contains(haystack, strings.ToLower(item)) {
			continue
		}
		category := "skill"
		if i >= skillCount {
			category = "qualification"
		}
		gaps = append(gaps, types.Gap{
			ID:          fmt.Sprintf("gap-%d", len(gaps)+1),
			Category:    category,
			Description: item,
			RequiredBy:  job.Position,
		})
	}
	return gaps
}

// MatchScore is (matched required items / total) x 100, one decimal. A job
// with no extractable requirements scores 100.
func MatchScore(job *types.JobRequirement, gaps []types.Gap) float64 {
	total := len(job.RequiredItems())
	if total == 0 {
		return 100
	}
	matched := total - len(gaps)
	return math.Round(float64(matched)/float64(total)*1000) / 10
}

// resumeEvidence flattens the resume fields that count as evidence for a
// requirement: skills, work history wording, projects and certificates.
func resumeEvidence(r *types.CanonicalResume) string {
	var b strings.Builder
	b.WriteString(r.Basics.Summary)
	for _, s := range r.Skills {
		b.WriteString("\n" + s.Name + " " + strings.Join(s.Keywords, " "))
	}
	for _, w := range r.Work {
		b.WriteString("\n" + w.Position + " " + w.Company + " " + w.Description + " " + strings.Join(w.Highlights, " "))
	}
	for _, e := range r.Education {
		b.WriteString("\n" + e.StudyType + " " + e.Area + " " + e.Institution)
	}
	for _, p := range r.Projects {
		b.WriteString("\n" + p.Name + " " + strings.Join(p.Description, " "))
	}
	for _, c := range r.Certificates {
		b.WriteString("\n" + c.Name + " " + strings.Join(c.Details, " "))
	}
	return b.String()
}
