package jobanalysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/types"
)

func candidateResume() *types.CanonicalResume {
	return &types.CanonicalResume{
		Basics: types.Basics{Name: "Jane Doe", Email: "jane@example.com"},
		Work: []types.Work{
			{Company: "Acme", Position: "Backend Engineer", Highlights: []string{"Built services in Go"}},
		},
		Skills: []types.Skill{
			{Name: "Languages", Keywords: []string{"Go", "Python"}},
			{Name: "Databases", Keywords: []string{"PostgreSQL"}},
		},
	}
}

func TestFindGapsAndCategories(t *testing.T) {
	job := &types.JobRequirement{
		Position:       "Platform Engineer",
		RequiredSkills: []string{"Go", "Kubernetes"},
		Qualifications: []string{"5+ years of experience"},
	}

	gaps := FindGaps(job, candidateResume())

	require.Len(t, gaps, 2)
	assert.Equal(t, "Kubernetes", gaps[0].Description)
	assert.Equal(t, "skill", gaps[0].Category)
	assert.Equal(t, "gap-1", gaps[0].ID)
	assert.Equal(t, "5+ years of experience", gaps[1].Description)
	assert.Equal(t, "qualification", gaps[1].Category)
	assert.Equal(t, "Platform Engineer", gaps[1].RequiredBy)
}

func TestFindGapsMatchesWorkHistoryEvidence(t *testing.T) {
	job := &types.JobRequirement{Position: "Engineer", RequiredSkills: []string{"Backend"}}

	gaps := FindGaps(job, candidateResume())
	assert.Empty(t, gaps)
}

func TestMatchScore(t *testing.T) {
	job := &types.JobRequirement{
		RequiredSkills: []string{"Go", "Kubernetes", "PostgreSQL"},
	}
	gaps := []types.Gap{{ID: "gap-1"}}

	// 2 of 3 matched.
	assert.Equal(t, 66.7, MatchScore(job, gaps))
}

func TestMatchScoreNoRequirements(t *testing.T) {
	assert.Equal(t, 100.0, MatchScore(&types.JobRequirement{}, nil))
}

func TestMatchScoreAllMatched(t *testing.T) {
	job := &types.JobRequirement{RequiredSkills: []string{"Go"}}
	assert.Equal(t, 100.0, MatchScore(job, nil))
}

type fakeCompleter struct {
	response string
	err      error
}

func (f fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.response, f.err
}

type fakeFetcher struct {
	text string
	err  error
}

func (f fakeFetcher) JobText(context.Context, string) (string, bool, error) {
	return f.text, false, f.err
}

const jobJSON = `{
	"position": "Platform Engineer",
	"company": "Acme",
	"requiredSkills": ["Go", "Kubernetes"],
	"qualifications": [],
	"seniority": "senior"
}`

func TestAnalyzeFromText(t *testing.T) {
	stage := New(fakeCompleter{response: jobJSON}, fakeFetcher{})

	data, err := stage.Actions()[ActionAnalyze](context.Background(), agent.Params{
		"resume":   candidateResume(),
		"job_text": "Platform Engineer wanted",
	})
	require.NoError(t, err)

	result := data.(*Result)
	assert.Equal(t, "Platform Engineer", result.Job.Position)
	assert.Equal(t, types.SenioritySenior, result.Job.Seniority)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, "Kubernetes", result.Gaps[0].Description)
	assert.Equal(t, 50.0, result.MatchScore)
}

func TestAnalyzeFromURLUsesFetcher(t *testing.T) {
	stage := New(fakeCompleter{response: jobJSON}, fakeFetcher{text: "fetched posting text"})

	data, err := stage.Actions()[ActionAnalyze](context.Background(), agent.Params{
		"resume":  candidateResume(),
		"job_url": "https://boards.greenhouse.io/acme/jobs/1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", data.(*Result).Job.Position)
}

func TestAnalyzeFetchErrorPropagates(t *testing.T) {
	stage := New(fakeCompleter{response: jobJSON}, fakeFetcher{err: agent.Errorf(agent.KindFetch, "boom")})

	_, err := stage.Actions()[ActionAnalyze](context.Background(), agent.Params{
		"resume":  candidateResume(),
		"job_url": "https://example.com/job",
	})
	require.Error(t, err)
	assert.Equal(t, agent.KindFetch, agent.Classify(err))
}

func TestAnalyzeRejectsMalformedCompletionOutput(t *testing.T) {
	stage := New(fakeCompleter{response: "not json"}, fakeFetcher{})

	_, err := stage.Actions()[ActionAnalyze](context.Background(), agent.Params{
		"resume":   candidateResume(),
		"job_text": "text",
	})
	require.Error(t, err)
	assert.Equal(t, agent.KindSchema, agent.Classify(err))
}

func TestAnalyzeMissingParams(t *testing.T) {
	stage := New(fakeCompleter{response: jobJSON}, fakeFetcher{})

	_, err := stage.Actions()[ActionAnalyze](context.Background(), agent.Params{"resume": candidateResume()})
	require.Error(t, err)
	assert.Equal(t, agent.KindAgentCommunication, agent.Classify(err))
}
