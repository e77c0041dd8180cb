package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/render"
	"github.com/jonathan/cv-tailor/internal/stages/generation"
	"github.com/jonathan/cv-tailor/internal/stages/ingestion"
	"github.com/jonathan/cv-tailor/internal/stages/interaction"
	"github.com/jonathan/cv-tailor/internal/stages/jobanalysis"
	"github.com/jonathan/cv-tailor/internal/stages/storage"
	"github.com/jonathan/cv-tailor/internal/types"
)

// fakeStage lets each test script a stage's behavior per call.
type fakeStage struct {
	name    agent.StageName
	action  string
	calls   int
	handler func(call int, params agent.Params) (any, error)
}

func (f *fakeStage) Name() agent.StageName { return f.name }

func (f *fakeStage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		f.action: func(_ context.Context, params agent.Params) (any, error) {
			f.calls++
			return f.handler(f.calls, params)
		},
	}
}

func parsedResume() *types.CanonicalResume {
	return &types.CanonicalResume{
		Basics: types.Basics{Name: "Jane Doe", Email: "jane@example.com"},
		Work:   []types.Work{{Company: "Acme", Position: "Engineer", StartDate: "2019-03", EndDate: types.EndDateOpen}},
		Skills: []types.Skill{{Name: "Languages", Keywords: []string{"Go"}}},
	}
}

func okIngestion() *fakeStage {
	return &fakeStage{
		name:   agent.StageIngestion,
		action: ingestion.ActionParseCV,
		handler: func(int, agent.Params) (any, error) {
			return &ingestion.Result{
				Resume:       parsedResume(),
				Completeness: types.Completeness{Complete: true, Score: 80},
			}, nil
		},
	}
}

func okJobAnalysis(gaps []types.Gap) *fakeStage {
	return &fakeStage{
		name:   agent.StageJobAnalysis,
		action: jobanalysis.ActionAnalyze,
		handler: func(int, agent.Params) (any, error) {
			return &jobanalysis.Result{
				Job:        &types.JobRequirement{Position: "Backend Engineer", Company: "Initech"},
				Gaps:       gaps,
				MatchScore: 75.0,
			}, nil
		},
	}
}

func okInteraction() *fakeStage {
	return &fakeStage{
		name:   agent.StageInteraction,
		action: interaction.ActionCollect,
		handler: func(int, agent.Params) (any, error) {
			return &interaction.Result{
				Answers: []types.Answer{{GapID: "gap-1", Gap: "Kubernetes", Response: "Ran EKS"}},
			}, nil
		},
	}
}

func okStorage(warning string) *fakeStage {
	return &fakeStage{
		name:   agent.StageStorage,
		action: storage.ActionStoreProfile,
		handler: func(int, agent.Params) (any, error) {
			return &storage.Result{ProfileID: "profile-1", EmbeddingStored: warning == "", Warning: warning}, nil
		},
	}
}

func okGeneration() *fakeStage {
	return &fakeStage{
		name:   agent.StageGeneration,
		action: generation.ActionGenerate,
		handler: func(_ int, params agent.Params) (any, error) {
			resume := params["resume"].(*types.CanonicalResume)
			tailored := resume.Clone()
			tailored.Basics.Summary = "Tailored summary"
			return &generation.Result{
				Resume:   tailored,
				Payload:  &render.Payload{Resume: tailored, TemplateID: "engineering", MatchScore: params["match_score"].(float64)},
				Tailored: true,
			}, nil
		},
	}
}

func testOrchestrator(stages ...agent.Stage) *Orchestrator {
	registry := agent.NewRegistry(nil, stages...)
	return NewOrchestrator(registry, Options{RetryBudget: 3, Backoff: time.Millisecond}, nil)
}

func stageNames(log []LogEntry) []agent.StageName {
	names := make([]agent.StageName, len(log))
	for i, e := range log {
		names[i] = e.Stage
	}
	return names
}

func TestRunHappyPathWithInteraction(t *testing.T) {
	gaps := []types.Gap{{ID: "gap-1", Category: "skill", Description: "Kubernetes"}}
	interactionStage := okInteraction()
	o := testOrchestrator(okIngestion(), okJobAnalysis(gaps), interactionStage, okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad", Interactive: true})

	assert.False(t, result.Failed)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 75.0, result.MatchScore)
	assert.Equal(t, "Tailored summary", result.Resume.Basics.Summary)
	require.NotNil(t, result.Payload)
	assert.Equal(t, "engineering", result.Payload.TemplateID)
	assert.Equal(t, 1, interactionStage.calls)

	assert.Equal(t, []agent.StageName{
		agent.StageIngestion,
		agent.StageJobAnalysis,
		agent.StageInteraction,
		agent.StageStorage,
		agent.StageGeneration,
	}, stageNames(result.Log))
	for _, entry := range result.Log {
		assert.Equal(t, OutcomeOK, entry.Outcome)
	}
}

func TestRunSkipsInteractionWhenNoGaps(t *testing.T) {
	interactionStage := okInteraction()
	o := testOrchestrator(okIngestion(), okJobAnalysis(nil), interactionStage, okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.False(t, result.Failed)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 0, interactionStage.calls)
	// Skipped stages leave no session log entry.
	assert.NotContains(t, stageNames(result.Log), agent.StageInteraction)
}

func TestRunGapThresholdSkipsInteraction(t *testing.T) {
	gaps := []types.Gap{{ID: "gap-1", Category: "skill", Description: "Kubernetes"}}
	interactionStage := okInteraction()
	registry := agent.NewRegistry(nil,
		okIngestion(), okJobAnalysis(gaps), interactionStage, okStorage(""), okGeneration())
	o := NewOrchestrator(registry, Options{RetryBudget: 3, Backoff: time.Millisecond, GapThreshold: 2}, nil)

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad", Interactive: true})

	assert.False(t, result.Failed)
	// One gap stays below the threshold of two.
	assert.Equal(t, 0, interactionStage.calls)
	assert.NotContains(t, stageNames(result.Log), agent.StageInteraction)
}

func TestRunRetriesTransientErrors(t *testing.T) {
	flaky := &fakeStage{
		name:   agent.StageJobAnalysis,
		action: jobanalysis.ActionAnalyze,
		handler: func(call int, _ agent.Params) (any, error) {
			if call == 1 {
				return nil, agent.Errorf(agent.KindProvider, "temporary provider outage")
			}
			return &jobanalysis.Result{
				Job:        &types.JobRequirement{Position: "Backend Engineer"},
				MatchScore: 100,
			}, nil
		},
	}
	o := testOrchestrator(okIngestion(), flaky, okInteraction(), okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.False(t, result.Failed)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, flaky.calls)
	assert.Empty(t, result.Warnings)

	var entry LogEntry
	for _, e := range result.Log {
		if e.Stage == agent.StageJobAnalysis {
			entry = e
		}
	}
	assert.Equal(t, OutcomeOK, entry.Outcome)
	assert.Equal(t, 1, entry.Retries)
}

func TestRunDoesNotRetryStructuralErrors(t *testing.T) {
	broken := &fakeStage{
		name:   agent.StageJobAnalysis,
		action: jobanalysis.ActionAnalyze,
		handler: func(int, agent.Params) (any, error) {
			return nil, agent.Errorf(agent.KindSchema, "requirements output malformed")
		},
	}
	o := testOrchestrator(okIngestion(), broken, okInteraction(), okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.True(t, result.Failed)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, agent.KindSchema, result.ErrorKind)
}

func TestRunTerminalFailureReportsPartialResult(t *testing.T) {
	exhausted := &fakeStage{
		name:   agent.StageGeneration,
		action: generation.ActionGenerate,
		handler: func(int, agent.Params) (any, error) {
			return nil, agent.Errorf(agent.KindProvider, "provider down")
		},
	}
	o := testOrchestrator(okIngestion(), okJobAnalysis(nil), okInteraction(), okStorage(""), exhausted)

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.True(t, result.Failed)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, agent.StageGeneration, result.FailedStage)
	assert.Equal(t, agent.KindProvider, result.ErrorKind)
	// Retried to the budget before giving up.
	assert.Equal(t, 4, exhausted.calls)
	// Partial completion is reported: resume and job survive from earlier stages.
	assert.NotNil(t, result.Resume)
	assert.NotNil(t, result.Job)
	assert.Equal(t, 75.0, result.MatchScore)

	last := result.Log[len(result.Log)-1]
	assert.Equal(t, agent.StageGeneration, last.Stage)
	assert.Equal(t, OutcomeFailed, last.Outcome)
	assert.Equal(t, 3, last.Retries)
}

func TestRunStorageWarningPropagates(t *testing.T) {
	o := testOrchestrator(okIngestion(), okJobAnalysis(nil), okInteraction(),
		okStorage("embedding index update failed, profile stored without semantic search"), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.False(t, result.Failed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "embedding index update failed")
}

func TestRunIncompleteCVAddsWarning(t *testing.T) {
	incomplete := &fakeStage{
		name:   agent.StageIngestion,
		action: ingestion.ActionParseCV,
		handler: func(int, agent.Params) (any, error) {
			return &ingestion.Result{
				Resume:       parsedResume(),
				Completeness: types.Completeness{Complete: false, Score: 40},
			}, nil
		},
	}
	o := testOrchestrator(incomplete, okJobAnalysis(nil), okInteraction(), okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.False(t, result.Failed)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "incomplete")
}

func TestRunUnexpectedDataTypeIsProtocolFailure(t *testing.T) {
	wrongType := &fakeStage{
		name:    agent.StageIngestion,
		action:  ingestion.ActionParseCV,
		handler: func(int, agent.Params) (any, error) { return "not a result struct", nil },
	}
	o := testOrchestrator(wrongType, okJobAnalysis(nil), okInteraction(), okStorage(""), okGeneration())

	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	assert.True(t, result.Failed)
	assert.Equal(t, agent.KindAgentCommunication, result.ErrorKind)
	assert.Equal(t, agent.StageIngestion, result.FailedStage)
}

func TestSessionRecordFromResult(t *testing.T) {
	o := testOrchestrator(okIngestion(), okJobAnalysis(nil), okInteraction(), okStorage(""), okGeneration())
	result := o.Run(context.Background(), Request{UserID: "user-1", CVPath: "cv.txt", JobText: "ad"})

	record := result.SessionRecord("user-1", "https://example.com/job")

	assert.Equal(t, result.SessionID, record.ID)
	assert.Equal(t, "Backend Engineer", record.Position)
	assert.Equal(t, "engineering", record.TemplateID)
	assert.Equal(t, 75.0, record.MatchScore)
	assert.NotNil(t, record.CompletedAt)
}
