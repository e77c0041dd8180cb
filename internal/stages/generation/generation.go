// Package generation implements the final stage: rewriting the resume's
// emphasis toward the job requirements, validating the result against the
// original, and assembling the rendering payload.
package generation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/fallback"
	"github.com/jonathan/cv-tailor/internal/llm"
	"github.com/jonathan/cv-tailor/internal/render"
	"github.com/jonathan/cv-tailor/internal/types"
)

// ActionGenerate is the stage's single action.
const ActionGenerate = "generate"

// Result is the generation output: the accepted resume (tailored, or with
// original sections substituted by the fallback engine) plus the payload a
// renderer consumes.
type Result struct {
	Resume   *types.CanonicalResume `json:"resume"`
	Payload  *render.Payload        `json:"payload"`
	Tailored bool                   `json:"tailored"`
	Warnings []string               `json:"warnings,omitempty"`
}

// Stage wraps tailoring and validation.
type Stage struct {
	completer llm.Completer
	engine    *fallback.Engine
}

// New builds the stage. completer may be nil; generation then emits the
// untailored resume with a warning. engine may be nil, using defaults.
func New(completer llm.Completer, engine *fallback.Engine) *Stage {
	if engine == nil {
		engine = fallback.NewEngine(0)
	}
	return &Stage{completer: completer, engine: engine}
}

func (s *Stage) Name() agent.StageName { return agent.StageGeneration }

func (s *Stage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		ActionGenerate: s.generate,
	}
}

func (s *Stage) generate(ctx context.Context, params agent.Params) (any, error) {
	resume, ok := params["resume"].(*types.CanonicalResume)
	if !ok || resume == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "generate requires a resume param")
	}
	job, ok := params["job"].(*types.JobRequirement)
	if !ok || job == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "generate requires a job param")
	}
	answers, _ := params["answers"].([]types.Answer)
	matchScore, _ := params["match_score"].(float64)

	final, tailored, warnings, err := s.tailor(ctx, resume, job, answers)
	if err != nil {
		return nil, err
	}

	payload := &render.Payload{
		Resume:      final,
		TemplateID:  render.SelectTemplate(job),
		Position:    job.Position,
		Company:     job.Company,
		MatchScore:  matchScore,
		Warnings:    warnings,
		GeneratedAt: time.Now().UTC(),
	}
	return &Result{
		Resume:   final,
		Payload:  payload,
		Tailored: tailored,
		Warnings: warnings,
	}, nil
}

func (s *Stage) tailor(ctx context.Context, resume *types.CanonicalResume, job *types.JobRequirement, answers []types.Answer) (*types.CanonicalResume, bool, []string, error) {
	if s.completer == nil {
		return resume.Clone(), false, []string{"no completion provider configured, resume used untailored"}, nil
	}

	prompt, hint, err := llm.BuildTailoringPrompt(resume, job, answers)
	if err != nil {
		return nil, false, nil, agent.Errorf(agent.KindAgentCommunication, "building tailoring prompt: %v", err)
	}
	raw, err := s.completer.Complete(ctx, prompt, hint)
	if err != nil {
		return nil, false, nil, err
	}

	outcome := s.engine.ValidateRaw(json.RawMessage(llm.CleanJSONBlock(raw)), resume)
	fullFallback := len(outcome.FallbackSections) == 1 && outcome.FallbackSections[0] == "all"
	return outcome.Resume, !fullFallback, outcome.Reasons, nil
}
