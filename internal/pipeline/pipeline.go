// Package pipeline sequences the five stages over orchestrator-owned
// session state. The orchestrator is the only component that mutates a
// session, the only caller of stages, and the only place where retry,
// fallback and terminal-failure decisions are made.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/db"
	"github.com/jonathan/cv-tailor/internal/render"
	"github.com/jonathan/cv-tailor/internal/stages/generation"
	"github.com/jonathan/cv-tailor/internal/stages/ingestion"
	"github.com/jonathan/cv-tailor/internal/stages/interaction"
	"github.com/jonathan/cv-tailor/internal/stages/jobanalysis"
	"github.com/jonathan/cv-tailor/internal/stages/storage"
	"github.com/jonathan/cv-tailor/internal/types"
)

// State is the session's position in the pipeline.
type State string

const (
	StateStart      State = "start"
	StateIngested   State = "ingested"
	StateAnalyzed   State = "analyzed"
	StateInteracted State = "interacted"
	StateStored     State = "stored"
	StateGenerated  State = "generated"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Log entry outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// LogEntry records one stage execution in the session log.
type LogEntry struct {
	Stage     agent.StageName `json:"stage"`
	Outcome   string          `json:"outcome"`
	ErrorKind agent.ErrorKind `json:"errorKind,omitempty"`
	Retries   int             `json:"retries,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Session is the orchestrator-owned mutable state of one pipeline run.
// Stages receive snapshots through call params and never touch it.
type Session struct {
	ID          uuid.UUID
	UserID      string
	CVPath      string
	JobURL      string
	JobText     string
	Interactive bool

	State      State
	Resume     *types.CanonicalResume
	Job        *types.JobRequirement
	Gaps       []types.Gap
	Answers    []types.Answer
	MatchScore float64
	Warnings   []string
	Log        []LogEntry
}

// Result is what every run returns, success or not. It reports the
// furthest state reached and, only on terminal failure, the failing stage
// and error kind. No unstructured fault ever crosses this boundary.
type Result struct {
	SessionID  uuid.UUID              `json:"sessionId"`
	State      State                  `json:"state"`
	Resume     *types.CanonicalResume `json:"resume,omitempty"`
	Job        *types.JobRequirement  `json:"job,omitempty"`
	Gaps       []types.Gap            `json:"gaps,omitempty"`
	MatchScore float64                `json:"matchScore"`
	Payload    *render.Payload        `json:"payload,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Log        []LogEntry             `json:"log"`

	Failed       bool            `json:"failed"`
	FailedStage  agent.StageName `json:"failedStage,omitempty"`
	ErrorKind    agent.ErrorKind `json:"errorKind,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// Request describes one tailoring session.
type Request struct {
	UserID      string
	CVPath      string
	JobURL      string
	JobText     string
	Interactive bool
}

// Options tune orchestrator behavior.
type Options struct {
	// RetryBudget is the maximum number of retries per stage call for
	// transient error kinds. Schema and validation errors never retry.
	RetryBudget int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	// GapThreshold is the minimum gap count that triggers the interaction
	// stage. Below it the stage is skipped entirely.
	GapThreshold int
}

// DefaultOptions returns the standard retry policy.
func DefaultOptions() Options {
	return Options{RetryBudget: 3, Backoff: time.Second, GapThreshold: 1}
}

// Orchestrator runs sessions against a stage registry.
type Orchestrator struct {
	registry *agent.Registry
	opts     Options
	log      *zap.Logger
}

// NewOrchestrator builds an orchestrator. Zero option fields take their
// defaults; a nil logger is replaced with a no-op one.
func NewOrchestrator(registry *agent.Registry, opts Options, log *zap.Logger) *Orchestrator {
	if opts.RetryBudget <= 0 {
		opts.RetryBudget = DefaultOptions().RetryBudget
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultOptions().Backoff
	}
	if opts.GapThreshold <= 0 {
		opts.GapThreshold = DefaultOptions().GapThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{registry: registry, opts: opts, log: log}
}

// Run executes one session end to end and always returns a result.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	session := &Session{
		ID:          uuid.New(),
		UserID:      req.UserID,
		CVPath:      req.CVPath,
		JobURL:      req.JobURL,
		JobText:     req.JobText,
		Interactive: req.Interactive,
		State:       StateStart,
	}
	log := o.log.With(zap.String("session_id", session.ID.String()))
	log.Info("starting pipeline", zap.String("cv", req.CVPath))

	var payload *render.Payload
	steps := []struct {
		name agent.StageName
		next State
		run  func(context.Context, *Session) *agent.ErrorDetail
	}{
		{agent.StageIngestion, StateIngested, o.runIngestion},
		{agent.StageJobAnalysis, StateAnalyzed, o.runJobAnalysis},
		{agent.StageInteraction, StateInteracted, o.runInteraction},
		{agent.StageStorage, StateStored, o.runStorage},
		{agent.StageGeneration, StateGenerated, func(ctx context.Context, s *Session) *agent.ErrorDetail {
			p, detail := o.runGeneration(ctx, s)
			payload = p
			return detail
		}},
	}

	for _, step := range steps {
		// Interaction is skippable: below the gap threshold there is
		// nothing worth asking, and the session log records no entry for
		// the stage.
		if step.name == agent.StageInteraction && len(session.Gaps) < o.opts.GapThreshold {
			continue
		}

		if detail := step.run(ctx, session); detail != nil {
			session.State = StateFailed
			log.Warn("pipeline failed",
				zap.String("stage", string(step.name)),
				zap.String("kind", string(detail.Kind)))
			result := o.result(session, payload)
			result.Failed = true
			result.FailedStage = step.name
			result.ErrorKind = detail.Kind
			result.ErrorMessage = detail.Message
			return result
		}
		session.State = step.next
	}

	session.State = StateDone
	log.Info("pipeline completed",
		zap.Float64("match_score", session.MatchScore),
		zap.Int("warnings", len(session.Warnings)))
	return o.result(session, payload)
}

func (o *Orchestrator) result(s *Session, payload *render.Payload) *Result {
	return &Result{
		SessionID:  s.ID,
		State:      s.State,
		Resume:     s.Resume,
		Job:        s.Job,
		Gaps:       s.Gaps,
		MatchScore: s.MatchScore,
		Payload:    payload,
		Warnings:   s.Warnings,
		Log:        s.Log,
	}
}

// invoke performs one stage call under the retry policy: transient error
// kinds retry with doubling backoff up to the budget, everything else
// fails immediately. The returned retry count feeds the session log.
func (o *Orchestrator) invoke(ctx context.Context, s *Session, stage agent.StageName, action string, params agent.Params) (agent.Response, *agent.ErrorDetail) {
	backoff := o.opts.Backoff
	var resp agent.Response
	var retries int

	for attempt := 0; ; attempt++ {
		resp = o.registry.Invoke(ctx, stage, action, params)
		if resp.OK() {
			break
		}
		if !resp.Error.Kind.Transient() || attempt >= o.opts.RetryBudget {
			s.Log = append(s.Log, LogEntry{
				Stage: stage, Outcome: OutcomeFailed,
				ErrorKind: resp.Error.Kind, Retries: retries,
				Timestamp: time.Now().UTC(),
			})
			return resp, resp.Error
		}

		retries++
		o.log.Warn("retrying stage call",
			zap.String("stage", string(stage)),
			zap.String("kind", string(resp.Error.Kind)),
			zap.Int("attempt", attempt+1))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			detail := agent.Errorf(agent.KindNetwork, "session canceled while retrying %s: %v", stage, ctx.Err())
			s.Log = append(s.Log, LogEntry{
				Stage: stage, Outcome: OutcomeFailed,
				ErrorKind: detail.Kind, Retries: retries,
				Timestamp: time.Now().UTC(),
			})
			return resp, detail
		}
		backoff *= 2
	}

	s.Log = append(s.Log, LogEntry{
		Stage: stage, Outcome: OutcomeOK, Retries: retries,
		Timestamp: time.Now().UTC(),
	})
	return resp, nil
}

func (o *Orchestrator) runIngestion(ctx context.Context, s *Session) *agent.ErrorDetail {
	resp, detail := o.invoke(ctx, s, agent.StageIngestion, ingestion.ActionParseCV, agent.Params{
		"cv_path": s.CVPath,
	})
	if detail != nil {
		return detail
	}
	result, ok := resp.Data.(*ingestion.Result)
	if !ok {
		return agent.Errorf(agent.KindAgentCommunication, "ingestion returned unexpected data type")
	}

	s.Resume = result.Resume
	if !result.Completeness.Complete {
		s.Warnings = append(s.Warnings, "parsed CV is incomplete, tailoring quality may suffer")
	}
	return nil
}

func (o *Orchestrator) runJobAnalysis(ctx context.Context, s *Session) *agent.ErrorDetail {
	resp, detail := o.invoke(ctx, s, agent.StageJobAnalysis, jobanalysis.ActionAnalyze, agent.Params{
		"resume":   s.Resume.Clone(),
		"job_text": s.JobText,
		"job_url":  s.JobURL,
	})
	if detail != nil {
		return detail
	}
	result, ok := resp.Data.(*jobanalysis.Result)
	if !ok {
		return agent.Errorf(agent.KindAgentCommunication, "job analysis returned unexpected data type")
	}

	s.Job = result.Job
	s.Gaps = result.Gaps
	s.MatchScore = result.MatchScore
	return nil
}

func (o *Orchestrator) runInteraction(ctx context.Context, s *Session) *agent.ErrorDetail {
	resp, detail := o.invoke(ctx, s, agent.StageInteraction, interaction.ActionCollect, agent.Params{
		"gaps":        s.Gaps,
		"job":         s.Job,
		"interactive": s.Interactive,
	})
	if detail != nil {
		return detail
	}
	result, ok := resp.Data.(*interaction.Result)
	if !ok {
		return agent.Errorf(agent.KindAgentCommunication, "interaction returned unexpected data type")
	}

	s.Answers = result.Answers
	return nil
}

func (o *Orchestrator) runStorage(ctx context.Context, s *Session) *agent.ErrorDetail {
	resp, detail := o.invoke(ctx, s, agent.StageStorage, storage.ActionStoreProfile, agent.Params{
		"resume":  s.Resume.Clone(),
		"user_id": s.UserID,
	})
	if detail != nil {
		return detail
	}
	result, ok := resp.Data.(*storage.Result)
	if !ok {
		return agent.Errorf(agent.KindAgentCommunication, "storage returned unexpected data type")
	}

	if result.Warning != "" {
		s.Warnings = append(s.Warnings, result.Warning)
	}
	return nil
}

func (o *Orchestrator) runGeneration(ctx context.Context, s *Session) (*render.Payload, *agent.ErrorDetail) {
	resp, detail := o.invoke(ctx, s, agent.StageGeneration, generation.ActionGenerate, agent.Params{
		"resume":      s.Resume.Clone(),
		"job":         s.Job,
		"answers":     s.Answers,
		"match_score": s.MatchScore,
	})
	if detail != nil {
		return nil, detail
	}
	result, ok := resp.Data.(*generation.Result)
	if !ok {
		return nil, agent.Errorf(agent.KindAgentCommunication, "generation returned unexpected data type")
	}

	s.Resume = result.Resume
	s.Warnings = append(s.Warnings, result.Warnings...)
	return result.Payload, nil
}

// SessionRecord converts a finished result into the persisted record shape.
func (r *Result) SessionRecord(userID, jobURL string) *db.SessionRecord {
	record := &db.SessionRecord{
		ID:         r.SessionID,
		UserID:     userID,
		JobURL:     jobURL,
		MatchScore: r.MatchScore,
		Status:     db.SessionCompleted,
		Resume:     r.Resume,
		Warnings:   r.Warnings,
	}
	if r.Job != nil {
		record.Position = r.Job.Position
		record.Company = r.Job.Company
	}
	if r.Payload != nil {
		record.TemplateID = r.Payload.TemplateID
	}
	if r.Failed {
		record.Status = db.SessionFailed
	}
	now := time.Now().UTC()
	record.CompletedAt = &now
	return record
}
