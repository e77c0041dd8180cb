// Package agent implements the call protocol used for every inter-stage
// invocation. The orchestrator reaches stages exclusively through
// Registry.Invoke; stages never call each other and never touch session
// state outside the params and return value of a single call. The registry
// is a closed table keyed by an enumerated stage name, so dispatch stays
// statically checkable and tests can substitute deterministic fakes for the
// LLM, document and vector-store collaborators at this seam.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StageName identifies one of the five pipeline stages.
type StageName string

const (
	StageIngestion   StageName = "ingestion"
	StageJobAnalysis StageName = "job_analysis"
	StageInteraction StageName = "interaction"
	StageStorage     StageName = "storage"
	StageGeneration  StageName = "generation"
)

// Status is the outcome marker of a protocol response.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Params carries the inputs of a single stage action. Values are owned by
// the caller; stages must treat them as immutable snapshots.
type Params map[string]any

// Request is the envelope for one stage invocation.
type Request struct {
	Stage         StageName `json:"stage"`
	Action        string    `json:"action"`
	Params        Params    `json:"-"`
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
}

// Response is the envelope returned for every invocation. Exactly one of
// Data and Error is set.
type Response struct {
	Status        Status       `json:"status"`
	Data          any          `json:"data,omitempty"`
	Error         *ErrorDetail `json:"errorDetail,omitempty"`
	CorrelationID string       `json:"correlationId"`
}

// OK reports whether the invocation succeeded.
func (r Response) OK() bool { return r.Status == StatusOK }

// Handler executes a single stage action.
type Handler func(ctx context.Context, params Params) (any, error)

// Stage is the capability every pipeline stage implements: a name and a
// fixed table of actions.
type Stage interface {
	Name() StageName
	Actions() map[string]Handler
}

// Registry holds the closed stage/action dispatch table.
type Registry struct {
	handlers map[StageName]map[string]Handler
	log      *zap.Logger
}

// NewRegistry builds a registry from the given stages. Later registrations
// of the same stage name replace earlier ones, which is how tests install
// fakes.
func NewRegistry(log *zap.Logger, stages ...Stage) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		handlers: make(map[StageName]map[string]Handler),
		log:      log,
	}
	for _, s := range stages {
		r.Register(s)
	}
	return r
}

// Register installs or replaces a stage.
func (r *Registry) Register(s Stage) {
	r.handlers[s.Name()] = s.Actions()
}

// Invoke performs one inter-stage call. All detected errors surface through
// the response's error channel; Invoke itself never panics past a handler
// and never returns a Go error.
func (r *Registry) Invoke(ctx context.Context, stage StageName, action string, params Params) Response {
	req := Request{
		Stage:         stage,
		Action:        action,
		Params:        params,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now().UTC(),
	}

	log := r.log.With(
		zap.String("stage", string(stage)),
		zap.String("action", action),
		zap.String("correlation_id", req.CorrelationID),
	)

	actions, ok := r.handlers[stage]
	if !ok {
		log.Warn("unknown stage")
		return errorResponse(req, Errorf(KindAgentCommunication, "stage %q is not registered", stage))
	}
	handler, ok := actions[action]
	if !ok {
		log.Warn("unknown action")
		return errorResponse(req, Errorf(KindAgentCommunication, "stage %q has no action %q", stage, action))
	}

	log.Debug("invoking stage")
	data, err := handler(ctx, params)
	if err != nil {
		detail := Detail(err)
		log.Warn("stage call failed", zap.String("kind", string(detail.Kind)), zap.String("message", detail.Message))
		return errorResponse(req, detail)
	}
	if data == nil {
		log.Warn("stage returned no data")
		return errorResponse(req, Errorf(KindAgentCommunication, "stage %q action %q returned no data", stage, action))
	}

	log.Debug("stage call completed")
	return Response{Status: StatusOK, Data: data, CorrelationID: req.CorrelationID}
}

func errorResponse(req Request, detail *ErrorDetail) Response {
	return Response{Status: StatusError, Error: detail, CorrelationID: req.CorrelationID}
}
