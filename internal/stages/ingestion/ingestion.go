// Package ingestion implements the pipeline's first stage: raw CV file to
// canonical resume plus a completeness assessment.
package ingestion

import (
	"context"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/ingest"
	"github.com/jonathan/cv-tailor/internal/types"
)

// ActionParseCV is the stage's single action.
const ActionParseCV = "parse_cv"

// Result is the ingestion stage output.
type Result struct {
	Resume       *types.CanonicalResume `json:"resume"`
	Completeness types.Completeness     `json:"completeness"`
	Method       string                 `json:"method"`
	SourceFile   string                 `json:"sourceFile"`
}

// Stage wraps the CV parser behind the agent call protocol.
type Stage struct {
	parser *ingest.Parser
}

func New(parser *ingest.Parser) *Stage {
	return &Stage{parser: parser}
}

func (s *Stage) Name() agent.StageName { return agent.StageIngestion }

func (s *Stage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		ActionParseCV: s.parseCV,
	}
}

func (s *Stage) parseCV(ctx context.Context, params agent.Params) (any, error) {
	path, ok := params["cv_path"].(string)
	if !ok || path == "" {
		return nil, agent.Errorf(agent.KindAgentCommunication, "parse_cv requires a cv_path param")
	}

	parsed, err := s.parser.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Result{
		Resume:       parsed.Resume,
		Completeness: parsed.Completeness,
		Method:       parsed.Method,
		SourceFile:   parsed.SourceFile,
	}, nil
}
