package ingest

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/llm"
	"github.com/jonathan/cv-tailor/internal/schema"
	"github.com/jonathan/cv-tailor/internal/types"
)

// Extraction methods recorded on the parse result.
const (
	MethodLLM       = "llm"
	MethodHeuristic = "heuristic"
)

// ParsedCV is the ingestion output: the canonical resume plus how it was
// produced and how complete it is.
type ParsedCV struct {
	Resume       *types.CanonicalResume
	Completeness types.Completeness
	SourceFile   string
	Method       string
}

// Parser extracts a canonical resume from a CV file.
type Parser struct {
	extractor TextExtractor
	completer llm.Completer
	log       *zap.Logger
}

// NewParser builds a parser. completer may be nil, which forces the
// heuristic conversion path.
func NewParser(extractor TextExtractor, completer llm.Completer, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if extractor == nil {
		extractor = PlainTextExtractor{}
	}
	return &Parser{extractor: extractor, completer: completer, log: log}
}

// Parse reads a CV file and returns its canonical resume. LLM extraction
// output that fails normalization falls back to the heuristic parser
// rather than failing ingestion.
func (p *Parser) Parse(ctx context.Context, path string) (*ParsedCV, error) {
	text, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}

	resume, method, err := p.toResume(ctx, text)
	if err != nil {
		return nil, err
	}
	schema.NormalizeResume(resume)
	if err := schema.Validate(resume); err != nil {
		return nil, err
	}

	completeness := types.AssessCompleteness(resume)
	p.log.Info("parsed CV",
		zap.String("file", path),
		zap.String("method", method),
		zap.Float64("completeness", completeness.Score),
		zap.Bool("complete", completeness.Complete))

	return &ParsedCV{
		Resume:       resume,
		Completeness: completeness,
		SourceFile:   path,
		Method:       method,
	}, nil
}

func (p *Parser) toResume(ctx context.Context, text string) (*types.CanonicalResume, string, error) {
	if p.completer != nil {
		resume, err := p.llmConvert(ctx, text)
		if err == nil {
			return resume, MethodLLM, nil
		}
		if agent.Classify(err) != agent.KindSchema {
			return nil, "", err
		}
		p.log.Warn("LLM extraction output unrecoverable, using heuristic parser", zap.Error(err))
	}

	resume, err := p.heuristicConvert(text)
	if err != nil {
		return nil, "", err
	}
	return resume, MethodHeuristic, nil
}

func (p *Parser) llmConvert(ctx context.Context, text string) (*types.CanonicalResume, error) {
	prompt, hint := llm.BuildResumeExtractionPrompt(text)
	raw, err := p.completer.Complete(ctx, prompt, hint)
	if err != nil {
		return nil, err
	}
	return schema.Normalize(json.RawMessage(llm.CleanJSONBlock(raw)))
}

func (p *Parser) heuristicConvert(text string) (*types.CanonicalResume, error) {
	doc := ParseSections(text)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, agent.Errorf(agent.KindParse, "encoding extracted sections: %v", err)
	}
	return schema.Normalize(encoded)
}
