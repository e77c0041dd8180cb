package observability

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/pipeline"
	"github.com/jonathan/cv-tailor/internal/render"
	"github.com/jonathan/cv-tailor/internal/types"
)

func TestPrintJob(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJob(&types.JobRequirement{
		Position:       "Backend Engineer",
		Company:        "Initech",
		Seniority:      types.SenioritySenior,
		RequiredSkills: []string{"Go", "PostgreSQL", "Kubernetes", "Docker", "AWS", "Terraform"},
		Qualifications: []string{"5+ years of experience"},
	})

	out := buf.String()
	assert.Contains(t, out, "JOB REQUIREMENTS")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "Initech")
	assert.Contains(t, out, "Go")
	// The sixth skill falls past the display cap.
	assert.Contains(t, out, "and 1 more")
	assert.Contains(t, out, "5+ years of experience")
}

func TestPrintJobNilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJob(nil)
	assert.Empty(t, buf.String())
}

func TestPrintGaps(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGaps([]types.Gap{
		{ID: "gap-1", Category: "skill", Description: "Kubernetes"},
		{ID: "gap-2", Category: "qualification", Description: "AWS certification"},
	}, 66.7)

	out := buf.String()
	assert.Contains(t, out, "SKILL GAPS")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "Kubernetes")
	assert.Contains(t, out, "[qualification]")
}

func TestPrintGapsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintGaps(nil, 100)
	assert.Contains(t, buf.String(), "NO GAPS FOUND")
}

func TestPrintSessionLog(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSessionLog([]pipeline.LogEntry{
		{Stage: agent.StageIngestion, Outcome: pipeline.OutcomeOK},
		{Stage: agent.StageJobAnalysis, Outcome: pipeline.OutcomeOK, Retries: 2},
		{Stage: agent.StageGeneration, Outcome: pipeline.OutcomeFailed, ErrorKind: agent.KindProvider},
	})

	out := buf.String()
	assert.Contains(t, out, "SESSION LOG")
	assert.Contains(t, out, "✓ ingestion")
	assert.Contains(t, out, "(2 retries)")
	assert.Contains(t, out, "✗ generation")
	assert.Contains(t, out, "[ProviderError]")
}

func TestPrintResultSuccess(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&pipeline.Result{
		SessionID:  uuid.New(),
		State:      pipeline.StateDone,
		MatchScore: 83.3,
		Payload:    &render.Payload{TemplateID: "engineering"},
		Warnings:   []string{"parsed CV is incomplete, tailoring quality may suffer"},
	})

	out := buf.String()
	assert.Contains(t, out, "SESSION COMPLETE")
	assert.Contains(t, out, "83.3%")
	assert.Contains(t, out, "engineering")
	assert.Contains(t, out, "Warnings:")
}

func TestPrintResultFailure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&pipeline.Result{
		SessionID:    uuid.New(),
		State:        pipeline.StateFailed,
		Failed:       true,
		FailedStage:  agent.StageJobAnalysis,
		ErrorKind:    agent.KindFetch,
		ErrorMessage: "job posting fetch returned status 503",
	})

	out := buf.String()
	assert.Contains(t, out, "SESSION FAILED")
	assert.Contains(t, out, "job_analysis")
	assert.Contains(t, out, "FetchError")
}
