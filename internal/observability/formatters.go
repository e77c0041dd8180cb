// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/cv-tailor/internal/pipeline"
	"github.com/jonathan/cv-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJob outputs a human-readable summary of the analyzed job posting.
func (p *Printer) PrintJob(job *types.JobRequirement) {
	if job == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Position:  %s\n", job.Position))
	if job.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:   %s\n", job.Company))
	}
	if job.Seniority != types.SeniorityUnknown {
		sb.WriteString(fmt.Sprintf("Seniority: %s\n", job.Seniority))
	}
	sb.WriteString("\n")

	if len(job.RequiredSkills) > 0 {
		sb.WriteString("Required Skills:\n")
		count := min(len(job.RequiredSkills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", job.RequiredSkills[i]))
		}
		if len(job.RequiredSkills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.RequiredSkills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(job.Qualifications) > 0 {
		sb.WriteString("Qualifications:\n")
		count := min(len(job.Qualifications), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", job.Qualifications[i]))
		}
		if len(job.Qualifications) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.Qualifications)-3))
		}
	}

	p.printBox("JOB REQUIREMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGaps outputs the identified gaps between the resume and the job.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGaps(gaps []types.Gap, matchScore float64) {
	if len(gaps) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ NO GAPS FOUND (match %.1f%%)", matchScore))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match score: %.1f%%\n", matchScore))
	sb.WriteString(fmt.Sprintf("Found %d gaps:\n\n", len(gaps)))

	count := min(len(gaps), maxItemsToShow)
	for i := 0; i < count; i++ {
		gap := gaps[i]
		desc := gap.Description
		if len(desc) > 45 {
			desc = desc[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", desc))
		sb.WriteString(fmt.Sprintf("  [%s]\n", gap.Category))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(gaps) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more gaps", len(gaps)-maxItemsToShow))
	}

	p.printBox("SKILL GAPS", sb.String())
}

// PrintSessionLog outputs the per-stage execution log of a session.
func (p *Printer) PrintSessionLog(log []pipeline.LogEntry) {
	if len(log) == 0 {
		return
	}

	var sb strings.Builder
	for i, entry := range log {
		mark := "✓"
		if entry.Outcome != pipeline.OutcomeOK {
			mark = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %s", mark, entry.Stage))
		if entry.Retries > 0 {
			sb.WriteString(fmt.Sprintf(" (%d retries)", entry.Retries))
		}
		if entry.ErrorKind != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", entry.ErrorKind))
		}
		if i < len(log)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SESSION LOG", sb.String())
}

// PrintResult outputs the final session summary.
func (p *Printer) PrintResult(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:  %s\n", result.SessionID))
	sb.WriteString(fmt.Sprintf("State:    %s\n", result.State))

	if result.Failed {
		sb.WriteString(fmt.Sprintf("Failed:   %s stage\n", result.FailedStage))
		sb.WriteString(fmt.Sprintf("Error:    %s\n", result.ErrorKind))
		msg := result.ErrorMessage
		if len(msg) > 45 {
			msg = msg[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %s\n", msg))
	} else {
		sb.WriteString(fmt.Sprintf("Match:    %.1f%%\n", result.MatchScore))
		if result.Payload != nil {
			sb.WriteString(fmt.Sprintf("Template: %s\n", result.Payload.TemplateID))
		}
	}

	if len(result.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		count := min(len(result.Warnings), 3)
		for i := 0; i < count; i++ {
			warning := result.Warnings[i]
			if len(warning) > 50 {
				warning = warning[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", warning))
		}
		if len(result.Warnings) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Warnings)-3))
		}
	}

	title := "SESSION COMPLETE"
	if result.Failed {
		title = "SESSION FAILED"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}
