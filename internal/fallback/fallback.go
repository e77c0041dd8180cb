// Package fallback validates LLM-tailored resumes against the untailored
// original and substitutes original sections where tailoring went wrong.
// Rejection here is never a pipeline failure; it produces warnings and a
// partially or fully restored document.
package fallback

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/schema"
	"github.com/jonathan/cv-tailor/internal/types"
)

// DefaultMaxGrowthRatio bounds how much the tailored skill keyword count
// may exceed the original's. Tailoring reorders and rephrases; it must not
// fabricate a skill list twice the size of the truth.
const DefaultMaxGrowthRatio = 2.0

// Outcome is the engine's decision for one candidate.
type Outcome struct {
	Resume *types.CanonicalResume
	// Accepted is true when the candidate passed every check unmodified.
	Accepted bool
	// FallbackSections names the sections restored from the original.
	FallbackSections []string
	// Reasons holds one warning per rejected check, for the session log.
	Reasons []string
}

// Engine validates tailored candidates.
type Engine struct {
	maxGrowthRatio float64
}

// NewEngine builds an engine. A non-positive ratio uses the default.
func NewEngine(maxGrowthRatio float64) *Engine {
	if maxGrowthRatio <= 0 {
		maxGrowthRatio = DefaultMaxGrowthRatio
	}
	return &Engine{maxGrowthRatio: maxGrowthRatio}
}

// ValidateRaw parses raw tailored output and validates it. Unparseable
// output rejects the whole candidate and returns the original untouched.
func (e *Engine) ValidateRaw(raw json.RawMessage, original *types.CanonicalResume) Outcome {
	candidate, err := schema.ParseCandidate(raw)
	if err != nil {
		return Outcome{
			Resume:           original.Clone(),
			FallbackSections: []string{"all"},
			Reasons:          []string{fmt.Sprintf("tailored output failed schema validation: %v", agent.Detail(err).Message)},
		}
	}
	return e.Validate(candidate, original)
}

// Validate runs the checks in order: identity, dropped sections, keyword
// growth. Each violation substitutes the original data for the affected
// section only; the rest of the tailoring is kept.
func (e *Engine) Validate(candidate, original *types.CanonicalResume) Outcome {
	out := Outcome{Resume: candidate.Clone()}

	if candidate.Basics.Name != original.Basics.Name || candidate.Basics.Email != original.Basics.Email {
		out.Resume.Basics = original.Basics
		out.FallbackSections = append(out.FallbackSections, "basics")
		out.Reasons = append(out.Reasons, "tailoring altered identity fields, original basics restored")
	}

	for _, check := range sectionChecks {
		if check.dropped(candidate, original) {
			check.restore(out.Resume, original)
			out.FallbackSections = append(out.FallbackSections, check.name)
			out.Reasons = append(out.Reasons, fmt.Sprintf("tailoring dropped non-empty section %q, original restored", check.name))
		}
	}

	if origCount := original.KeywordCount(); origCount > 0 {
		if ratio := float64(out.Resume.KeywordCount()) / float64(origCount); ratio > e.maxGrowthRatio {
			out.Resume.Skills = cloneSkills(original.Skills)
			out.FallbackSections = append(out.FallbackSections, "skills")
			out.Reasons = append(out.Reasons,
				fmt.Sprintf("tailored skill keywords grew %.1fx over the original (limit %.1fx), original skills restored", ratio, e.maxGrowthRatio))
		}
	}

	out.Accepted = len(out.Reasons) == 0
	return out
}

type sectionCheck struct {
	name    string
	dropped func(candidate, original *types.CanonicalResume) bool
	restore func(dst, original *types.CanonicalResume)
}

var sectionChecks = []sectionCheck{
	{
		name:    "work",
		dropped: func(c, o *types.CanonicalResume) bool { return len(c.Work) == 0 && len(o.Work) > 0 },
		restore: func(dst, o *types.CanonicalResume) { dst.Work = o.Clone().Work },
	},
	{
		name:    "education",
		dropped: func(c, o *types.CanonicalResume) bool { return len(c.Education) == 0 && len(o.Education) > 0 },
		restore: func(dst, o *types.CanonicalResume) { dst.Education = o.Clone().Education },
	},
	{
		name:    "skills",
		dropped: func(c, o *types.CanonicalResume) bool { return len(c.Skills) == 0 && len(o.Skills) > 0 },
		restore: func(dst, o *types.CanonicalResume) { dst.Skills = cloneSkills(o.Skills) },
	},
	{
		name:    "projects",
		dropped: func(c, o *types.CanonicalResume) bool { return len(c.Projects) == 0 && len(o.Projects) > 0 },
		restore: func(dst, o *types.CanonicalResume) { dst.Projects = o.Clone().Projects },
	},
	{
		name:    "certificates",
		dropped: func(c, o *types.CanonicalResume) bool { return len(c.Certificates) == 0 && len(o.Certificates) > 0 },
		restore: func(dst, o *types.CanonicalResume) { dst.Certificates = o.Clone().Certificates },
	},
}

func cloneSkills(skills []types.Skill) []types.Skill {
	if skills == nil {
		return nil
	}
	out := make([]types.Skill, len(skills))
	for i, s := range skills {
		out[i] = types.Skill{Name: s.Name, Keywords: append([]string(nil), s.Keywords...)}
	}
	return out
}
