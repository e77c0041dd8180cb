// Package interaction implements the optional third stage: turning the
// gap list into user questions and collecting answers. In non-interactive
// deployments the stage returns an empty answer set without blocking.
package interaction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/llm"
	"github.com/jonathan/cv-tailor/internal/types"
)

// ActionCollect is the stage's single action.
const ActionCollect = "collect"

// minutesPerQuestion feeds the questionnaire's completion estimate.
const minutesPerQuestion = 2

// Result is the interaction output. Answers is empty when the session is
// non-interactive or the user skipped every question.
type Result struct {
	Questionnaire types.Questionnaire `json:"questionnaire"`
	Answers       []types.Answer      `json:"answers"`
}

// Asker obtains one answer from the user. An empty answer skips the gap.
type Asker interface {
	Ask(question string) (string, error)
}

// PromptAsker asks on the terminal.
type PromptAsker struct{}

func (PromptAsker) Ask(question string) (string, error) {
	prompt := promptui.Prompt{
		Label:     question,
		AllowEdit: true,
	}
	answer, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
			return "", nil
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return answer, nil
}

// Stage generates gap questions and gathers answers.
type Stage struct {
	completer llm.Completer
	asker     Asker
}

// New builds the stage. completer may be nil, which falls back to
// template questions. asker may be nil, defaulting to the terminal.
func New(completer llm.Completer, asker Asker) *Stage {
	if asker == nil {
		asker = PromptAsker{}
	}
	return &Stage{completer: completer, asker: asker}
}

func (s *Stage) Name() agent.StageName { return agent.StageInteraction }

func (s *Stage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		ActionCollect: s.collect,
	}
}

func (s *Stage) collect(ctx context.Context, params agent.Params) (any, error) {
	gaps, _ := params["gaps"].([]types.Gap)
	interactive, _ := params["interactive"].(bool)
	job, _ := params["job"].(*types.JobRequirement)

	questionnaire := s.buildQuestionnaire(ctx, gaps, job)
	result := &Result{Questionnaire: questionnaire}
	if !interactive || len(gaps) == 0 {
		return result, nil
	}

	gapByID := make(map[string]types.Gap, len(gaps))
	for _, g := range gaps {
		gapByID[g.ID] = g
	}

	for _, q := range questionnaire.Questions {
		answer, err := s.asker.Ask(q.Text)
		if err != nil {
			return nil, agent.Errorf(agent.KindAgentCommunication, "collecting answer: %v", err)
		}
		if answer == "" {
			continue
		}
		result.Answers = append(result.Answers, types.Answer{
			GapID:    q.GapID,
			Gap:      gapByID[q.GapID].Description,
			Response: answer,
		})
	}
	return result, nil
}

// buildQuestionnaire prefers LLM-written questions and silently falls back
// to the template form; question generation is never worth failing the
// stage over.
func (s *Stage) buildQuestionnaire(ctx context.Context, gaps []types.Gap, job *types.JobRequirement) types.Questionnaire {
	if len(gaps) == 0 {
		return types.Questionnaire{}
	}

	if s.completer != nil && job != nil {
		if q, err := s.llmQuestionnaire(ctx, gaps, job); err == nil {
			return q
		}
	}
	return templateQuestionnaire(gaps)
}

func (s *Stage) llmQuestionnaire(ctx context.Context, gaps []types.Gap, job *types.JobRequirement) (types.Questionnaire, error) {
	prompt, hint := llm.BuildQuestionnairePrompt(gaps, job)
	raw, err := s.completer.Complete(ctx, prompt, hint)
	if err != nil {
		return types.Questionnaire{}, err
	}

	var decoded struct {
		Questions []struct {
			GapID string `json:"gapId"`
			Text  string `json:"text"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &decoded); err != nil {
		return types.Questionnaire{}, err
	}

	valid := make(map[string]bool, len(gaps))
	for _, g := range gaps {
		valid[g.ID] = true
	}

	var questions []types.Question
	for i, q := range decoded.Questions {
		if q.Text == "" || !valid[q.GapID] {
			continue
		}
		questions = append(questions, types.Question{
			ID:    fmt.Sprintf("q-%d", i+1),
			GapID: q.GapID,
			Text:  q.Text,
		})
	}
	if len(questions) == 0 {
		return types.Questionnaire{}, fmt.Errorf("no usable questions in completion output")
	}
	return types.Questionnaire{
		Questions:        questions,
		EstimatedMinutes: len(questions) * minutesPerQuestion,
	}, nil
}

func templateQuestionnaire(gaps []types.Gap) types.Questionnaire {
	questions := make([]types.Question, len(gaps))
	for i, g := range gaps {
		questions[i] = types.Question{
			ID:    fmt.Sprintf("q-%d", i+1),
			GapID: g.ID,
			Text:  fmt.Sprintf("The role requires %q. Describe any experience you have with it, or leave blank to skip.", g.Description),
		}
	}
	return types.Questionnaire{
		Questions:        questions,
		EstimatedMinutes: len(questions) * minutesPerQuestion,
	}
}
