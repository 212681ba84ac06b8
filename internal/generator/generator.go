// Package generator turns a job title into a daily vocabulary set and a
// vocabulary set into a quiz by prompting a remote text-generation agent.
//
// The agent answers with free text that is expected, but not guaranteed, to be
// JSON. GenerateVocabulary and GenerateQuiz return that text verbatim;
// ParseWordObject and ParseQuiz are the strict boundary that turns it into
// typed values or a *GenerationError.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/jobvocab/internal/models"
)

type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError reports a failed remote call or unusable agent output.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ErrMalformedOutput is wrapped by every parse failure.
var ErrMalformedOutput = errors.New("malformed generated output")

// Gateway builds prompts and forwards them to the agent.
// It keeps no state between calls: every call is a new conversation.
type Gateway struct {
	agent textGenerator
}

func New(agent textGenerator) *Gateway {
	return &Gateway{agent: agent}
}

// GenerateVocabulary asks the agent for today's entries for jobTitle.
func (g *Gateway) GenerateVocabulary(ctx context.Context, jobTitle string) (string, error) {
	text, err := g.agent.Generate(ctx, buildVocabularyPrompt(jobTitle))
	if err != nil {
		return "", &GenerationError{Op: "generate vocabulary", Err: err}
	}

	return text, nil
}

// GenerateQuiz asks the agent for quiz items built only from words.
func (g *Gateway) GenerateQuiz(ctx context.Context, words models.WordObject) (string, error) {
	data, err := json.Marshal(words)
	if err != nil {
		return "", &GenerationError{Op: "generate quiz", Err: err}
	}

	text, err := g.agent.Generate(ctx, buildQuizPrompt(string(data)))
	if err != nil {
		return "", &GenerationError{Op: "generate quiz", Err: err}
	}

	return text, nil
}
