// Package gemini adapts the Google Gemini API to the text generator used by
// the vocabulary and quiz gateway.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/patric-chuzhbe/jobvocab/internal/logger"
)

var (
	ErrBlocked       = errors.New("prompt was blocked")
	ErrEmptyResponse = errors.New("empty response")
)

type Agent struct {
	client      *genai.Client
	modelName   string
	temperature float32
	timeout     time.Duration
}

type InitOption func(*Agent)

func WithTemperature(temperature float32) InitOption {
	return func(a *Agent) {
		a.temperature = temperature
	}
}

func WithTimeout(timeout time.Duration) InitOption {
	return func(a *Agent) {
		a.timeout = timeout
	}
}

func New(ctx context.Context, apiKey, modelName string, initOptions ...InitOption) (*Agent, error) {
	if apiKey == "" {
		logger.Log.Warnln("GEMINI_API_KEY is not set, generation requests will fail")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("in internal/generator/gemini/gemini.go/New(): error while `genai.NewClient()` calling: %w", err)
	}

	result := &Agent{
		client:      client,
		modelName:   modelName,
		temperature: 1,
		timeout:     60 * time.Second,
	}
	for _, initOption := range initOptions {
		initOption(result)
	}

	logger.Log.Infoln("Gemini client initialized", "model", modelName)

	return result, nil
}

// Generate sends prompt as a single-turn conversation and returns the text of the answer.
func (a *Agent) Generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	model := a.client.GenerativeModel(a.modelName)
	model.SetTemperature(a.temperature)
	model.ResponseMIMEType = "application/json"

	response, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("in internal/generator/gemini/gemini.go/Generate(): error while `model.GenerateContent()` calling: %w", err)
	}

	return responseText(response)
}

func (a *Agent) Close() error {
	return a.client.Close()
}

func responseText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil {
		return "", ErrEmptyResponse
	}
	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, response.PromptFeedback.BlockReason)
	}

	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}

		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
		if builder.Len() > 0 {
			return builder.String(), nil
		}
	}

	return "", ErrEmptyResponse
}
