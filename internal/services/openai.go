// OpenAI-compatible chat completion implementation of [Generator]
//
// Works against any server exposing POST /chat/completions (OpenAI, Ollama, LM Studio, vLLM).
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/vibesync/internal/shared"
)

const llmTimeout = 60 * time.Second

// ChatMessage is a single chat turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the body of a chat completion call.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatCompletionResponse holds the fields of a completion reply the generator reads.
type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIService generates text through an OpenAI-compatible chat completion endpoint.
type OpenAIService struct {
	api         *APIService
	model       string
	temperature float64
	retry       shared.RetryPolicy
}

// NewOpenAIService creates a generator from the LLM configuration.
func NewOpenAIService(cfg shared.LLMConfig) *OpenAIService {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = llmTimeout
	}

	return &OpenAIService{
		api:         NewAPIService(strings.TrimRight(cfg.BaseURL, "/"), &http.Client{Timeout: timeout}, BearerHeaders(cfg.APIKey)),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry:       cfg.Retry.Policy(),
	}
}

// Name returns the configured model.
func (o *OpenAIService) Name() string {
	return o.model
}

// Generate implements [Generator] with a single user message.
//
// Connection and timeout failures are retried. Every terminal failure wraps [shared.ErrGenerationFailed].
func (o *OpenAIService) Generate(ctx context.Context, prompt string) (string, error) {
	req := ChatCompletionRequest{
		Model:       o.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: o.temperature,
	}

	var text string
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		var resp ChatCompletionResponse
		if err := o.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("response has no choices")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}
	return text, nil
}
