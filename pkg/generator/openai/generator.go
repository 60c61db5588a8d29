// Package openai implements generator.Generator on the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/recallhq/recall/pkg/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

// NewGenerator creates an OpenAI-backed generator.
func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)
	if options.Model == "" {
		options.Model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}

	return &openAIGenerator{
		options: options,
		client:  openai.NewClientWithConfig(config),
	}
}

func (g *openAIGenerator) Complete(ctx context.Context, req generator.Request) (string, error) {
	req = g.options.Resolve(req)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == generator.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	rsp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(rsp.Choices) == 0 {
		return "", generator.ErrEmptyResponse
	}
	result := strings.TrimSpace(rsp.Choices[0].Message.Content)
	if result == "" {
		return "", generator.ErrEmptyResponse
	}
	return result, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("openai: %w: %w", generator.ErrRateLimited, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("openai: %w: %w", generator.ErrRateLimited, err)
	}
	return fmt.Errorf("openai: %w: %w", generator.ErrUnavailable, err)
}
