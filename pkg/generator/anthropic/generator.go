// Package anthropic implements generator.Generator on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/recallhq/recall/pkg/generator"
)

const defaultModel = "claude-3-5-haiku-latest"

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

// NewGenerator creates an Anthropic-backed generator.
func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)
	if options.Model == "" {
		options.Model = defaultModel
	}

	reqOpts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(options.APIKey)}
	if options.BaseURL != "" {
		reqOpts = append(reqOpts, anthropicopt.WithBaseURL(options.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	return &anthropicGenerator{
		options: options,
		client:  &client,
	}
}

func (g *anthropicGenerator) Complete(ctx context.Context, req generator.Request) (string, error) {
	req = g.options.Resolve(req)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.options.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == generator.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	rsp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", generator.ErrEmptyResponse
	}
	return result, nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("anthropic: %w: %w", generator.ErrRateLimited, err)
	}
	return fmt.Errorf("anthropic: %w: %w", generator.ErrUnavailable, err)
}
