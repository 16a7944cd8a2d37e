package provider

import (
	"context"
	"errors"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/config"
)

// anthropicClient implements Generator over the Anthropic Messages API.
// Anthropic does not expose a public embeddings endpoint, so this client
// only ever backs the Generator half of a Capability.
type anthropicClient struct {
	sdk  anthropic.Client
	name string
}

func newAnthropicClient(pc *config.ProviderConfig) (*anthropicClient, error) {
	apiKey := envLookup(pc.APIKeyEnv)
	if apiKey == "" {
		return nil, apperrors.New(apperrors.KindProviderAuth, "missing credential %s for provider %q", pc.APIKeyEnv, pc.Name)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	return &anthropicClient{sdk: anthropic.NewClient(opts...), name: pc.Name}, nil
}

func (c *anthropicClient) Generate(ctx context.Context, model string, prompt string, temperature float64, maxTokens int) (GenerateResult, error) {
	var result GenerateResult
	err := withRetry(ctx, 3, func() error {
		if maxTokens <= 0 {
			maxTokens = 1024
		}
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Temperature: anthropic.Float(temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		resp, err := c.sdk.Messages.New(ctx, params)
		if err != nil {
			return classifyAnthropicError(err)
		}
		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		result = GenerateResult{
			Text:             text,
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		}
		return nil
	})
	return result, err
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Wrap(apperrors.KindProviderAuth, err, "provider authentication failed")
		case http.StatusTooManyRequests:
			return apperrors.Wrap(apperrors.KindProviderRateLimited, err, "provider rate limited")
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return apperrors.Wrap(apperrors.KindProviderTimeout, err, "provider timed out")
		case http.StatusBadGateway, http.StatusServiceUnavailable:
			return apperrors.Wrap(apperrors.KindProviderUnavailable, err, "provider unavailable")
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return apperrors.Wrap(apperrors.KindProviderBadRequest, err, "provider rejected request")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindProviderTimeout, err, "provider call deadline exceeded")
	}
	return apperrors.Wrap(apperrors.KindProviderUnavailable, err, "provider call failed")
}
