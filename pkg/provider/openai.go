package provider

import (
	"context"
	"errors"
	"net/http"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/config"
)

// openAICompatibleClient backs OpenAI itself plus every OpenAI-wire-compatible
// provider in the registry (Mistral, Together, HuggingFace) by pointing the
// SDK at the provider's base URL. It implements both Embedder and Generator,
// since the wire protocol is shared across both capabilities.
type openAICompatibleClient struct {
	sdk  sdk.Client
	name string
}

func newOpenAICompatibleClient(pc *config.ProviderConfig) (*openAICompatibleClient, error) {
	apiKey := envLookup(pc.APIKeyEnv)
	if apiKey == "" {
		return nil, apperrors.New(apperrors.KindProviderAuth, "missing credential %s for provider %q", pc.APIKeyEnv, pc.Name)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	return &openAICompatibleClient{sdk: sdk.NewClient(opts...), name: pc.Name}, nil
}

func (c *openAICompatibleClient) Embed(ctx context.Context, model string, texts []string) (EmbedResult, error) {
	var result EmbedResult
	err := withRetry(ctx, 3, func() error {
		params := sdk.EmbeddingNewParams{
			Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: model,
		}
		resp, err := c.sdk.Embeddings.New(ctx, params)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(resp.Data) != len(texts) {
			return apperrors.New(apperrors.KindProviderBadRequest, "provider %q returned %d embeddings for %d inputs", c.name, len(resp.Data), len(texts))
		}
		vectors := make([][]float32, len(resp.Data))
		dim := 0
		for i, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for j, v := range d.Embedding {
				vec[j] = float32(v)
			}
			vectors[i] = vec
			dim = len(vec)
		}
		result = EmbedResult{
			Vectors:    vectors,
			Dimension:  dim,
			TokenCount: int(resp.Usage.PromptTokens),
		}
		return nil
	})
	return result, err
}

func (c *openAICompatibleClient) Generate(ctx context.Context, model string, prompt string, temperature float64, maxTokens int) (GenerateResult, error) {
	var result GenerateResult
	err := withRetry(ctx, 3, func() error {
		params := sdk.ChatCompletionNewParams{
			Model: sdk.ChatModel(model),
			Messages: []sdk.ChatCompletionMessageParamUnion{
				sdk.UserMessage(prompt),
			},
			Temperature: sdk.Float(temperature),
		}
		if maxTokens > 0 {
			params.MaxTokens = sdk.Int(int64(maxTokens))
		}
		comp, err := c.sdk.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(comp.Choices) == 0 {
			return apperrors.New(apperrors.KindProviderBadRequest, "provider %q returned no choices", c.name)
		}
		result = GenerateResult{
			Text:             comp.Choices[0].Message.Content,
			PromptTokens:     int(comp.Usage.PromptTokens),
			CompletionTokens: int(comp.Usage.CompletionTokens),
		}
		return nil
	})
	return result, err
}

// classifyOpenAIError maps an SDK error to the provider failure taxonomy of
// spec §4.A using the SDK's exposed HTTP status code where available.
func classifyOpenAIError(err error) error {
	var apiErr *sdk.Error
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
