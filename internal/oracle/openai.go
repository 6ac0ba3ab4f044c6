package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"harcurl/internal/compress"
)

const systemPrompt = `You are an expert at analyzing HTTP requests captured from browser traffic to identify API endpoints.

Your task is to:
1. Analyze a list of HTTP requests from a network capture
2. Find the request that best matches the user's description
3. Return the index of the best matching request

Key considerations:
- Focus on requests that return JSON, XML, or other structured data (not HTML)
- Look for requests that match the functional description provided by the user
- Consider the URL path, query parameters, request method, and response content
- Prioritize API endpoints over static assets or page loads
- If multiple requests seem relevant, choose the one most likely to be the primary API call

Be conservative: only return a high confidence score if you are quite sure the request matches the description. Return selected_index -1 if nothing matches.`

// selectionSchema is the structured-output contract the model must satisfy.
var selectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"selected_index": map[string]any{
			"type":        "integer",
			"description": "Index of the best matching request (-1 if none match)",
		},
		"confidence": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Confidence score for the selection",
		},
		"reasoning": map[string]any{
			"type":        "string",
			"description": "Why this request was selected",
		},
		"alternatives": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "integer"},
			"description": "Other request indices worth considering",
		},
	},
	"required": []string{"selected_index", "confidence", "reasoning"},
}

// OpenAISelector implements Selector with an OpenAI chat completion using a
// JSON-schema response format.
type OpenAISelector struct {
	client          openai.Client
	model           string
	temperature     float64
	maxTokens       int64
	timeout         time.Duration
	candidateBudget int
}

// OpenAIOption customizes the selector.
type OpenAIOption func(*OpenAISelector)

// WithBaseURL points the selector at an alternative API endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(s *OpenAISelector) {
		s.client = openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(0),
		)
	}
}

// NewOpenAISelector builds the production selector.
func NewOpenAISelector(apiKey, model string, temperature float64, maxTokens int64, timeout time.Duration, opts ...OpenAIOption) *OpenAISelector {
	s := &OpenAISelector{
		// Retry policy is ours (one retry in Select), so the SDK's built-in
		// retries are disabled.
		client:      openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select sends the description and compressed candidates to the model and
// decodes its structured answer. A transport failure is retried exactly once;
// a semantically valid "no match" answer is never retried.
func (s *OpenAISelector) Select(ctx context.Context, description string, candidates []compress.Candidate) (Selection, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.complete(ctx, description, candidates)
	if err != nil {
		if ctx.Err() != nil {
			return Selection{}, fmt.Errorf("oracle call cancelled: %w", ctx.Err())
		}
		slog.Warn("oracle.transport_failure, retrying once", "error", err)
		raw, err = s.complete(ctx, description, candidates)
		if err != nil {
			return Selection{}, fmt.Errorf("oracle unavailable after retry: %w", err)
		}
	}

	sel, perr := ParseReply(raw)
	if perr != nil {
		return Selection{}, perr
	}

	slog.Info("oracle.selection",
		"selected_index", sel.Index,
		"confidence", sel.Confidence,
		"candidates", len(candidates),
	)
	return sel, nil
}

func (s *OpenAISelector) complete(ctx context.Context, description string, candidates []compress.Candidate) (string, error) {
	userPrompt := fmt.Sprintf(
		"User wants to find this API: %q\n\nHere are the HTTP requests from the capture to analyze:\n\n%s\n\nIdentify which request best matches the user's description and answer with the selection JSON.",
		description, compress.MarshalAll(candidates, s.candidateBudget),
	)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature:         openai.Float(s.temperature),
		MaxCompletionTokens: openai.Int(s.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "request_selection",
					Schema: selectionSchema,
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
