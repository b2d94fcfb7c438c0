package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/dh1101/llm-term/internal/logging"
)

// OpenAI generates commands with the hosted chat completions API
type OpenAI struct {
	client openai.Client
	model  string
	log    *logging.Logger
}

// NewOpenAI creates a hosted gateway. baseURL defaults to the public API.
func NewOpenAI(apiKey, baseURL, model string, log *logging.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// failures surface to the user immediately; they can re-run the tool
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log,
	}, nil
}

// Generate implements Gateway
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	requestID := uuid.New().String()
	o.log.Debugf("OpenAI", "sending chat completion (model=%s, max_tokens=%d, request_id=%s)", o.model, req.MaxTokens, requestID)

	resp, err := o.client.Chat.Completions.New(ctx, params, option.WithHeader("X-Request-Id", requestID))
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		o.log.Debugf("OpenAI", "response contained no choices")
		return "", nil
	}

	content := resp.Choices[0].Message.Content
	o.log.Debugf("OpenAI", "raw response: %q", content)

	return CleanCommand(content), nil
}
