package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dh1101/llm-term/internal/logging"
)

// Ollama generates commands with a local Ollama server's /api/chat endpoint
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	log     *logging.Logger
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// NewOllama creates a local gateway. The HTTP client has no timeout: local
// models can take a long time to load on first use.
func NewOllama(baseURL, model string, log *logging.Logger) *Ollama {
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		log:     log,
	}
}

// Generate implements Gateway. The system and user prompts are sent as one
// user message; a response without message.content means no command.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	body := ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaMessage{
			{Role: "user", Content: req.SystemPrompt + req.UserPrompt},
		},
		Stream: false,
	}
	if req.MaxTokens > 0 {
		body.Options = map[string]interface{}{"num_predict": req.MaxTokens}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	o.log.Debugf("Ollama", "POST %s/api/chat (model=%s)", o.baseURL, o.model)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}
	o.log.Debugf("Ollama", "status %d, body %s", resp.StatusCode, raw)

	var result ollamaChatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, result.Error)
		}
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	if result.Message == nil || result.Message.Content == nil {
		return "", nil
	}

	return CleanCommand(*result.Message.Content), nil
}
