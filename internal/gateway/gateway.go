package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dh1101/llm-term/internal/config"
	"github.com/dh1101/llm-term/internal/logging"
	"github.com/dh1101/llm-term/internal/shell"
)

// Temperature is the fixed sampling temperature for hosted completions
const Temperature = 0.5

// APIKeyEnv holds the OpenAI API key
const APIKeyEnv = "OPENAI_API_KEY"

// ErrMissingAPIKey is returned when a hosted model is configured without a key
var ErrMissingAPIKey = errors.New(APIKeyEnv + " environment variable not set")

// Request is a single generation request
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Gateway turns a request into a shell command.
// An empty command with a nil error means the model produced nothing usable.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New creates the gateway for the configured model selection
func New(cfg *config.Config, getenv func(string) string, log *logging.Logger) (Gateway, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	sel := cfg.Selection()
	switch sel.Kind {
	case config.ModelOllama:
		log.Debugf("Gateway", "using ollama model %s at %s", sel.Name, cfg.OllamaEndpoint())
		return NewOllama(cfg.OllamaEndpoint(), sel.Name, log), nil
	case config.ModelGPT4o, config.ModelGPT4oMini:
		log.Debugf("Gateway", "using openai model %s at %s", sel.Name, cfg.OpenAIEndpoint())
		return NewOpenAI(getenv(APIKeyEnv), cfg.OpenAIEndpoint(), sel.Name, log)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownModel, sel.Kind)
	}
}

// SystemPrompt builds the instruction sent ahead of the user's request
func SystemPrompt(sh shell.Shell, goos string) string {
	return fmt.Sprintf(`You are a professional IT automation specialist who translates user requests into precise CLI commands. Respond ONLY with a single valid %s command compatible with %s operating system. Output must be the raw command text without any formatting, backticks, code blocks, or explanations.

Critical Rules:
1. **Never use** markdown, code fences (`+"```"+`), quotes, or any syntax
2. **Never add** comments, notes, or multiple commands
3. **Always verify** command validity before responding
4. **Only output** one executable command per response
5. **If uncertain**, return empty string

Example GOOD output: ls -la
Example BAD output: `+"```"+`sh\nls -la\n`+"```"+`

The command must run as-is in the user's current directory. Prioritize safety and accuracy above all.`, sh.Description(), goos)
}

// CleanCommand strips the formatting models add despite being told not to:
// a surrounding code fence, a single pair of wrapping backticks, a leading
// "$ " and outer whitespace. Everything else, including inner backticks and
// line breaks, is part of the command and kept as is.
func CleanCommand(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		s = unfence(s)
	} else if isWrappedInBackticks(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "$ "))
	// "return empty string" is sometimes taken literally
	if s == `""` || s == "''" {
		return ""
	}
	return s
}

// unfence returns the body of a fenced block, dropping the opening fence line
// (with its language tag) and everything from the closing fence on
func unfence(s string) string {
	lines := strings.Split(s, "\n")[1:]
	for i, line := range lines {
		if strings.TrimSpace(line) == "```" {
			lines = lines[:i]
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// isWrappedInBackticks reports whether s is `cmd` with no backtick inside
func isWrappedInBackticks(s string) bool {
	return len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' &&
		!strings.Contains(s[1:len(s)-1], "`")
}
