package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"

	"github.com/dh1101/llm-term/internal/config"
)

// modelChoices is the order models are offered in during setup
var modelChoices = []struct {
	label string
	kind  config.ModelKind
}{
	{label: "gpt-4o-mini", kind: config.ModelGPT4oMini},
	{label: "gpt-4o", kind: config.ModelGPT4o},
	{label: "ollama (" + config.DefaultOllamaModel + ")", kind: config.ModelOllama},
}

// DefaultMaxTokens is suggested by the interactive setup
const DefaultMaxTokens = 512

// RunSetup asks the user for a model and token budget.
// A terminal gets survey prompts; anything else gets numbered line prompts.
func RunSetup(c *Console) (*config.Config, error) {
	if c.IsTerminal() {
		return setupWithSurvey()
	}
	return setupWithLines(c)
}

func setupWithSurvey() (*config.Config, error) {
	options := make([]string, len(modelChoices))
	for i, m := range modelChoices {
		options[i] = m.label
	}

	var idx int
	prompt := &survey.Select{
		Message: "Select model:",
		Options: options,
		Default: options[0],
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return nil, err
	}
	kind := modelChoices[idx].kind

	ollamaModel := ""
	if kind == config.ModelOllama {
		namePrompt := &survey.Input{
			Message: "Ollama model name:",
			Default: config.DefaultOllamaModel,
		}
		if err := survey.AskOne(namePrompt, &ollamaModel, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
	}

	var tokens string
	tokensPrompt := &survey.Input{
		Message: fmt.Sprintf("Enter max tokens (%d-%d):", config.MinMaxTokens, config.MaxMaxTokens),
		Default: strconv.Itoa(DefaultMaxTokens),
	}
	if err := survey.AskOne(tokensPrompt, &tokens, survey.WithValidator(validateMaxTokens)); err != nil {
		return nil, err
	}
	maxTokens, _ := ParseMaxTokens(tokens)

	if kind == config.ModelOllama {
		return config.NewLocal(strings.TrimSpace(ollamaModel), maxTokens), nil
	}
	return config.NewHosted(kind, maxTokens), nil
}

func setupWithLines(c *Console) (*config.Config, error) {
	var menu strings.Builder
	menu.WriteString("Select model:")
	for i, m := range modelChoices {
		fmt.Fprintf(&menu, "\n %d for %s", i+1, m.label)
	}

	var kind config.ModelKind
	for kind == "" {
		c.ShowInfo(menu.String())
		line, err := c.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read model choice: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(modelChoices) {
			c.ShowError("Invalid choice. Please try again.")
			continue
		}
		kind = modelChoices[n-1].kind
	}

	var maxTokens int
	for maxTokens == 0 {
		color.New(color.FgCyan).Fprint(c.out, "Enter max tokens (1-4096): ")
		line, err := c.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read max tokens: %w", err)
		}
		n, err := ParseMaxTokens(line)
		if err != nil {
			c.ShowError("Invalid input. Please enter a number between 1 and 4096.")
			continue
		}
		maxTokens = n
	}

	if kind == config.ModelOllama {
		return config.NewLocal(config.DefaultOllamaModel, maxTokens), nil
	}
	return config.NewHosted(kind, maxTokens), nil
}

// ParseMaxTokens parses and range-checks a token budget answer
func ParseMaxTokens(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < config.MinMaxTokens || n > config.MaxMaxTokens {
		return 0, config.ErrInvalidMaxTokens
	}
	return n, nil
}

func validateMaxTokens(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return errors.New("expected a number")
	}
	_, err := ParseMaxTokens(s)
	return err
}
