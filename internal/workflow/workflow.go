// Package workflow drives one invocation: cache lookup, confirmation,
// invalidation, generation, write-through caching and execution.
//
// Every step is sequential. The only state that outlives the run is the cache
// file, which is saved immediately after each mutation.
package workflow

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/dh1101/llm-term/internal/cache"
	"github.com/dh1101/llm-term/internal/executor"
	"github.com/dh1101/llm-term/internal/gateway"
	"github.com/dh1101/llm-term/internal/history"
	"github.com/dh1101/llm-term/internal/logging"
	"github.com/dh1101/llm-term/internal/shell"
)

// Outcome is the terminal state a run ended in
type Outcome int

const (
	// OutcomeExecuted means a command was run (even if it exited non-zero)
	OutcomeExecuted Outcome = iota
	// OutcomeCancelled means the user declined to run the command shown
	OutcomeCancelled
	// OutcomeNoCommand means the gateway produced an empty command
	OutcomeNoCommand
	// OutcomeGatewayFailed means the gateway returned an error
	OutcomeGatewayFailed
	// OutcomeSpawnFailed means the shell process could not be started
	OutcomeSpawnFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoCommand:
		return "no-command"
	case OutcomeGatewayFailed:
		return "gateway-failed"
	case OutcomeSpawnFailed:
		return "spawn-failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Console is what the engine needs from the terminal
type Console interface {
	AskYesNo(question string) (bool, error)
	ShowSuccess(message string)
	ShowError(message string)
	ShowWarning(message string)
	ShowCommand(command string)
	StartSpinner(message string) func()
	Out() io.Writer
	Err() io.Writer
}

// Runner executes a command string
type Runner interface {
	Run(ctx context.Context, command string) (executor.Result, error)
}

// Recorder stores what happened to each command shown
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options are the per-invocation switches
type Options struct {
	// DisableCache skips the lookup; the generated command is still cached
	DisableCache bool
	// Copy puts every command shown on the clipboard
	Copy bool
}

// Engine holds the collaborators for one run
type Engine struct {
	Cache     *cache.Cache
	Gateway   gateway.Gateway
	Runner    Runner
	Console   Console
	Shell     shell.Shell
	MaxTokens int

	// Optional
	GOOS    string
	History Recorder
	Copy    func(string) error
	Log     *logging.Logger
}

// Run processes prompt and returns the terminal state. The error is non-nil
// only for fatal failures: the cache could not be persisted or input could not be read.
func (e *Engine) Run(ctx context.Context, prompt string, opts Options) (Outcome, error) {
	if opts.DisableCache {
		e.Log.Debugf("Workflow", "cache disabled, generating")
		return e.generate(ctx, prompt, opts)
	}

	cached, ok := e.Cache.Get(prompt)
	if !ok {
		e.Log.Debugf("Workflow", "cache miss for %q", prompt)
		return e.generate(ctx, prompt, opts)
	}

	e.Log.Debugf("Workflow", "cache hit for %q: %q", prompt, cached)
	return e.confirmCached(ctx, prompt, cached, opts)
}

func (e *Engine) confirmCached(ctx context.Context, prompt, command string, opts Options) (Outcome, error) {
	e.Console.ShowWarning("This command exists in cache")
	e.show(command, opts)

	run, err := e.Console.AskYesNo("Do you want to execute this command? (y/n)")
	if err != nil {
		return 0, err
	}
	if run {
		outcome, exitCode := e.execute(ctx, command)
		e.record(ctx, prompt, command, history.SourceCache, outcome == OutcomeExecuted, exitCode)
		return outcome, nil
	}

	invalidate, err := e.Console.AskYesNo("Do you want to invalidate the cache? (y/n)")
	if err != nil {
		return 0, err
	}
	if !invalidate {
		e.Console.ShowWarning("Command execution cancelled.")
		e.record(ctx, prompt, command, history.SourceCache, false, 0)
		return OutcomeCancelled, nil
	}

	e.Cache.Remove(prompt)
	if err := e.Cache.Save(); err != nil {
		return 0, fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	e.Log.Debugf("Workflow", "invalidated cache entry for %q", prompt)

	return e.generate(ctx, prompt, opts)
}

func (e *Engine) generate(ctx context.Context, prompt string, opts Options) (Outcome, error) {
	goos := e.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	req := gateway.Request{
		SystemPrompt: gateway.SystemPrompt(e.Shell, goos),
		UserPrompt:   prompt,
		MaxTokens:    e.MaxTokens,
	}

	stop := e.Console.StartSpinner("Generating command...")
	command, err := e.Gateway.Generate(ctx, req)
	stop()

	if err != nil {
		e.Console.ShowError(fmt.Sprintf("Error: %v", err))
		return OutcomeGatewayFailed, nil
	}
	if command == "" {
		e.Console.ShowWarning("No command could be generated.")
		return OutcomeNoCommand, nil
	}

	e.Log.Debugf("Workflow", "generated command: %q", command)
	return e.confirmGenerated(ctx, prompt, command, opts)
}

func (e *Engine) confirmGenerated(ctx context.Context, prompt, command string, opts Options) (Outcome, error) {
	e.show(command, opts)

	run, err := e.Console.AskYesNo("Do you want to execute this command? (y/n)")
	if err != nil {
		return 0, err
	}

	// cached whether or not the user runs it
	e.Cache.Insert(prompt, command)
	if err := e.Cache.Save(); err != nil {
		return 0, fmt.Errorf("failed to save cache: %w", err)
	}

	if !run {
		e.Console.ShowWarning("Command execution cancelled.")
		e.record(ctx, prompt, command, history.SourceGenerated, false, 0)
		return OutcomeCancelled, nil
	}

	outcome, exitCode := e.execute(ctx, command)
	e.record(ctx, prompt, command, history.SourceGenerated, outcome == OutcomeExecuted, exitCode)
	return outcome, nil
}

func (e *Engine) show(command string, opts Options) {
	e.Console.ShowCommand(command)
	if !opts.Copy || e.Copy == nil {
		return
	}
	if err := e.Copy(command); err != nil {
		e.Console.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
		return
	}
	e.Console.ShowSuccess("Command copied to clipboard!")
}

func (e *Engine) execute(ctx context.Context, command string) (Outcome, int) {
	res, err := e.Runner.Run(ctx, command)
	if err != nil {
		e.Console.ShowError(fmt.Sprintf("Failed to execute command: %v", err))
		return OutcomeSpawnFailed, -1
	}

	e.Console.ShowSuccess("Command output:")
	_, _ = e.Console.Out().Write(res.Stdout)
	_, _ = e.Console.Err().Write(res.Stderr)

	if res.ExitCode != 0 {
		e.Console.ShowWarning(fmt.Sprintf("Command exited with status %d", res.ExitCode))
	}
	return OutcomeExecuted, res.ExitCode
}

func (e *Engine) record(ctx context.Context, prompt, command string, source history.Source, executed bool, exitCode int) {
	if e.History == nil {
		return
	}
	entry := history.NewEntry(prompt, command, source, executed, exitCode)
	if err := e.History.Record(ctx, entry); err != nil {
		e.Log.Warnf("History", "failed to save history: %v", err)
	}
}
