package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dh1101/llm-term/internal/cache"
	"github.com/dh1101/llm-term/internal/config"
	"github.com/dh1101/llm-term/internal/executor"
	"github.com/dh1101/llm-term/internal/gateway"
	"github.com/dh1101/llm-term/internal/history"
	"github.com/dh1101/llm-term/internal/logging"
	"github.com/dh1101/llm-term/internal/shell"
	"github.com/dh1101/llm-term/internal/ui"
	"github.com/dh1101/llm-term/internal/workflow"
	"github.com/fatih/color"

	"github.com/spf13/cobra"
)

var (
	// version is set at build time
	version = "dev"

	// CLI flags
	runConfig    bool
	disableCache bool
	debug        bool
	copyCommand  bool
	configFile   string
	cacheFile    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const rootLong = `llm-term asks an LLM for a shell command matching your request, shows it,
and runs it after you confirm.

A prompt whose first word is a subcommand name (cache, history, help) runs that
subcommand instead. Put -- before such a prompt: llm-term -- history of my shell`

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "llm-term [prompt]",
		Short:         "Generate shell commands from natural language",
		Long:          rootLong,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runPrompt,
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "Path to the configuration file (default: next to the executable)")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "Path to the prompt cache (default: next to the executable)")

	rootCmd.Flags().BoolVarP(&runConfig, "config", "c", false, "Run the configuration setup")
	rootCmd.Flags().BoolVar(&disableCache, "disable-cache", false, "Skip the cache lookup (the new command is still cached)")
	rootCmd.Flags().BoolVar(&copyCommand, "copy", false, "Copy the shown command to the clipboard")

	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// resolvePaths applies the command-line overrides on top of the default locations
func resolvePaths(log *logging.Logger) (config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return config.Paths{}, err
	}
	if configFile != "" {
		paths.Config = configFile
		paths.Env = filepath.Join(filepath.Dir(configFile), config.EnvFileName)
	}
	if cacheFile != "" {
		paths.Cache = cacheFile
	}

	log.Debugf("Config", "config=%s cache=%s history=%s", paths.Config, paths.Cache, paths.History)

	if err := config.LoadEnv(paths.Env); err != nil {
		return config.Paths{}, err
	}
	return paths, nil
}

// runOptions are the root command's switches
type runOptions struct {
	Configure    bool
	DisableCache bool
	Copy         bool
}

// app holds what one invocation of the root command works with
type app struct {
	console *ui.Console
	log     *logging.Logger
	paths   config.Paths
	shell   shell.Shell

	newGateway func(cfg *config.Config) (gateway.Gateway, error)
	newRunner  func(sh shell.Shell) workflow.Runner
	copy       func(string) error
}

func runPrompt(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, debug)

	paths, err := resolvePaths(log)
	if err != nil {
		return err
	}

	a := &app{
		console: ui.NewStdConsole(),
		log:     log,
		paths:   paths,
		shell:   shell.Detect(),
		newGateway: func(cfg *config.Config) (gateway.Gateway, error) {
			return gateway.New(cfg, os.Getenv, log)
		},
		newRunner: func(sh shell.Shell) workflow.Runner {
			return executor.New(sh, log)
		},
		copy: ui.CopyToClipboard,
	}

	return a.run(context.Background(), args, runOptions{
		Configure:    runConfig,
		DisableCache: disableCache,
		Copy:         copyCommand,
	})
}

func (a *app) run(ctx context.Context, args []string, opts runOptions) error {
	if opts.Configure {
		if _, err := setup(a.console, a.paths.Config); err != nil {
			return err
		}
		a.console.ShowSuccess("Configuration saved successfully.")
		return nil
	}

	prompt := strings.Join(args, " ")
	if strings.TrimSpace(prompt) == "" {
		a.console.ShowWarning("Please provide a prompt or use --config to set up the configuration.")
		return nil
	}
	a.log.Debugf("Main", "starting with prompt: %q", prompt)

	cfg, err := config.Load(a.paths.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		a.log.Debugf("Config", "no configuration at %s, running setup", a.paths.Config)
		if cfg, err = setup(a.console, a.paths.Config); err != nil {
			return err
		}
	}
	a.log.Debugf("Config", "model=%s max_tokens=%d", cfg.ModelName(), cfg.MaxTokens)

	promptCache, err := cache.Load(a.paths.Cache)
	if err != nil {
		return err
	}
	a.log.Debugf("Cache", "loaded %d entries from %s", promptCache.Len(), a.paths.Cache)
	a.log.Debugf("Shell", "detected %s", a.shell)

	gw, err := a.newGateway(cfg)
	if err != nil {
		return err
	}

	engine := &workflow.Engine{
		Cache:     promptCache,
		Gateway:   gw,
		Runner:    a.newRunner(a.shell),
		Console:   a.console,
		Shell:     a.shell,
		MaxTokens: cfg.MaxTokens,
		Copy:      a.copy,
		Log:       a.log,
	}

	hist, err := history.Open(a.paths.History)
	if err != nil {
		a.log.Warnf("History", "history disabled: %v", err)
	} else {
		defer hist.Close()
		engine.History = hist
	}

	outcome, err := engine.Run(ctx, prompt, workflow.Options{
		DisableCache: opts.DisableCache,
		Copy:         opts.Copy,
	})
	if err != nil {
		return err
	}
	a.log.Debugf("Main", "finished: %s", outcome)
	return nil
}

// setup runs the interactive configuration and saves the result to path
func setup(console *ui.Console, path string) (*config.Config, error) {
	cfg, err := ui.RunSetup(console)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	if err := config.Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}
	return cfg, nil
}
