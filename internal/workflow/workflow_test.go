package workflow

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dh1101/llm-term/internal/cache"
	"github.com/dh1101/llm-term/internal/executor"
	"github.com/dh1101/llm-term/internal/gateway"
	"github.com/dh1101/llm-term/internal/history"
	"github.com/dh1101/llm-term/internal/shell"
	"github.com/dh1101/llm-term/internal/ui"
)

// MockGateway records requests and answers with GenerateFn
type MockGateway struct {
	GenerateFn func(context.Context, gateway.Request) (string, error)
	Requests   []gateway.Request
	// OnGenerate lets a test inspect state at the moment generation starts
	OnGenerate func()
}

func (m *MockGateway) Generate(ctx context.Context, req gateway.Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.OnGenerate != nil {
		m.OnGenerate()
	}
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return "echo mock", nil
}

func returns(cmd string) *MockGateway {
	return &MockGateway{GenerateFn: func(context.Context, gateway.Request) (string, error) {
		return cmd, nil
	}}
}

// MockRunner records commands instead of executing them
type MockRunner struct {
	RunFn    func(context.Context, string) (executor.Result, error)
	Commands []string
}

func (m *MockRunner) Run(ctx context.Context, command string) (executor.Result, error) {
	m.Commands = append(m.Commands, command)
	if m.RunFn != nil {
		return m.RunFn(ctx, command)
	}
	return executor.Result{Stdout: []byte("output of " + command + "\n")}, nil
}

type MockRecorder struct {
	Entries []history.Entry
	Err     error
}

func (m *MockRecorder) Record(_ context.Context, e history.Entry) error {
	m.Entries = append(m.Entries, e)
	return m.Err
}

type harness struct {
	engine   *Engine
	cache    *cache.Cache
	gateway  *MockGateway
	runner   *MockRunner
	recorder *MockRecorder
	out      *bytes.Buffer
	errOut   *bytes.Buffer
}

func newHarness(t *testing.T, seed map[string]string, gw *MockGateway, answers string) *harness {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.json")
	c := cache.New(path)
	for p, cmd := range seed {
		c.Insert(p, cmd)
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	h := &harness{
		cache:    c,
		gateway:  gw,
		runner:   &MockRunner{},
		recorder: &MockRecorder{},
		out:      &out,
		errOut:   &errOut,
	}
	h.engine = &Engine{
		Cache:     c,
		Gateway:   gw,
		Runner:    h.runner,
		Console:   ui.NewConsole(strings.NewReader(answers), &out, &errOut),
		Shell:     shell.BourneAgainShell,
		MaxTokens: 256,
		GOOS:      "linux",
		History:   h.recorder,
	}
	return h
}

// persisted reloads the cache file from disk
func (h *harness) persisted(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Load(h.cache.Path())
	if err != nil {
		t.Fatalf("reload cache: %v", err)
	}
	return c
}

func TestScenarioA_MissGenerateExecuteAndCache(t *testing.T) {
	h := newHarness(t, nil, returns("ls -la"), "y\n")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeExecuted {
		t.Errorf("outcome = %v, want executed", outcome)
	}

	if len(h.gateway.Requests) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(h.gateway.Requests))
	}
	req := h.gateway.Requests[0]
	if req.UserPrompt != "list files" || req.MaxTokens != 256 {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.SystemPrompt, "bash") || !strings.Contains(req.SystemPrompt, "linux") {
		t.Errorf("system prompt not shell/OS specific: %q", req.SystemPrompt)
	}

	if len(h.runner.Commands) != 1 || h.runner.Commands[0] != "ls -la" {
		t.Errorf("executed %v, want [ls -la]", h.runner.Commands)
	}
	if got, ok := h.persisted(t).Get("list files"); !ok || got != "ls -la" {
		t.Errorf("persisted cache = %q, %v; want ls -la", got, ok)
	}
	if !strings.Contains(h.out.String(), "output of ls -la") {
		t.Errorf("output not shown: %q", h.out.String())
	}

	if len(h.recorder.Entries) != 1 {
		t.Fatalf("history entries = %d", len(h.recorder.Entries))
	}
	if e := h.recorder.Entries[0]; e.Source != history.SourceGenerated || !e.Executed {
		t.Errorf("history entry = %+v", e)
	}
}

func TestScenarioB_HitExecutesWithoutGateway(t *testing.T) {
	h := newHarness(t, map[string]string{"list files": "ls -la"}, returns("should not be used"), "Y\n")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeExecuted {
		t.Errorf("outcome = %v, want executed", outcome)
	}
	if len(h.gateway.Requests) != 0 {
		t.Errorf("gateway called %d times on cache hit", len(h.gateway.Requests))
	}
	if len(h.runner.Commands) != 1 || h.runner.Commands[0] != "ls -la" {
		t.Errorf("executed %v, want [ls -la]", h.runner.Commands)
	}
	if !strings.Contains(h.out.String(), "This command exists in cache") {
		t.Errorf("cache notice not shown: %q", h.out.String())
	}
	if e := h.recorder.Entries[0]; e.Source != history.SourceCache || !e.Executed {
		t.Errorf("history entry = %+v", e)
	}
}

func TestScenarioC_RejectInvalidateRegenerate(t *testing.T) {
	gw := returns("ls -lah")
	// reject cached, invalidate, then decline the regenerated command
	h := newHarness(t, map[string]string{"list files": "ls -la"}, gw, "n\ny\nn\n")

	removedBeforeGenerate := false
	gw.OnGenerate = func() {
		c, err := cache.Load(h.cache.Path())
		if err != nil {
			t.Errorf("reload during generate: %v", err)
			return
		}
		_, present := c.Get("list files")
		removedBeforeGenerate = !present
	}

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %v, want cancelled", outcome)
	}
	if !removedBeforeGenerate {
		t.Error("cache entry was not removed and persisted before generation")
	}
	if len(gw.Requests) != 1 || gw.Requests[0].UserPrompt != "list files" {
		t.Errorf("gateway requests = %+v", gw.Requests)
	}
	if len(h.runner.Commands) != 0 {
		t.Errorf("executed %v after decline", h.runner.Commands)
	}
	if got, _ := h.persisted(t).Get("list files"); got != "ls -lah" {
		t.Errorf("persisted cache = %q, want regenerated command", got)
	}
}

func TestRejectCachedWithoutInvalidating(t *testing.T) {
	h := newHarness(t, map[string]string{"list files": "ls -la"}, returns("x"), "n\nn\n")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %v, want cancelled", outcome)
	}
	if len(h.gateway.Requests) != 0 || len(h.runner.Commands) != 0 {
		t.Error("declining both questions should neither generate nor execute")
	}
	if got, _ := h.persisted(t).Get("list files"); got != "ls -la" {
		t.Errorf("cache mutated: %q", got)
	}
	if !strings.Contains(h.out.String(), "Command execution cancelled.") {
		t.Errorf("cancel message missing: %q", h.out.String())
	}
}

func TestScenarioD_DisableCacheOverwrites(t *testing.T) {
	h := newHarness(t, map[string]string{"list files": "ls"}, returns("ls -la"), "n\n")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{DisableCache: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %v, want cancelled", outcome)
	}
	if len(h.gateway.Requests) != 1 {
		t.Errorf("gateway called %d times, want 1 with cache disabled", len(h.gateway.Requests))
	}
	if strings.Contains(h.out.String(), "exists in cache") {
		t.Error("cache lookup happened with cache disabled")
	}

	p := h.persisted(t)
	if p.Len() != 1 {
		t.Errorf("persisted entries = %d, want 1", p.Len())
	}
	if got, _ := p.Get("list files"); got != "ls -la" {
		t.Errorf("persisted = %q, want overwritten ls -la", got)
	}
}

func TestDeclinedGeneratedCommandIsStillCached(t *testing.T) {
	h := newHarness(t, nil, returns("df -h"), "no\n")

	outcome, err := h.engine.Run(context.Background(), "disk usage", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %v", outcome)
	}
	if len(h.runner.Commands) != 0 {
		t.Errorf("executed %v", h.runner.Commands)
	}
	if got, _ := h.persisted(t).Get("disk usage"); got != "df -h" {
		t.Errorf("persisted = %q, want df -h", got)
	}
	if e := h.recorder.Entries[0]; e.Executed {
		t.Errorf("history entry = %+v, want not executed", e)
	}
}

func TestEmptyGenerationNeverCachedOrExecuted(t *testing.T) {
	h := newHarness(t, nil, returns(""), "y\ny\n")

	outcome, err := h.engine.Run(context.Background(), "something vague", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeNoCommand {
		t.Errorf("outcome = %v, want no-command", outcome)
	}
	if h.persisted(t).Len() != 0 {
		t.Error("empty command was cached")
	}
	if len(h.runner.Commands) != 0 {
		t.Error("empty command was executed")
	}
	if !strings.Contains(h.out.String(), "No command could be generated.") {
		t.Errorf("output = %q", h.out.String())
	}
	if len(h.recorder.Entries) != 0 {
		t.Errorf("history recorded %d entries", len(h.recorder.Entries))
	}
}

func TestGatewayFailureIsReported(t *testing.T) {
	gw := &MockGateway{GenerateFn: func(context.Context, gateway.Request) (string, error) {
		return "", errors.New("401 unauthorized")
	}}
	h := newHarness(t, nil, gw, "y\n")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v, want failure reported not returned", err)
	}
	if outcome != OutcomeGatewayFailed {
		t.Errorf("outcome = %v", outcome)
	}
	if !strings.Contains(h.errOut.String(), "Error: 401 unauthorized") {
		t.Errorf("stderr = %q", h.errOut.String())
	}
	if h.persisted(t).Len() != 0 || len(h.runner.Commands) != 0 {
		t.Error("failed generation must not cache or execute")
	}
}

func TestSpawnFailureIsReported(t *testing.T) {
	h := newHarness(t, nil, returns("ls"), "y\n")
	h.runner.RunFn = func(context.Context, string) (executor.Result, error) {
		return executor.Result{}, errors.New("exec: \"bash\": executable file not found")
	}

	outcome, err := h.engine.Run(context.Background(), "list", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeSpawnFailed {
		t.Errorf("outcome = %v", outcome)
	}
	if !strings.Contains(h.errOut.String(), "Failed to execute command") {
		t.Errorf("stderr = %q", h.errOut.String())
	}
	if got, _ := h.persisted(t).Get("list"); got != "ls" {
		t.Error("generated command should be cached even when execution fails")
	}
}

func TestNonZeroExitShowsOutput(t *testing.T) {
	h := newHarness(t, map[string]string{"fail": "false"}, returns("x"), "y\n")
	h.runner.RunFn = func(context.Context, string) (executor.Result, error) {
		return executor.Result{Stderr: []byte("oops\n"), ExitCode: 2}, nil
	}

	outcome, err := h.engine.Run(context.Background(), "fail", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeExecuted {
		t.Errorf("outcome = %v", outcome)
	}
	if !strings.Contains(h.errOut.String(), "oops") {
		t.Errorf("stderr = %q", h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "status 2") {
		t.Errorf("exit status not shown: %q", h.out.String())
	}
	if e := h.recorder.Entries[0]; e.ExitCode != 2 {
		t.Errorf("history exit code = %d", e.ExitCode)
	}
}

func TestEndOfInputMeansNo(t *testing.T) {
	h := newHarness(t, map[string]string{"list files": "ls -la"}, returns("x"), "")

	outcome, err := h.engine.Run(context.Background(), "list files", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCancelled {
		t.Errorf("outcome = %v, want cancelled", outcome)
	}
	if h.persisted(t).Len() != 1 {
		t.Error("cache should be untouched")
	}
}

func TestPromptIsNotNormalized(t *testing.T) {
	h := newHarness(t, map[string]string{"list files": "ls -la"}, returns("ls"), "n\n")

	if _, err := h.engine.Run(context.Background(), "List Files", Options{}); err != nil {
		t.Fatal(err)
	}
	if len(h.gateway.Requests) != 1 {
		t.Error("differently-cased prompt should miss the cache")
	}
	if h.persisted(t).Len() != 2 {
		t.Errorf("entries = %d, want 2", h.persisted(t).Len())
	}
}

func TestCopyToClipboard(t *testing.T) {
	h := newHarness(t, nil, returns("ls -la"), "n\n")
	var copied []string
	h.engine.Copy = func(s string) error {
		copied = append(copied, s)
		return nil
	}

	if _, err := h.engine.Run(context.Background(), "list files", Options{Copy: true}); err != nil {
		t.Fatal(err)
	}
	if len(copied) != 1 || copied[0] != "ls -la" {
		t.Errorf("copied = %v", copied)
	}
}

func TestHistoryFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, nil, returns("ls"), "y\n")
	h.recorder.Err = errors.New("disk full")

	outcome, err := h.engine.Run(context.Background(), "list", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeExecuted {
		t.Errorf("outcome = %v", outcome)
	}
}

func TestCacheSaveFailureIsFatal(t *testing.T) {
	h := newHarness(t, nil, returns("ls"), "n\n")
	// a directory where the cache file should be makes WriteFile fail
	dir := t.TempDir()
	h.engine.Cache = cache.New(dir)

	if _, err := h.engine.Run(context.Background(), "list", Options{}); err == nil {
		t.Fatal("Run() expected error when the cache cannot be saved")
	}
}
