package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	CacheFileName   = "cache.json"
	HistoryFileName = "history.db"
	EnvFileName     = ".env"

	// Environment overrides for the default file locations
	ConfigPathEnv  = "LLM_TERM_CONFIG"
	CachePathEnv   = "LLM_TERM_CACHE"
	HistoryPathEnv = "LLM_TERM_HISTORY"
)

// Paths holds every file location the tool reads or writes.
// They are resolved once at startup and passed to the loaders explicitly.
type Paths struct {
	Config  string
	Cache   string
	History string
	Env     string
}

// GetExecutableDir returns the directory containing the running binary
func GetExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// DefaultPaths places every file next to the executable, honouring the
// LLM_TERM_* environment overrides
func DefaultPaths() (Paths, error) {
	dir, err := GetExecutableDir()
	if err != nil {
		return Paths{}, err
	}
	return PathsIn(dir, os.Getenv), nil
}

// PathsIn resolves the file locations relative to dir
func PathsIn(dir string, getenv func(string) string) Paths {
	p := Paths{
		Config:  filepath.Join(dir, ConfigFileName),
		Cache:   filepath.Join(dir, CacheFileName),
		History: filepath.Join(dir, HistoryFileName),
	}
	if v := getenv(ConfigPathEnv); v != "" {
		p.Config = v
	}
	if v := getenv(CachePathEnv); v != "" {
		p.Cache = v
	}
	if v := getenv(HistoryPathEnv); v != "" {
		p.History = v
	}
	p.Env = filepath.Join(filepath.Dir(p.Config), EnvFileName)
	return p
}

// LoadEnv loads KEY=value pairs from the .env file at path into the process
// environment. Variables that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
