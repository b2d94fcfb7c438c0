// Package cache persists the mapping from prompt text to generated command.
//
// The whole mapping lives in memory for the duration of a run and is written back
// in full as a flat JSON object on every Save. Keys are matched exactly: no case
// folding or whitespace normalization.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrCorrupt is returned by Load when an existing cache file cannot be parsed
var ErrCorrupt = errors.New("cache file is corrupt")

// Entry is a single prompt -> command pair
type Entry struct {
	Prompt  string
	Command string
}

// Cache is the in-memory prompt cache bound to a file
type Cache struct {
	path    string
	entries map[string]string
}

// New returns an empty cache that will be saved to path
func New(path string) *Cache {
	return &Cache{path: path, entries: map[string]string{}}
}

// Load reads the cache file at path.
// A missing or empty file yields an empty cache; a file that is not a flat
// JSON object of strings returns an error wrapping ErrCorrupt.
func Load(path string) (*Cache, error) {
	c := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if c.entries == nil {
		// the file contained a JSON null
		c.entries = map[string]string{}
	}

	return c, nil
}

// Path returns the file the cache is saved to
func (c *Cache) Path() string {
	return c.path
}

// Get looks up prompt exactly
func (c *Cache) Get(prompt string) (string, bool) {
	cmd, ok := c.entries[prompt]
	return cmd, ok
}

// Insert adds or overwrites the command for prompt
func (c *Cache) Insert(prompt, command string) {
	c.entries[prompt] = command
}

// Remove deletes prompt and reports whether it was present
func (c *Cache) Remove(prompt string) bool {
	if _, ok := c.entries[prompt]; !ok {
		return false
	}
	delete(c.entries, prompt)
	return true
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.entries = map[string]string{}
}

// Len returns the number of cached prompts
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns all pairs sorted by prompt
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for p, cmd := range c.entries {
		out = append(out, Entry{Prompt: p, Command: cmd})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prompt < out[j].Prompt })
	return out
}

// Save writes the full mapping to disk, replacing previous contents
func (c *Cache) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}
