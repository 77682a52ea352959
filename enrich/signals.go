package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// SignalGroup maps literal keyword matches in the page corpus to one keyword
// label and one signal sentence. Groups are evaluated in order.
type SignalGroup struct {
	// Label is the keyword contributed when the group matches.
	Label string `yaml:"label"`
	// Keywords are matched as whole words against the lowercased corpus.
	Keywords []string `yaml:"keywords"`
	// Signal is the sentence surfaced to aid manual diligence.
	Signal string `yaml:"signal"`
}

// signalTableFile is the YAML shape of an external signal table.
type signalTableFile struct {
	Groups []SignalGroup `yaml:"groups"`
}

// DefaultSignalGroups returns the built-in signal table. The membership is a
// hand-picked heuristic, kept small on purpose; deployments extend it via a
// YAML file.
func DefaultSignalGroups() []SignalGroup {
	return []SignalGroup{
		{
			Label:    "fintech",
			Keywords: []string{"payment", "payments", "fintech", "banking", "lending", "invoicing"},
			Signal:   "Fintech/payments language detected in website copy.",
		},
		{
			Label:    "developer",
			Keywords: []string{"api", "apis", "sdk", "developer", "developers"},
			Signal:   "Developer-facing product with API or SDK offering.",
		},
		{
			Label:    "ai",
			Keywords: []string{"ai", "ml", "machine learning", "artificial intelligence", "llm"},
			Signal:   "AI-driven product positioning.",
		},
		{
			Label:    "saas",
			Keywords: []string{"saas", "subscription", "pricing"},
			Signal:   "SaaS/subscription business model indicated.",
		},
		{
			Label:    "productivity",
			Keywords: []string{"productivity", "collaboration", "workflow", "teams"},
			Signal:   "Productivity or collaboration use case emphasized.",
		},
		{
			Label:    "platform",
			Keywords: []string{"platform", "marketplace", "ecosystem"},
			Signal:   "Positions itself as a platform.",
		},
	}
}

// NoMatchGroup is emitted when no configured group matches the corpus.
var NoMatchGroup = SignalGroup{
	Label:  "general",
	Signal: "Limited explicit signals found in website content.",
}

// SignalTable is an ordered keyword-group lookup table. It is safe for
// concurrent use; Replace swaps the group set atomically so a file reload
// never tears a request's view.
type SignalTable struct {
	mu     sync.RWMutex
	groups []SignalGroup
}

// NewSignalTable creates a table from the given groups. Nil or empty groups
// fall back to the built-in defaults.
func NewSignalTable(groups []SignalGroup) *SignalTable {
	if len(groups) == 0 {
		groups = DefaultSignalGroups()
	}
	return &SignalTable{groups: groups}
}

// Groups returns a copy of the current group set, in evaluation order.
func (t *SignalTable) Groups() []SignalGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]SignalGroup, len(t.groups))
	copy(out, t.groups)
	return out
}

// Replace swaps the group set.
func (t *SignalTable) Replace(groups []SignalGroup) {
	if len(groups) == 0 {
		return
	}
	t.mu.Lock()
	t.groups = groups
	t.mu.Unlock()
}

// LoadSignalGroups reads a YAML signal table file.
func LoadSignalGroups(path string) ([]SignalGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signal table: %w", err)
	}

	var file signalTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse signal table: %w", err)
	}

	for i, g := range file.Groups {
		if g.Label == "" || g.Signal == "" || len(g.Keywords) == 0 {
			return nil, fmt.Errorf("signal table group %d is incomplete", i)
		}
	}

	return file.Groups, nil
}

// Watch reloads the table whenever the file at path changes. The parent
// directory is watched so editor rename-and-replace saves are seen. Watch
// returns once the watcher is installed; reloads happen in the background
// until ctx is done.
func (t *SignalTable) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				groups, err := LoadSignalGroups(target)
				if err != nil {
					logger.Warn("Signal table reload failed", "path", target, "error", err)
					continue
				}
				t.Replace(groups)
				logger.Info("Signal table reloaded", "path", target, "groups", len(groups))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Signal table watcher error", "error", err)
			}
		}
	}()

	return nil
}
