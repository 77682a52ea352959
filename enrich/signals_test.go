package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSignalGroups(t *testing.T) {
	groups := DefaultSignalGroups()

	if len(groups) == 0 {
		t.Fatal("expected built-in groups")
	}
	for i, g := range groups {
		if g.Label == "" || g.Signal == "" || len(g.Keywords) == 0 {
			t.Errorf("group %d is incomplete: %+v", i, g)
		}
	}
	if groups[0].Label != "fintech" {
		t.Errorf("first group = %q, want fintech first in evaluation order", groups[0].Label)
	}
}

func TestNewSignalTableDefaults(t *testing.T) {
	table := NewSignalTable(nil)
	if len(table.Groups()) != len(DefaultSignalGroups()) {
		t.Error("nil groups should fall back to the defaults")
	}
}

func TestSignalTableReplace(t *testing.T) {
	table := NewSignalTable(nil)
	custom := []SignalGroup{{Label: "biotech", Keywords: []string{"genome"}, Signal: "Biotech positioning."}}

	table.Replace(custom)
	groups := table.Groups()
	if len(groups) != 1 || groups[0].Label != "biotech" {
		t.Errorf("Groups() = %+v, want the replacement set", groups)
	}

	// Empty replacements are ignored so a bad reload never blanks the table.
	table.Replace(nil)
	if len(table.Groups()) != 1 {
		t.Error("empty Replace should be a no-op")
	}
}

func TestSignalTableGroupsReturnsCopy(t *testing.T) {
	table := NewSignalTable(nil)
	groups := table.Groups()
	groups[0].Label = "mutated"

	if table.Groups()[0].Label == "mutated" {
		t.Error("Groups() must return a copy, not the internal slice")
	}
}

func TestLoadSignalGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	content := `groups:
  - label: fintech
    keywords: [payment, banking]
    signal: Fintech language detected.
  - label: climate
    keywords: [carbon, emissions]
    signal: Climate tech positioning.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	groups, err := LoadSignalGroups(path)
	if err != nil {
		t.Fatalf("LoadSignalGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[1].Label != "climate" || groups[1].Signal != "Climate tech positioning." {
		t.Errorf("groups[1] = %+v", groups[1])
	}
}

func TestLoadSignalGroupsRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	content := `groups:
  - label: fintech
    signal: Missing keywords.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSignalGroups(path); err == nil {
		t.Error("expected error for group without keywords")
	}
}

func TestLoadSignalGroupsMissingFile(t *testing.T) {
	if _, err := LoadSignalGroups(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSignalTableWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yaml")

	initial := `groups:
  - label: fintech
    keywords: [payment]
    signal: Fintech language detected.
`
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	groups, err := LoadSignalGroups(path)
	if err != nil {
		t.Fatal(err)
	}
	table := NewSignalTable(groups)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := table.Watch(ctx, path, nil); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	updated := `groups:
  - label: robotics
    keywords: [actuator]
    signal: Robotics positioning.
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if g := table.Groups(); len(g) == 1 && g[0].Label == "robotics" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("table did not reload, groups = %+v", table.Groups())
}
