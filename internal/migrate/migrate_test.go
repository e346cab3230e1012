package migrate

import (
	"errors"
	"strings"
	"testing"
)

func suffix(s string) func([]byte) ([]byte, error) {
	return func(d []byte) ([]byte, error) { return append(d, s...), nil }
}

// ///////////////////////////////////////////////
// Upgrade
// ///////////////////////////////////////////////

func TestUpgradeSkipsAppliedSteps(t *testing.T) {
	c := &Chain{Latest: 1, Steps: []Step{{Version: 1, Description: "applied", Upgrade: func([]byte) ([]byte, error) {
		t.Fatal("step at the file's version ran")
		return nil, nil
	}}}}
	out, version, err := c.Upgrade([]byte("data"), 1)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if version != 1 || string(out) != "data" {
		t.Fatalf("got (%q, %d), want (data, 1)", out, version)
	}
}

func TestUpgradeOrdersSteps(t *testing.T) {
	c := &Chain{Latest: 3, Steps: []Step{
		{Version: 3, Description: "third", Upgrade: suffix("-v3")},
		{Version: 2, Description: "second", Upgrade: suffix("-v2")},
	}}
	out, version, err := c.Upgrade([]byte("data"), 1)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if version != 3 {
		t.Fatalf("version = %d, want 3", version)
	}
	if string(out) != "data-v2-v3" {
		t.Fatalf("out = %q, want data-v2-v3", out)
	}
	if c.Steps[0].Version != 3 {
		t.Error("Upgrade reordered the chain's own steps")
	}
}

func TestUpgradeStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	c := &Chain{Latest: 3, Steps: []Step{
		{Version: 2, Description: "ok", Upgrade: suffix("-v2")},
		{Version: 3, Description: "broken", Upgrade: func([]byte) ([]byte, error) { return nil, boom }},
	}}
	_, version, err := c.Upgrade([]byte("data"), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "upgrade to v3 (broken)") {
		t.Errorf("err = %v, want step named", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2", version)
	}
}

// ///////////////////////////////////////////////
// Stale
// ///////////////////////////////////////////////

func TestStale(t *testing.T) {
	c := &Chain{Latest: 3, Steps: []Step{{Version: 2}, {Version: 3}}}
	tests := []struct {
		version int
		want    bool
	}{
		{0, true},
		{2, true},
		{3, false},
		{4, true},
	}
	for _, tt := range tests {
		if got := c.Stale(tt.version); got != tt.want {
			t.Errorf("Stale(%d) = %v, want %v", tt.version, got, tt.want)
		}
	}

	// A step above Latest still marks a current file stale.
	ahead := &Chain{Latest: 1, Steps: []Step{{Version: 2}}}
	if !ahead.Stale(1) {
		t.Error("Stale(1) = false with a v2 step registered")
	}
}

// ///////////////////////////////////////////////
// Chain
// ///////////////////////////////////////////////

func TestConfigChainEndsAtLatest(t *testing.T) {
	if Config.Latest != 3 {
		t.Fatalf("Config.Latest = %d, want 3", Config.Latest)
	}
	last := Config.Steps[len(Config.Steps)-1]
	if last.Version != Config.Latest {
		t.Fatalf("last step produces v%d, want v%d", last.Version, Config.Latest)
	}
}
