// Package migrate upgrades lessondeck.toml files written by older releases.
//
// Each [Step] rewrites the raw file from the previous schema version to its
// own. config.Load runs the [Config] chain before decoding.
package migrate

import (
	"fmt"
	"log/slog"
	"slices"
)

// Step rewrites a file into schema version Version.
type Step struct {
	Version int
	// Description is logged when the step runs.
	Description string
	Upgrade     func(data []byte) ([]byte, error)
}

// Chain is the ordered set of steps for one file format.
type Chain struct {
	// Latest is the version files are written at.
	Latest int
	Steps  []Step
}

// Stale reports whether a file at version must be rewritten.
func (c *Chain) Stale(version int) bool {
	if version != c.Latest {
		return true
	}
	return slices.ContainsFunc(c.Steps, func(s Step) bool { return version < s.Version })
}

// Upgrade runs every step newer than from, lowest version first, and returns
// the rewritten data with the version it reached. On error the version is
// the last one that succeeded.
func (c *Chain) Upgrade(data []byte, from int) ([]byte, int, error) {
	steps := slices.Clone(c.Steps)
	slices.SortFunc(steps, func(a, b Step) int { return a.Version - b.Version })

	at := from
	for _, s := range steps {
		if s.Version <= at {
			continue
		}
		slog.Info("upgrading config", "from", at, "to", s.Version, "step", s.Description)
		out, err := s.Upgrade(data)
		if err != nil {
			return nil, at, fmt.Errorf("upgrade to v%d (%s): %w", s.Version, s.Description, err)
		}
		data, at = out, s.Version
	}
	return data, at, nil
}

// Config upgrades lessondeck.toml.
var Config = &Chain{
	Latest: 3,
	Steps:  []Step{configV2, configV3},
}
