// Package config loads node-level settings that live outside the chain spec.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrENRBootnode is returned for ENR records; the payload relay dials multiaddrs only.
var ErrENRBootnode = errors.New("enr bootnodes are not supported")

// bootnodeEntry represents a bootnode with named fields.
type bootnodeEntry struct {
	Multiaddr string `yaml:"multiaddr"`
}

// LoadBootnodes loads a nodes.yaml file and returns bootnode multiaddrs.
// Supports both formats:
//   - Entries: [{multiaddr: "/ip4/..."}]
//   - Plain:   ["/ip4/..."]
func LoadBootnodes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}
	return ParseBootnodes(data)
}

// ParseBootnodes decodes the nodes.yaml contents. Blank entries are skipped.
func ParseBootnodes(data []byte) ([]string, error) {
	var raw []string

	var entries []bootnodeEntry
	if err := yaml.Unmarshal(data, &entries); err == nil && len(entries) > 0 && entries[0].Multiaddr != "" {
		for _, e := range entries {
			raw = append(raw, e.Multiaddr)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse nodes: %w", err)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			continue
		case strings.HasPrefix(s, "enr:"):
			return nil, fmt.Errorf("%w: %.16s...", ErrENRBootnode, s)
		}
		out = append(out, s)
	}
	return out, nil
}
