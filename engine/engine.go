// Package engine describes the logic-programming engines under test and the
// pages that serve them.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHost is prefixed to every engine path unless configured otherwise.
const DefaultHost = "http://localhost"

// Descriptor identifies one engine and the path its execution page is
// served at.
type Descriptor struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// Config is the engine list together with the host serving it. The order of
// Engines is the column order of every produced table.
type Config struct {
	Host    string       `yaml:"host"`
	Engines []Descriptor `yaml:"engines"`
}

// Defaults returns the built-in engine list.
func Defaults() []Descriptor {
	return []Descriptor{
		{Label: "WebPL", Path: "/webpl.html"},
		{Label: "WebPL (GC)", Path: "/webpl-gc.html"},
		{Label: "SWI-Prolog", Path: "/swipl.html"},
		{Label: "Trealla Prolog", Path: "/trealla.html"},
		{Label: "Tau Prolog", Path: "/tau.html"},
	}
}

// DefaultConfig returns the built-in engine list on DefaultHost.
func DefaultConfig() Config {
	return Config{Host: DefaultHost, Engines: Defaults()}
}

// Load reads a YAML engine configuration. A missing host falls back to
// DefaultHost.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read engine config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode engine config %s: %w", path, err)
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("engine config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the engine list can be used to build tables.
func (c Config) Validate() error {
	if len(c.Engines) == 0 {
		return errors.New("no engines configured")
	}

	seen := make(map[string]struct{}, len(c.Engines))

	for i, e := range c.Engines {
		switch {
		case e.Label == "":
			return fmt.Errorf("engine %d: empty label", i)
		case strings.Contains(e.Label, ","):
			return fmt.Errorf("engine %q: label must not contain commas", e.Label)
		case !strings.HasPrefix(e.Path, "/"):
			return fmt.Errorf("engine %q: path %q must start with /", e.Label, e.Path)
		}

		if _, dup := seen[e.Label]; dup {
			return fmt.Errorf("engine %q: duplicate label", e.Label)
		}
		seen[e.Label] = struct{}{}
	}

	return nil
}

// Labels returns the engine labels in configured order.
func Labels(engines []Descriptor) []string {
	labels := make([]string, len(engines))
	for i, e := range engines {
		labels[i] = e.Label
	}

	return labels
}

// Select keeps the engines whose label is listed, in configured order. An
// empty selection keeps every engine.
func Select(engines []Descriptor, labels []string) ([]Descriptor, error) {
	if len(labels) == 0 {
		return engines, nil
	}

	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = false
	}

	selected := make([]Descriptor, 0, len(labels))

	for _, e := range engines {
		if _, ok := want[e.Label]; ok {
			want[e.Label] = true
			selected = append(selected, e)
		}
	}

	for _, l := range labels {
		if !want[l] {
			return nil, fmt.Errorf("unknown engine %q", l)
		}
	}

	return selected, nil
}
