package main

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
)

// Scenario sizes a benchmark run. It can be read from a YAML file and then
// overridden from the command line.
type Scenario struct {
	Depth      int      `yaml:"depth"`
	Width      int      `yaml:"width"`
	Iterations int      `yaml:"iterations"`
	GCTimeout  string   `yaml:"gc_timeout"`
	Skip       []string `yaml:"skip"`
}

func defaultScenario() Scenario {
	return Scenario{
		Depth:      1_000_000,
		Width:      100_000,
		Iterations: 1_000_000,
		GCTimeout:  "30s",
	}
}

func loadScenario(path string) (Scenario, error) {
	s := defaultScenario()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("could not read scenario %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("error decoding scenario %q: %w", path, err)
	}
	return s, s.validate()
}

// override applies every positive flag value over the scenario.
func (s *Scenario) override(cfg *Config) error {
	if cfg.Depth > 0 {
		s.Depth = cfg.Depth
	}
	if cfg.Width > 0 {
		s.Width = cfg.Width
	}
	if cfg.Iterations > 0 {
		s.Iterations = cfg.Iterations
	}
	if cfg.GCTimeout != "" {
		s.GCTimeout = cfg.GCTimeout
	}
	return s.validate()
}

func (s *Scenario) validate() error {
	if s.Depth < 1 {
		return fmt.Errorf("depth must be positive, got %d", s.Depth)
	}
	if s.Width < 1 {
		return fmt.Errorf("width must be positive, got %d", s.Width)
	}
	if s.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", s.Iterations)
	}
	if _, err := s.gcTimeout(); err != nil {
		return err
	}
	for _, name := range s.Skip {
		if !slices.Contains(benchNames, name) {
			return fmt.Errorf("unknown benchmark %q in skip list", name)
		}
	}
	return nil
}

func (s *Scenario) gcTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(s.GCTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid gc_timeout: %w", err)
	}
	return d, nil
}

func (s *Scenario) skips(name string) bool {
	return slices.Contains(s.Skip, name)
}
