// Package config loads the YAML campaign configuration file, following
// the same gopkg.in/yaml.v3 pattern capability.LoadPatterns uses for the
// teacher's language pattern sets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables a campaign reads at startup. A field the file
// leaves unset stays nil; Resolve fills in the defaults for those.
type Config struct {
	BayesianNetwork BayesianNetworkConfig `yaml:"bayesian_network"`
	Fuzzing         FuzzingConfig         `yaml:"fuzzing"`
}

// BayesianNetworkConfig holds the noisy-AND/prior parameters shared by
// every node's CPD.
type BayesianNetworkConfig struct {
	PriorProbability *float64 `yaml:"prior_probability"`
	RuleProbability  *float64 `yaml:"rule_probability"`
}

// FuzzingConfig holds the campaign scheduler's round-budget knobs.
type FuzzingConfig struct {
	ReconstructionInterval *int     `yaml:"reconstruction_interval"`
	InitialRoundBudget     *float64 `yaml:"initial_round_budget"`
}

const (
	defaultPriorProbability = 0.9
	defaultRuleProbability  = 0.9
	defaultReconstructionInterval = 5
	defaultInitialRoundBudgetSecs  = 10.0
)

// Resolved is the fully-defaulted, immediately usable form of Config.
type Resolved struct {
	PriorProbability       float64
	RuleProbability        float64
	ReconstructionInterval int
	InitialRoundBudget     time.Duration
}

// Load reads and parses path. A missing path is not an error: it mirrors
// the reference engine's _load_config, which treats an absent file as an
// empty override set and proceeds entirely on defaults. A present but
// malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve fills in the spec's defaults for any field the file left unset.
func (c *Config) Resolve() Resolved {
	r := Resolved{
		PriorProbability:       defaultPriorProbability,
		RuleProbability:        defaultRuleProbability,
		ReconstructionInterval: defaultReconstructionInterval,
		InitialRoundBudget:     time.Duration(defaultInitialRoundBudgetSecs * float64(time.Second)),
	}
	if c == nil {
		return r
	}
	if c.BayesianNetwork.PriorProbability != nil {
		r.PriorProbability = *c.BayesianNetwork.PriorProbability
	}
	if c.BayesianNetwork.RuleProbability != nil {
		r.RuleProbability = *c.BayesianNetwork.RuleProbability
	}
	if c.Fuzzing.ReconstructionInterval != nil {
		r.ReconstructionInterval = *c.Fuzzing.ReconstructionInterval
	}
	if c.Fuzzing.InitialRoundBudget != nil {
		r.InitialRoundBudget = time.Duration(*c.Fuzzing.InitialRoundBudget * float64(time.Second))
	}
	return r
}
