// Package config loads and validates codenav configuration from a
// .codenav.kdl file, falling back to defaults when no file exists. CLI
// flags override file values at the call site.
package config

import (
	"fmt"

	"github.com/codenav/codenav/internal/batch"
	"github.com/codenav/codenav/internal/callgraph"
	"github.com/codenav/codenav/internal/inheritance"
	"github.com/codenav/codenav/internal/locator"
)

// Workspace identifies the codebase under query
type Workspace struct {
	Root string `json:"root"`
}

// Limits bounds the graph traversals
type Limits struct {
	MaxCallers      int `json:"max_callers"`
	MaxCallees      int `json:"max_callees"`
	CallerDepth     int `json:"caller_depth"`
	CalleeDepth     int `json:"callee_depth"`
	MaxDerivedDepth int `json:"max_derived_depth"`
}

// Batch bounds the orchestrator pool
type Batch struct {
	MaxConcurrency int `json:"max_concurrency"`
}

// Resolution tunes the symbol locator
type Resolution struct {
	FuzzyThreshold float64 `json:"fuzzy_threshold"`
}

// Diagnostics sets the default collection filters
type Diagnostics struct {
	MinSeverity   string `json:"min_severity"`
	IncludeHidden bool   `json:"include_hidden"`
}

// Config is the full configuration tree
type Config struct {
	Workspace   Workspace   `json:"workspace"`
	Limits      Limits      `json:"limits"`
	Batch       Batch       `json:"batch"`
	Resolution  Resolution  `json:"resolution"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	return &Config{
		Workspace: Workspace{Root: "."},
		Limits: Limits{
			MaxCallers:      callgraph.DefaultMaxCallers,
			MaxCallees:      callgraph.DefaultMaxCallees,
			CallerDepth:     callgraph.DefaultDepth,
			CalleeDepth:     callgraph.DefaultDepth,
			MaxDerivedDepth: inheritance.DefaultMaxDerivedDepth,
		},
		Batch: Batch{
			MaxConcurrency: batch.DefaultMaxConcurrency,
		},
		Resolution: Resolution{
			FuzzyThreshold: locator.DefaultFuzzyThreshold,
		},
		Diagnostics: Diagnostics{
			MinSeverity:   "hidden",
			IncludeHidden: false,
		},
	}
}

// Validate rejects values that would silently disable bounds
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace root must not be empty")
	}
	if c.Limits.MaxCallers <= 0 {
		return fmt.Errorf("limits.max_callers must be positive, got %d", c.Limits.MaxCallers)
	}
	if c.Limits.MaxCallees <= 0 {
		return fmt.Errorf("limits.max_callees must be positive, got %d", c.Limits.MaxCallees)
	}
	if c.Limits.CallerDepth <= 0 || c.Limits.CalleeDepth <= 0 {
		return fmt.Errorf("limits depths must be positive, got caller=%d callee=%d",
			c.Limits.CallerDepth, c.Limits.CalleeDepth)
	}
	if c.Limits.MaxDerivedDepth <= 0 {
		return fmt.Errorf("limits.max_derived_depth must be positive, got %d", c.Limits.MaxDerivedDepth)
	}
	if c.Batch.MaxConcurrency <= 0 {
		return fmt.Errorf("batch.max_concurrency must be positive, got %d", c.Batch.MaxConcurrency)
	}
	if c.Resolution.FuzzyThreshold <= 0 || c.Resolution.FuzzyThreshold > 1 {
		return fmt.Errorf("resolution.fuzzy_threshold must be in (0,1], got %.2f", c.Resolution.FuzzyThreshold)
	}
	return nil
}

// CallGraphOptions converts the limits to builder options
func (c *Config) CallGraphOptions() callgraph.Options {
	return callgraph.Options{
		MaxCallers:  c.Limits.MaxCallers,
		MaxCallees:  c.Limits.MaxCallees,
		CallerDepth: c.Limits.CallerDepth,
		CalleeDepth: c.Limits.CalleeDepth,
	}
}

// InheritanceOptions converts the limits to builder options
func (c *Config) InheritanceOptions(includeDerived bool) inheritance.Options {
	return inheritance.Options{
		IncludeDerived:  includeDerived,
		MaxDerivedDepth: c.Limits.MaxDerivedDepth,
	}
}
