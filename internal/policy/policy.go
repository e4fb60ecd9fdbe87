// Package policy evaluates CEL rules against the scanned pack pair.
// Rule sets come from embedded presets or a YAML file on disk.
package policy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config modes decide which failed findings block a check run.
const (
	// ModeWarn blocks only on failed error-severity rules.
	ModeWarn = "warn"
	// ModeStrict blocks on any failed rule.
	ModeStrict = "strict"
)

// Rule severities.
const (
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// Config is a named rule set loaded from YAML.
type Config struct {
	Name  string `yaml:"name"`
	Mode  string `yaml:"mode"` // ModeWarn when empty
	Rules []Rule `yaml:"rules"`
}

// Rule is one CEL expression over the scan input.
type Rule struct {
	Name       string `yaml:"name"`
	Expr       string `yaml:"expr"`
	FailureMsg string `yaml:"failure_msg"`
	Severity   string `yaml:"severity"` // SeverityError when empty
}

// Finding is the outcome of one rule.
type Finding struct {
	RuleName   string `json:"rule"`
	Severity   string `json:"severity"`
	Passed     bool   `json:"passed"`
	FailureMsg string `json:"failure_msg,omitempty"`
}

// LoadConfig reads a rule file from disk.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks structural fields. Expressions are only compiled at
// evaluation time.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeWarn, ModeStrict:
	default:
		return fmt.Errorf("policy mode %q: want %s or %s", c.Mode, ModeWarn, ModeStrict)
	}

	if len(c.Rules) == 0 {
		return errors.New("policy has no rules")
	}

	for i, rule := range c.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d: missing name", i)
		}
		if rule.Expr == "" {
			return fmt.Errorf("rule %q: missing expr", rule.Name)
		}
		switch rule.Severity {
		case "", SeverityWarn, SeverityError:
		default:
			return fmt.Errorf("rule %q: severity %q: want %s or %s",
				rule.Name, rule.Severity, SeverityWarn, SeverityError)
		}
	}
	return nil
}

// Summarize counts failed findings by severity.
func Summarize(findings []Finding) (failedErrors, failedWarnings int) {
	for _, f := range findings {
		if f.Passed {
			continue
		}
		if f.Severity == SeverityWarn {
			failedWarnings++
		} else {
			failedErrors++
		}
	}
	return failedErrors, failedWarnings
}

// ShouldBlock reports whether the findings fail the run under mode.
func ShouldBlock(mode string, findings []Finding) bool {
	failedErrors, failedWarnings := Summarize(findings)
	if mode == ModeStrict {
		return failedErrors+failedWarnings > 0
	}
	return failedErrors > 0
}
