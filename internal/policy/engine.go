package policy

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Engine is the rule evaluation engine using CEL
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// Evaluate runs every rule in config against input. A rule that fails
// to compile or evaluate becomes a failed error-severity finding
// instead of aborting the run.
func (e *Engine) Evaluate(config *Config, input map[string]any) []Finding {
	findings := make([]Finding, 0, len(config.Rules))
	for _, rule := range config.Rules {
		findings = append(findings, e.evaluateRule(rule, input))
	}
	return findings
}

func (e *Engine) evaluateRule(rule Rule, input map[string]any) Finding {
	severity := rule.Severity
	if severity == "" {
		severity = SeverityError
	}
	finding := Finding{RuleName: rule.Name, Severity: severity}

	// compile
	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		finding.Severity = SeverityError // broken rules always block
		finding.FailureMsg = fmt.Sprintf("CEL compile error: %v", issues.Err())
		return finding
	}

	// program
	prg, err := e.env.Program(ast)
	if err != nil {
		finding.Severity = SeverityError
		finding.FailureMsg = fmt.Sprintf("CEL program error: %v", err)
		return finding
	}

	// eval
	out, _, err := prg.Eval(map[string]any{
		"input": input,
	})
	if err != nil {
		finding.Severity = SeverityError
		finding.FailureMsg = fmt.Sprintf("CEL evaluation error: %v", err)
		return finding
	}

	// check bool
	passed, ok := out.Value().(bool)
	if !ok {
		finding.Severity = SeverityError
		finding.FailureMsg = fmt.Sprintf("rule expression must return boolean, got %T", out.Value())
		return finding
	}

	finding.Passed = passed
	if !passed {
		finding.FailureMsg = rule.FailureMsg
	}
	return finding
}

// CompileAndValidate compiles every expression up front so a broken
// rule file is reported before any evaluation happens.
func (e *Engine) CompileAndValidate(config *Config) error {
	var errs []string

	for _, rule := range config.Rules {
		_, issues := e.env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			errs = append(errs, fmt.Sprintf("rule %q: %v", rule.Name, issues.Err()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("policy validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return nil
}
