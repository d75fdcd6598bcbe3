// Package selector restricts a rule set with a CEL expression evaluated
// once per rule. The expression sees the variables signal (string),
// min and max (double) and delay (int).
package selector

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// CEL selects rules for which the compiled expression is true.
type CEL struct {
	expr    string
	program cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("signal", cel.StringType),
		cel.Variable("min", cel.DoubleType),
		cel.Variable("max", cel.DoubleType),
		cel.Variable("delay", cel.IntType),
	)
}

// Compile builds a selector. An empty expression yields nil, meaning every
// rule is selected.
func Compile(expr string) (*CEL, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("selector env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile selector %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("selector %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program selector %q: %w", expr, err)
	}
	return &CEL{expr: expr, program: prg}, nil
}

func (s *CEL) String() string { return s.expr }

func (s *CEL) Select(r domain.Rule) (bool, error) {
	out, _, err := s.program.Eval(map[string]any{
		"signal": r.Signal,
		"min":    r.Min,
		"max":    r.Max,
		"delay":  r.Delay,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate selector for %q: %w", r.Signal, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("selector for %q returned %T", r.Signal, out.Value())
	}
	return b, nil
}

// Apply filters set through sel. A nil selector returns set unchanged.
func Apply(set *domain.RuleSet, sel ports.RuleSelector) (*domain.RuleSet, error) {
	if sel == nil || set == nil {
		return set, nil
	}
	if c, ok := sel.(*CEL); ok && c == nil {
		return set, nil
	}
	return set.Filter(sel.Select)
}

var _ ports.RuleSelector = (*CEL)(nil)
