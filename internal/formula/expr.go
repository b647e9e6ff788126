package formula

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"cashflow-lab/internal/domain"
)

// filterCostLimit bounds the work a single filter evaluation may do.
const filterCostLimit = 1000000

var filterEnv = mustFilterEnv()

func mustFilterEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("date", cel.TimestampType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("counterparty", cel.StringType),
		cel.Variable("day", cel.IntType),
		cel.Variable("weekday", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("year", cel.IntType),
	)
	if err != nil {
		panic(fmt.Sprintf("formula: create filter env: %v", err))
	}
	return env
}

// compileFilter compiles a boolean CEL expression over an action.
func compileFilter(expression string) (cel.Program, error) {
	ast, issues := filterEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile filter %q: %v", domain.ErrConfiguration, expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: filter %q returns %s, want bool",
			domain.ErrConfiguration, expression, ast.OutputType())
	}

	prog, err := filterEnv.Program(ast, cel.CostLimit(filterCostLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: program for filter %q: %v", domain.ErrConfiguration, expression, err)
	}
	return prog, nil
}

func filterVars(ta domain.TimedAction) map[string]any {
	return map[string]any{
		"date":         ta.Date,
		"amount":       ta.Action.Amount.InexactFloat64(),
		"kind":         string(ta.Action.Kind),
		"counterparty": ta.Action.Counterparty,
		"day":          int64(ta.Date.Day()),
		"weekday":      int64(ta.Date.Weekday()),
		"month":        int64(ta.Date.Month()),
		"year":         int64(ta.Date.Year()),
	}
}

// When keeps the actions for which a CEL expression holds, for example
//
//	When("month == 12 && amount > 100.0")
//
// Available variables: date (timestamp), amount (double), kind and
// counterparty (string), day, weekday (0 = Sunday), month and year (int).
// Compile errors surface as ErrConfiguration when the formula is
// evaluated. The filtered sequence is materialized so evaluation errors
// are reported by the stage rather than dropped mid-iteration.
func When(expression string) SequenceStage {
	prog, compileErr := compileFilter(expression)
	return func(*Context) (func(domain.Sequence) (domain.Sequence, error), error) {
		if compileErr != nil {
			return nil, compileErr
		}
		return func(seq domain.Sequence) (domain.Sequence, error) {
			var kept []domain.TimedAction
			for ta := range seq.All() {
				out, _, err := prog.Eval(filterVars(ta))
				if err != nil {
					return domain.Sequence{}, fmt.Errorf("evaluate filter %q at %s: %w",
						expression, ta.Date.Format("2006-01-02"), err)
				}
				if ok, _ := out.Value().(bool); ok {
					kept = append(kept, ta)
				}
			}
			return domain.SequenceOf(kept...), nil
		}, nil
	}
}
