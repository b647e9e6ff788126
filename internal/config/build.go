package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/formula"
	"cashflow-lab/internal/interval"
	"cashflow-lab/internal/scenario"
)

// Build turns a validated scenario file into a formula context, the
// tick resolution and the interest model.
func Build(f *File) (*formula.Context, interval.Frequency, scenario.InterestModel, error) {
	start, end, err := f.Window()
	if err != nil {
		return nil, "", nil, err
	}

	resolution, err := interval.ParseFrequency(f.Resolution)
	if err != nil {
		return nil, "", nil, fmt.Errorf("resolution: %w", err)
	}

	interest, ok := scenario.InterestModelByName(f.Interest)
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: unknown interest model %q", domain.ErrConfiguration, f.Interest)
	}

	reg := formula.NewRegistry()
	for _, acc := range f.Accounts {
		if err := addAccount(reg, acc); err != nil {
			return nil, "", nil, fmt.Errorf("account %q: %w", acc.ID, err)
		}
	}

	return formula.NewContext(reg, start, end), resolution, interest, nil
}

// Window returns the parsed [start, end) dates.
func (f *File) Window() (time.Time, time.Time, error) {
	start, err := parseDate(f.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(f.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// TickSchedule returns the calendar tick cadence, or nil when ticks
// follow the resolution.
func (f *File) TickSchedule() (*interval.Schedule, error) {
	if f.Schedule == "" {
		return nil, nil
	}
	return interval.ParseSchedule(f.Schedule)
}

func addAccount(reg *formula.Registry, acc AccountSpec) error {
	initial, err := parseAmount(acc.Initial)
	if err != nil {
		return fmt.Errorf("initial: %w", err)
	}
	rate, err := parseAmount(acc.InterestRate)
	if err != nil {
		return fmt.Errorf("interest_rate: %w", err)
	}

	var formulas []formula.Formula
	for i, stages := range acc.stageLists() {
		f, err := buildFormula(stages)
		if err != nil {
			return fmt.Errorf("formula %d: %w", i, err)
		}
		formulas = append(formulas, f)
	}

	var f formula.Formula
	switch len(formulas) {
	case 0:
	case 1:
		f = formulas[0]
	default:
		f = formula.Merge(formulas...)
	}

	name := acc.Name
	if name == "" {
		name = acc.ID
	}
	return reg.Add(acc.ID, initial, domain.AccountBase{Name: name, InterestRate: rate}, f)
}

func buildFormula(specs []StageSpec) (formula.Formula, error) {
	stages := make([]formula.Stage, 0, len(specs))
	for i, spec := range specs {
		st, err := spec.stage()
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		stages = append(stages, st)
	}
	return formula.Pattern(stages...)
}

// stage maps the one key set on the spec to a formula stage.
func (s StageSpec) stage() (formula.Stage, error) {
	switch {
	case s.Every != "":
		freq, err := interval.ParseFrequency(s.Every)
		if err != nil {
			return nil, err
		}
		return formula.Every(freq), nil

	case s.EveryBetween != nil:
		freq, err := interval.ParseFrequency(s.EveryBetween.Frequency)
		if err != nil {
			return nil, err
		}
		from, to, err := parseWindow(s.EveryBetween.From, s.EveryBetween.To)
		if err != nil {
			return nil, err
		}
		return formula.EveryBetween(freq, from, to), nil

	case s.Schedule != "":
		// parse eagerly so a bad spec fails at load time
		if _, err := interval.ParseSchedule(s.Schedule); err != nil {
			return nil, err
		}
		return formula.OnSchedule(s.Schedule), nil

	case len(s.Dates) > 0:
		dates := make([]time.Time, 0, len(s.Dates))
		for _, d := range s.Dates {
			t, err := parseDate(d)
			if err != nil {
				return nil, err
			}
			dates = append(dates, t)
		}
		return formula.On(dates...), nil

	case s.Skip != nil:
		return formula.Skip(*s.Skip), nil

	case s.Take != nil:
		return formula.Take(*s.Take), nil

	case s.Within != nil:
		from, to, err := parseWindow(s.Within.From, s.Within.To)
		if err != nil {
			return nil, err
		}
		return formula.Within(from, to), nil

	case s.Deposit != "":
		return amountStage(s.Deposit, formula.Deposit)

	case s.Withdraw != "":
		return amountStage(s.Withdraw, formula.Withdraw)

	case s.Fee != "":
		return amountStage(s.Fee, formula.ChargeFee)

	case s.Transfer != nil:
		amount, err := parseAmount(s.Transfer.Amount)
		if err != nil {
			return nil, err
		}
		return formula.TransferTo(amount, s.Transfer.To), nil

	case s.Scale != "":
		factor, err := parseAmount(s.Scale)
		if err != nil {
			return nil, err
		}
		return formula.Scale(factor), nil

	case s.Shift != nil:
		return formula.Shift(*s.Shift), nil

	case s.When != "":
		return formula.When(s.When), nil

	case s.Note != "":
		return formula.Note(s.Note), nil
	}

	return nil, fmt.Errorf("%w: empty stage", domain.ErrConfiguration)
}

func amountStage(raw string, fn func(decimal.Decimal) formula.ActionStage) (formula.Stage, error) {
	amount, err := parseAmount(raw)
	if err != nil {
		return nil, err
	}
	return fn(amount), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", domain.ErrConfiguration, raw, err)
	}
	return d, nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", domain.ErrConfiguration, raw, err)
	}
	return domain.Day(t), nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	f, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}
