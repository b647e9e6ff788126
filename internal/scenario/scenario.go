// Package scenario resolves account formulas into per-tick balance
// snapshots.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/formula"
	"cashflow-lab/internal/interval"
	"cashflow-lab/internal/observability"
)

// Scenario resolves the accounts of one formula context.
type Scenario struct {
	fctx        *formula.Context
	interest    InterestModel
	log         zerolog.Logger
	metrics     *observability.Metrics
	parallelism int
	journal     *Journal
}

// Option configures a Scenario.
type Option func(*Scenario)

// WithInterest sets the interest model. Default NoInterest.
func WithInterest(m InterestModel) Option {
	return func(s *Scenario) {
		if m != nil {
			s.interest = m
		}
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scenario) {
		s.log = log.With().Str("component", "scenario").Logger()
	}
}

// WithMetrics sets the metrics sink. nil disables metrics.
// Default observability.DefaultMetrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scenario) {
		s.metrics = m
	}
}

// WithParallelism bounds how many account formulas are evaluated
// concurrently. Values below 1 mean sequential.
func WithParallelism(n int) Option {
	return func(s *Scenario) {
		if n < 1 {
			n = 1
		}
		s.parallelism = n
	}
}

// WithJournal records every applied balance change into j.
func WithJournal(j *Journal) Option {
	return func(s *Scenario) {
		s.journal = j
	}
}

// New creates a Scenario over fctx.
func New(fctx *formula.Context, opts ...Option) (*Scenario, error) {
	if fctx == nil {
		return nil, ErrNoContext
	}

	s := &Scenario{
		fctx:        fctx,
		interest:    NoInterest{},
		log:         zerolog.Nop(),
		metrics:     observability.DefaultMetrics,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Context returns the formula context the scenario resolves.
func (s *Scenario) Context() *formula.Context {
	return s.fctx
}

// Solve samples account values over [start, end) of the context at the
// given resolution. Each tick holds the values after every action dated
// strictly before it. Account values are reset to their starting
// balances first, so repeated solves return the same Results.
// Any error aborts the solve and no Results are returned.
func (s *Scenario) Solve(ctx context.Context, resolution interval.Frequency) (*domain.Results, error) {
	started := time.Now()

	ticks, err := interval.Generate(s.fctx.Start, s.fctx.End, resolution)
	if err != nil {
		err = fmt.Errorf("tick interval: %w", err)
		s.finish(started, nil, err)
		return nil, err
	}

	results, err := s.solve(ctx, ticks)
	s.finish(started, results, err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SolveTicks is Solve over an explicit ascending tick interval, e.g. a
// calendar schedule.
func (s *Scenario) SolveTicks(ctx context.Context, ticks domain.Interval) (*domain.Results, error) {
	started := time.Now()

	results, err := s.solve(ctx, ticks)
	s.finish(started, results, err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scenario) solve(ctx context.Context, ticks domain.Interval) (*domain.Results, error) {
	reg := s.fctx.Accounts
	reg.Reset()
	s.journal.reset()

	perAccount, err := s.evaluate(ctx)
	if err != nil {
		return nil, err
	}

	entries := tagEntries(perAccount)
	sortEntries(entries)

	s.log.Debug().
		Int("accounts", reg.Len()).
		Int("actions", len(entries)).
		Msg("formulas evaluated")

	results := domain.NewResults(0)
	cursor := 0
	var prev time.Time
	first := true

	for tick := range ticks.All() {
		if err := ctx.Err(); err != nil {
			s.journal.reset()
			return nil, err
		}

		next := dueBefore(entries, cursor, tick)
		for _, e := range entries[cursor:next] {
			if err := s.apply(e, tick); err != nil {
				s.journal.reset()
				return nil, err
			}
		}
		applied := next - cursor
		cursor = next

		from := tick
		if !first {
			from = prev
		}
		s.accrue(from, tick)
		prev, first = tick, false

		results.Record(tick, s.snapshot())
		s.metrics.RecordTick()

		s.log.Debug().
			Time("tick", tick).
			Int("applied", applied).
			Msg("tick recorded")
	}

	return results, nil
}

// evaluate runs every account formula. Results are placed by registry
// index so concurrent evaluation never changes ordering.
func (s *Scenario) evaluate(ctx context.Context) ([][]domain.TimedAction, error) {
	reg := s.fctx.Accounts
	perAccount := make([][]domain.TimedAction, reg.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i := 0; i < reg.Len(); i++ {
		acc := reg.At(i)
		if acc.Formula == nil {
			continue
		}

		id, f := acc.ID, acc.Formula
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			seq, err := f(s.fctx)
			s.metrics.RecordFormula(err)
			if err != nil {
				return fmt.Errorf("evaluate account %q: %w", id, err)
			}
			perAccount[i] = seq.Collect()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perAccount, nil
}

// apply mutates balances for one entry.
func (s *Scenario) apply(e entry, tick time.Time) error {
	reg := s.fctx.Accounts
	if e.account < 0 || e.account >= reg.Len() {
		return fmt.Errorf("%w: index %d", domain.ErrUnknownAccount, e.account)
	}
	owner := reg.At(e.account)

	if e.action.Kind == domain.ActionTransfer {
		j, ok := reg.Index(e.action.Counterparty)
		if !ok {
			return fmt.Errorf("%w: %q (transfer from %q on %s)",
				domain.ErrUnknownAccount, e.action.Counterparty, owner.ID, e.date.Format(time.DateOnly))
		}
		target := reg.At(j)

		owner.Value = owner.Value.Sub(e.action.Amount)
		target.Value = target.Value.Add(e.action.Amount)

		s.journal.record(JournalEntry{Date: e.date, Tick: tick, AccountID: owner.ID,
			Action: e.action, Delta: e.action.Amount.Neg(), Balance: owner.Value})
		s.journal.record(JournalEntry{Date: e.date, Tick: tick, AccountID: target.ID,
			Action: e.action, Delta: e.action.Amount, Balance: target.Value})
	} else {
		delta := e.action.Delta()
		owner.Value = owner.Value.Add(delta)
		s.journal.record(JournalEntry{Date: e.date, Tick: tick, AccountID: owner.ID,
			Action: e.action, Delta: delta, Balance: owner.Value})
	}

	s.metrics.RecordAction(string(e.action.Kind))
	return nil
}

// accrue credits interest for the period ending at tick.
func (s *Scenario) accrue(from, tick time.Time) {
	reg := s.fctx.Accounts
	for i := 0; i < reg.Len(); i++ {
		acc := reg.At(i)
		amount := s.interest.Accrue(acc.Value, acc.Base.InterestRate, from, tick)
		if !amount.IsPositive() {
			continue
		}

		acc.Value = acc.Value.Add(amount)
		s.journal.record(JournalEntry{Date: tick, Tick: tick, AccountID: acc.ID,
			Action: domain.InterestCredit(amount), Delta: amount, Balance: acc.Value})
		s.metrics.RecordAction(string(domain.ActionInterest))
		s.metrics.RecordInterest(amount.InexactFloat64())
	}
}

func (s *Scenario) snapshot() map[string]decimal.Decimal {
	reg := s.fctx.Accounts
	values := make(map[string]decimal.Decimal, reg.Len())
	for i := 0; i < reg.Len(); i++ {
		acc := reg.At(i)
		values[acc.ID] = acc.Value
	}
	return values
}

func (s *Scenario) finish(started time.Time, results *domain.Results, err error) {
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.RecordRun("error", elapsed.Seconds(), 0)
		s.log.Error().Err(err).Dur("elapsed", elapsed).Msg("scenario solve failed")
		return
	}

	s.metrics.RecordRun("success", elapsed.Seconds(), time.Now().Unix())
	s.metrics.SetAccounts(s.fctx.Accounts.Len())
	s.log.Info().
		Int("accounts", s.fctx.Accounts.Len()).
		Int("ticks", results.Len()).
		Dur("elapsed", elapsed).
		Msg("scenario solved")
}
