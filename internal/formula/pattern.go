package formula

import (
	"fmt"

	"cashflow-lab/internal/domain"
)

// Formula is a pure function of the Context producing a dated action Sequence.
type Formula func(ctx *Context) (domain.Sequence, error)

// Stage is one step of a Pattern. The set of stage kinds is closed:
// IntervalSource, IntervalStage, ActionStage, SequenceStage and Formula.
type Stage interface {
	kind() stageKind
}

type stageKind int

const (
	kindIntervalSource stageKind = iota
	kindSequenceSource
	kindInterval
	kindAction
	kindSequence
)

func (k stageKind) String() string {
	switch k {
	case kindIntervalSource:
		return "interval source"
	case kindSequenceSource:
		return "formula"
	case kindInterval:
		return "interval stage"
	case kindAction:
		return "action stage"
	case kindSequence:
		return "sequence stage"
	default:
		return "unknown stage"
	}
}

// IntervalSource produces the initial Interval of a pattern.
type IntervalSource func(ctx *Context) (domain.Interval, error)

// IntervalStage resolves against the Context to an Interval transform.
type IntervalStage func(ctx *Context) (func(domain.Interval) (domain.Interval, error), error)

// ActionStage resolves against the Context to an action generator that
// emits one or more actions per interval date.
type ActionStage func(ctx *Context) (func(domain.Interval) (domain.Sequence, error), error)

// SequenceStage resolves against the Context to a Sequence transform.
type SequenceStage func(ctx *Context) (func(domain.Sequence) (domain.Sequence, error), error)

func (IntervalSource) kind() stageKind { return kindIntervalSource }
func (Formula) kind() stageKind        { return kindSequenceSource }
func (IntervalStage) kind() stageKind  { return kindInterval }
func (ActionStage) kind() stageKind    { return kindAction }
func (SequenceStage) kind() stageKind  { return kindSequence }

// pipeline state while walking stages
type valueKind int

const (
	valueNone valueKind = iota
	valueInterval
	valueSequence
)

// Pattern chains stages left to right into a Formula. The first stage is
// invoked with the Context to produce the initial value; each later stage
// is invoked with the Context to obtain a transform that is applied to the
// running value. The final value must be a Sequence.
//
// Returns ErrEmptyPipeline for zero stages and ErrPipelineShape when a
// stage cannot consume the value produced before it.
func Pattern(stages ...Stage) (Formula, error) {
	if len(stages) == 0 {
		return nil, domain.ErrEmptyPipeline
	}
	if err := checkShape(stages); err != nil {
		return nil, err
	}

	owned := make([]Stage, len(stages))
	copy(owned, stages)

	return func(ctx *Context) (domain.Sequence, error) {
		var (
			iv  domain.Interval
			seq domain.Sequence
		)

		for i, st := range owned {
			var err error
			switch s := st.(type) {
			case IntervalSource:
				iv, err = s(ctx)
			case Formula:
				seq, err = s(ctx)
			case IntervalStage:
				var fn func(domain.Interval) (domain.Interval, error)
				if fn, err = s(ctx); err == nil {
					iv, err = fn(iv)
				}
			case ActionStage:
				var fn func(domain.Interval) (domain.Sequence, error)
				if fn, err = s(ctx); err == nil {
					seq, err = fn(iv)
				}
			case SequenceStage:
				var fn func(domain.Sequence) (domain.Sequence, error)
				if fn, err = s(ctx); err == nil {
					seq, err = fn(seq)
				}
			}
			if err != nil {
				return domain.Sequence{}, fmt.Errorf("stage %d: %w", i, err)
			}
		}

		return seq, nil
	}, nil
}

// MustPattern is like Pattern but panics on error.
func MustPattern(stages ...Stage) Formula {
	f, err := Pattern(stages...)
	if err != nil {
		panic(err)
	}
	return f
}

// checkShape walks the stage kinds and verifies each consumes what the
// previous produced.
func checkShape(stages []Stage) error {
	state := valueNone
	for i, st := range stages {
		if isNilStage(st) {
			return fmt.Errorf("%w: stage %d is nil", domain.ErrPipelineShape, i)
		}

		k := st.kind()
		next, ok := transition(state, k)
		if !ok {
			return fmt.Errorf("%w: stage %d (%s) cannot follow %s",
				domain.ErrPipelineShape, i, k, describe(state))
		}
		state = next
	}

	if state != valueSequence {
		return fmt.Errorf("%w: pipeline ends with an interval, not a sequence", domain.ErrPipelineShape)
	}
	return nil
}

// isNilStage reports an untyped nil or a nil func of a concrete stage kind.
func isNilStage(st Stage) bool {
	switch s := st.(type) {
	case nil:
		return true
	case IntervalSource:
		return s == nil
	case Formula:
		return s == nil
	case IntervalStage:
		return s == nil
	case ActionStage:
		return s == nil
	case SequenceStage:
		return s == nil
	}
	return false
}

func transition(state valueKind, k stageKind) (valueKind, bool) {
	switch state {
	case valueNone:
		switch k {
		case kindIntervalSource:
			return valueInterval, true
		case kindSequenceSource:
			return valueSequence, true
		}
	case valueInterval:
		switch k {
		case kindInterval:
			return valueInterval, true
		case kindAction:
			return valueSequence, true
		}
	case valueSequence:
		if k == kindSequence {
			return valueSequence, true
		}
	}
	return state, false
}

func describe(state valueKind) string {
	switch state {
	case valueInterval:
		return "an interval"
	case valueSequence:
		return "a sequence"
	default:
		return "the start of the pipeline"
	}
}

// Pipe is the two-stage pattern: an interval source feeding an action
// generator. It cannot fail to build.
func Pipe(source IntervalSource, action ActionStage) Formula {
	return func(ctx *Context) (domain.Sequence, error) {
		iv, err := source(ctx)
		if err != nil {
			return domain.Sequence{}, fmt.Errorf("stage 0: %w", err)
		}
		gen, err := action(ctx)
		if err != nil {
			return domain.Sequence{}, fmt.Errorf("stage 1: %w", err)
		}
		seq, err := gen(iv)
		if err != nil {
			return domain.Sequence{}, fmt.Errorf("stage 1: %w", err)
		}
		return seq, nil
	}
}

// Chain groups sequence stages into one. Grouping does not change the
// resulting Sequence.
func Chain(stages ...SequenceStage) SequenceStage {
	return func(ctx *Context) (func(domain.Sequence) (domain.Sequence, error), error) {
		fns := make([]func(domain.Sequence) (domain.Sequence, error), len(stages))
		for i, s := range stages {
			fn, err := s(ctx)
			if err != nil {
				return nil, err
			}
			fns[i] = fn
		}
		return func(seq domain.Sequence) (domain.Sequence, error) {
			var err error
			for _, fn := range fns {
				if seq, err = fn(seq); err != nil {
					return domain.Sequence{}, err
				}
			}
			return seq, nil
		}, nil
	}
}

// ChainIntervals groups interval stages into one.
func ChainIntervals(stages ...IntervalStage) IntervalStage {
	return func(ctx *Context) (func(domain.Interval) (domain.Interval, error), error) {
		fns := make([]func(domain.Interval) (domain.Interval, error), len(stages))
		for i, s := range stages {
			fn, err := s(ctx)
			if err != nil {
				return nil, err
			}
			fns[i] = fn
		}
		return func(iv domain.Interval) (domain.Interval, error) {
			var err error
			for _, fn := range fns {
				if iv, err = fn(iv); err != nil {
					return domain.Interval{}, err
				}
			}
			return iv, nil
		}, nil
	}
}
