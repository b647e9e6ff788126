package domain

import (
	"iter"
	"slices"
	"time"
)

// TimedAction is one (date, Action) pair of a Sequence.
type TimedAction struct {
	Date   time.Time
	Action Action
}

// Sequence is a lazy, finite, restartable stream of dated actions.
// Producers are trusted to emit pairs in ascending date order.
// The zero value is an empty sequence.
type Sequence struct {
	seq iter.Seq[TimedAction]
}

// NewSequence wraps seq. seq must be restartable.
func NewSequence(seq iter.Seq[TimedAction]) Sequence {
	return Sequence{seq: seq}
}

// SequenceOf builds a sequence over a fixed list of pairs.
func SequenceOf(items ...TimedAction) Sequence {
	owned := slices.Clone(items)
	return Sequence{seq: slices.Values(owned)}
}

// EmptySequence returns a sequence with no pairs.
func EmptySequence() Sequence {
	return Sequence{}
}

// All iterates the pairs.
func (s Sequence) All() iter.Seq[TimedAction] {
	if s.seq == nil {
		return func(func(TimedAction) bool) {}
	}
	return s.seq
}

// Collect materializes the sequence.
func (s Sequence) Collect() []TimedAction {
	return slices.Collect(s.All())
}

// Len counts the pairs. It walks the whole sequence.
func (s Sequence) Len() int {
	n := 0
	for range s.All() {
		n++
	}
	return n
}

// IsSorted reports whether the pairs are in ascending date order.
func (s Sequence) IsSorted() bool {
	var prev time.Time
	first := true
	for ta := range s.All() {
		if !first && ta.Date.Before(prev) {
			return false
		}
		prev, first = ta.Date, false
	}
	return true
}
