package formula

import (
	"fmt"
	"iter"

	"cashflow-lab/internal/domain"
)

// Merge combines formulas into one date-ordered Sequence. On equal dates
// actions from earlier formulas come first; within a formula the
// generation order is kept. Nil formulas are skipped.
func Merge(formulas ...Formula) Formula {
	owned := make([]Formula, 0, len(formulas))
	for _, f := range formulas {
		if f != nil {
			owned = append(owned, f)
		}
	}

	return func(ctx *Context) (domain.Sequence, error) {
		seqs := make([]domain.Sequence, len(owned))
		for i, f := range owned {
			seq, err := f(ctx)
			if err != nil {
				return domain.Sequence{}, fmt.Errorf("merge formula %d: %w", i, err)
			}
			seqs[i] = seq
		}
		return domain.NewSequence(mergeSorted(seqs)), nil
	}
}

// mergeSorted is a k-way merge of ascending sequences.
func mergeSorted(seqs []domain.Sequence) iter.Seq[domain.TimedAction] {
	return func(yield func(domain.TimedAction) bool) {
		type head struct {
			next func() (domain.TimedAction, bool)
			stop func()
			cur  domain.TimedAction
			ok   bool
		}

		heads := make([]head, len(seqs))
		for i, s := range seqs {
			next, stop := iter.Pull(s.All())
			heads[i].next, heads[i].stop = next, stop
			heads[i].cur, heads[i].ok = next()
		}
		defer func() {
			for i := range heads {
				heads[i].stop()
			}
		}()

		for {
			best := -1
			for i := range heads {
				if !heads[i].ok {
					continue
				}
				// strict Before keeps the lowest index on ties
				if best < 0 || heads[i].cur.Date.Before(heads[best].cur.Date) {
					best = i
				}
			}
			if best < 0 {
				return
			}
			if !yield(heads[best].cur) {
				return
			}
			heads[best].cur, heads[best].ok = heads[best].next()
		}
	}
}
