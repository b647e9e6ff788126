package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/interval"
)

func TestWhen(t *testing.T) {
	ctx := januaryContext()

	tests := []struct {
		name string
		expr string
		want int
	}{
		{"sundays only", "weekday == 0", 5},
		{"first half of month", "day <= 15", 15},
		{"amount threshold", "amount > 5.0", 31},
		{"kind match", "kind == 'DEPOSIT'", 31},
		{"timestamp compare", "date < timestamp('2023-01-03T00:00:00Z')", 2},
		{"nothing", "month == 6", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MustPattern(Every(interval.Daily), Deposit(Amount(10)), When(tt.expr))
			seq, err := f(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seq.Len())
			assert.True(t, seq.IsSorted())
		})
	}
}

func TestWhen_InvalidExpression(t *testing.T) {
	for _, expr := range []string{"weekday ==", "amount + 1.0", "unknown_var > 1"} {
		f := MustPattern(Every(interval.Daily), Deposit(Amount(10)), When(expr))
		_, err := f(januaryContext())
		assert.ErrorIs(t, err, domain.ErrConfiguration, expr)
	}
}
