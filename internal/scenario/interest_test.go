package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cashflow-lab/internal/domain"
)

func TestDailySimple_Accrue(t *testing.T) {
	jan1, jan8 := domain.Date(2023, 1, 1), domain.Date(2023, 1, 8)

	tests := []struct {
		name    string
		balance string
		rate    string
		from    string
		want    string
	}{
		{"one week", "36500", "10", "week", "70"},
		{"rounds half even", "1000", "5", "week", "0.96"},
		{"zero rate", "1000", "0", "week", "0"},
		{"negative balance", "-1000", "5", "week", "0"},
		{"zero days", "1000", "5", "same", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := jan1
			if tt.from == "same" {
				from = jan8
			}
			got := DailySimple{}.Accrue(dec(tt.balance), dec(tt.rate), from, jan8)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestInterestModelByName(t *testing.T) {
	m, ok := InterestModelByName("none")
	assert.True(t, ok)
	assert.IsType(t, NoInterest{}, m)

	m, ok = InterestModelByName("")
	assert.True(t, ok)
	assert.IsType(t, NoInterest{}, m)

	m, ok = InterestModelByName("daily_simple")
	assert.True(t, ok)
	assert.IsType(t, DailySimple{}, m)

	_, ok = InterestModelByName("continuous")
	assert.False(t, ok)
}
