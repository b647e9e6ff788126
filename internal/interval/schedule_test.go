package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
)

func TestSchedule_Monthly(t *testing.T) {
	s, err := ParseSchedule("@monthly")
	require.NoError(t, err)

	dates := s.Generate(domain.Date(2023, 1, 1), domain.Date(2023, 5, 1)).Dates()
	want := []time.Time{
		domain.Date(2023, 1, 1),
		domain.Date(2023, 2, 1),
		domain.Date(2023, 3, 1),
		domain.Date(2023, 4, 1),
	}
	assert.Equal(t, want, dates)
}

func TestSchedule_FifteenthOfMonth(t *testing.T) {
	s, err := ParseSchedule("0 0 15 * *")
	require.NoError(t, err)
	assert.Equal(t, "0 0 15 * *", s.Spec())

	dates := s.Generate(domain.Date(2023, 1, 20), domain.Date(2023, 4, 1)).Dates()
	want := []time.Time{
		domain.Date(2023, 2, 15),
		domain.Date(2023, 3, 15),
	}
	assert.Equal(t, want, dates)
}

func TestSchedule_EmptyWindow(t *testing.T) {
	s, err := ParseSchedule("@daily")
	require.NoError(t, err)
	assert.Empty(t, s.Generate(domain.Date(2023, 1, 2), domain.Date(2023, 1, 1)).Dates())
}

func TestParseSchedule_Invalid(t *testing.T) {
	_, err := ParseSchedule("every other tuesday")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
