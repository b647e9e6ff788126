package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
)

func TestRegistry_AddAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add("a", Amount(100), domain.AccountBase{Name: "A"}, nil))
	require.NoError(t, reg.Add("b", Amount(0), domain.AccountBase{Name: "B"}, nil))

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"a", "b"}, reg.IDs())

	i, ok := reg.Index("b")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "B", reg.At(i).Base.Name)

	acc, ok := reg.Get("a")
	require.True(t, ok)
	assert.True(t, acc.Value.Equal(Amount(100)))

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateAccount(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add("a", Amount(0), domain.AccountBase{}, nil))

	err := reg.Add("a", Amount(5), domain.AccountBase{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateAccount))
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_EmptyID(t *testing.T) {
	err := NewRegistry().Add("", Amount(0), domain.AccountBase{}, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRegistry_Reset(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add("a", Amount(10), domain.AccountBase{}, nil))

	acc, _ := reg.Get("a")
	acc.Value = Amount(999)
	reg.Reset()

	acc, _ = reg.Get("a")
	assert.True(t, acc.Value.Equal(Amount(10)), "got %s", acc.Value)
}

func TestNewContext_NilRegistry(t *testing.T) {
	ctx := NewContext(nil, domain.Date(2023, 1, 1), domain.Date(2023, 2, 1))
	require.NotNil(t, ctx.Accounts)
	assert.Equal(t, 0, ctx.Accounts.Len())
}
