package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/interval"
	"cashflow-lab/internal/scenario"
)

const savingsPlan = `
name: savings-plan
start: 2023-01-01
end: 2024-01-01
resolution: weekly
accounts:
  - id: account1
    name: Account 1
    formula:
      - every: weekly
      - deposit: "500"
`

func TestParse_Defaults(t *testing.T) {
	f, err := Parse([]byte(savingsPlan))
	require.NoError(t, err)

	assert.Equal(t, "savings-plan", f.Name)
	assert.Equal(t, "none", f.Interest)
	assert.Equal(t, 1, f.Parallelism)
	require.Len(t, f.Accounts, 1)
	assert.Equal(t, "0", f.Accounts[0].Initial)
	assert.Equal(t, "0", f.Accounts[0].InterestRate)
	require.Len(t, f.Accounts[0].Formula, 2)
}

func TestBuild_SolvesSavingsPlan(t *testing.T) {
	f, err := Parse([]byte(savingsPlan))
	require.NoError(t, err)

	fctx, resolution, interest, err := Build(f)
	require.NoError(t, err)
	assert.Equal(t, interval.Weekly, resolution)
	assert.IsType(t, scenario.NoInterest{}, interest)
	assert.Equal(t, domain.Date(2023, 1, 1), fctx.Start)
	assert.Equal(t, []string{"account1"}, fctx.Accounts.IDs())

	s, err := scenario.New(fctx, scenario.WithInterest(interest), scenario.WithMetrics(nil))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), resolution)
	require.NoError(t, err)

	v, ok := res.Value(domain.Date(2023, 1, 8), "account1")
	require.True(t, ok)
	assert.Equal(t, "500", v.String())
}

func TestLoad_Household(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "household.yaml"))
	require.NoError(t, err)

	fctx, resolution, interest, err := Build(f)
	require.NoError(t, err)

	s, err := scenario.New(fctx, scenario.WithInterest(interest), scenario.WithMetrics(nil))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), resolution)
	require.NoError(t, err)
	require.Equal(t, 13, res.Len())

	// Jan 1 salary, rent and first transfer are visible on Jan 8
	checking, _ := res.Value(domain.Date(2023, 1, 8), "checking")
	savings, _ := res.Value(domain.Date(2023, 1, 8), "savings")
	assert.Equal(t, "3200", checking.String())
	// interest is credited after the tick's actions: 100 × 4.5% × 7/365
	assert.Equal(t, "100.09", savings.String())

	acc, ok := fctx.Accounts.Get("savings")
	require.True(t, ok)
	assert.Equal(t, "4.5", acc.Base.InterestRate.String())
}

func TestBuild_RateWithoutInterestModel(t *testing.T) {
	f, err := Parse([]byte(savingsPlan + `    interest_rate: "5"
`))
	require.NoError(t, err)
	assert.Equal(t, "5", f.Accounts[0].InterestRate)

	fctx, resolution, interest, err := Build(f)
	require.NoError(t, err)

	s, err := scenario.New(fctx, scenario.WithInterest(interest), scenario.WithMetrics(nil))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), resolution)
	require.NoError(t, err)

	series := res.Series("account1")
	require.Len(t, series, 53)
	assert.Equal(t, "500", series[1].String())
	assert.Equal(t, "26000", series[52].String())
}

func TestFingerprint(t *testing.T) {
	f, err := Parse([]byte(savingsPlan))
	require.NoError(t, err)
	base, err := f.Fingerprint()
	require.NoError(t, err)
	assert.Len(t, base, 64)

	same, err := Parse([]byte(savingsPlan + "description: notes only\nparallelism: 4\n"))
	require.NoError(t, err)
	got, err := same.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, base, got, "description and parallelism do not change results")

	changed := []string{
		strings.Replace(savingsPlan, `deposit: "500"`, `deposit: "900"`, 1),
		strings.Replace(savingsPlan, "name: Account 1", "name: Account 1\n    initial: \"10\"", 1),
		strings.Replace(savingsPlan, "name: Account 1", "name: Account 1\n    interest_rate: \"5\"", 1),
		savingsPlan + "interest: daily_simple\n",
	}
	for i, doc := range changed {
		f, err := Parse([]byte(doc))
		require.NoError(t, err, "variant %d", i)
		got, err := f.Fingerprint()
		require.NoError(t, err)
		assert.NotEqual(t, base, got, "variant %d", i)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"missing name", "start: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a}]"},
		{"bad date", "name: x\nstart: 2023-13-01\nend: 2023-02-01\naccounts: [{id: a}]"},
		{"no accounts", "name: x\nstart: 2023-01-01\nend: 2023-02-01"},
		{"duplicate ids", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a}, {id: a}]"},
		{"unknown interest", "name: x\nstart: 2023-01-01\nend: 2023-02-01\ninterest: continuous\naccounts: [{id: a}]"},
		{"bad amount", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, initial: lots}]"},
		{"unknown key", "name: x\nstart: 2023-01-01\nend: 2023-02-01\ncolour: red\naccounts: [{id: a}]"},
		{"two keys in one stage", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, formula: [{every: daily, deposit: '1'}]}]"},
		{"empty stage", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, formula: [{}]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown resolution", "name: x\nstart: 2023-01-01\nend: 2023-02-01\nresolution: hourly\naccounts: [{id: a}]"},
		{"unknown stage frequency", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, formula: [{every: yearly}, {deposit: '1'}]}]"},
		{"bad shape", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, formula: [{deposit: '1'}]}]"},
		{"bad schedule", "name: x\nstart: 2023-01-01\nend: 2023-02-01\naccounts: [{id: a, formula: [{schedule: 'whenever'}, {deposit: '1'}]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, _, _, err = Build(f)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestBuild_StageKeys(t *testing.T) {
	doc := `
name: stages
start: 2023-01-01
end: 2023-03-01
resolution: daily
interest: none
accounts:
  - id: a
    formula:
      - every_between: {frequency: daily, from: 2023-01-10, to: 2023-02-10}
      - skip: 1
      - take: 10
      - within: {from: 2023-01-12, to: 2023-01-20}
      - deposit: "10"
      - scale: "1.5"
      - shift: 1
      - when: "weekday != 0"
  - id: b
    formula:
      - dates: [2023-01-05, 2023-01-06]
      - fee: "2"
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)

	fctx, _, interest, err := Build(f)
	require.NoError(t, err)
	assert.IsType(t, scenario.NoInterest{}, interest)

	a, _ := fctx.Accounts.Get("a")
	seq, err := a.Formula(fctx)
	require.NoError(t, err)
	items := seq.Collect()
	// Jan 12..19 shifted to Jan 13..20, Sunday Jan 15 dropped
	require.Len(t, items, 7)
	assert.Equal(t, domain.Date(2023, 1, 13), items[0].Date)
	assert.Equal(t, "15", items[0].Action.Amount.String())

	b, _ := fctx.Accounts.Get("b")
	seq, err = b.Formula(fctx)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
}

func TestTickSchedule(t *testing.T) {
	f := &File{}
	s, err := f.TickSchedule()
	require.NoError(t, err)
	assert.Nil(t, s)

	f.Schedule = "@monthly"
	s, err = f.TickSchedule()
	require.NoError(t, err)
	assert.Equal(t, "@monthly", s.Spec())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"CASHFLOW_POSTGRES_DSN=postgres://file\nCASHFLOW_PARALLELISM=4\nCASHFLOW_LOG_PRETTY=true\n"), 0o600))

	t.Setenv("CASHFLOW_POSTGRES_DSN", "postgres://env")
	t.Setenv("CASHFLOW_LOG_LEVEL", "debug")

	env, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", env.PostgresDSN)
	assert.Equal(t, "debug", env.LogLevel)
	assert.Equal(t, 4, env.Parallelism)
	assert.True(t, env.Pretty)
	assert.Equal(t, "cashflow_lab", env.MetricsNamespace)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	env, err := LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 1, env.Parallelism)
}
