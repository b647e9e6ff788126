// Package config loads scenario files and process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/idhash"
)

// DateLayout is the calendar date format used in scenario files.
const DateLayout = "2006-01-02"

var validate = validator.New()

// File is a scenario file.
type File struct {
	Name        string        `yaml:"name" validate:"required"`
	Description string        `yaml:"description"`
	Start       string        `yaml:"start" validate:"required,datetime=2006-01-02"`
	End         string        `yaml:"end" validate:"required,datetime=2006-01-02"`
	Resolution  string        `yaml:"resolution" default:"daily" validate:"required"`
	Schedule    string        `yaml:"schedule"` // optional cron tick cadence, overrides resolution
	Interest    string        `yaml:"interest" default:"none" validate:"oneof=none daily_simple"`
	Parallelism int           `yaml:"parallelism" default:"1" validate:"gte=1,lte=64"`
	Accounts    []AccountSpec `yaml:"accounts" validate:"required,min=1,unique=ID,dive"`
}

// AccountSpec declares one account and its formula.
type AccountSpec struct {
	ID           string        `yaml:"id" validate:"required"`
	Name         string        `yaml:"name"`
	InterestRate string        `yaml:"interest_rate" default:"0" validate:"numeric"`
	Initial      string        `yaml:"initial" default:"0" validate:"numeric"`
	Formula      []StageSpec   `yaml:"formula" validate:"dive"`
	Formulas     [][]StageSpec `yaml:"formulas" validate:"dive,min=1,dive"`
}

// StageSpec is one pipeline stage. Exactly one field must be set.
type StageSpec struct {
	Every        string        `yaml:"every"`
	EveryBetween *BetweenSpec  `yaml:"every_between"`
	Schedule     string        `yaml:"schedule"`
	Dates        []string      `yaml:"dates" validate:"omitempty,dive,datetime=2006-01-02"`
	Skip         *int          `yaml:"skip" validate:"omitempty,gte=0"`
	Take         *int          `yaml:"take" validate:"omitempty,gte=0"`
	Within       *WindowSpec   `yaml:"within"`
	Deposit      string        `yaml:"deposit" validate:"omitempty,numeric"`
	Withdraw     string        `yaml:"withdraw" validate:"omitempty,numeric"`
	Fee          string        `yaml:"fee" validate:"omitempty,numeric"`
	Transfer     *TransferSpec `yaml:"transfer"`
	Scale        string        `yaml:"scale" validate:"omitempty,numeric"`
	Shift        *int          `yaml:"shift"`
	When         string        `yaml:"when"`
	Note         string        `yaml:"note"`
}

// BetweenSpec samples a sub-window at a frequency.
type BetweenSpec struct {
	Frequency string `yaml:"frequency" validate:"required"`
	From      string `yaml:"from" validate:"required,datetime=2006-01-02"`
	To        string `yaml:"to" validate:"required,datetime=2006-01-02"`
}

// WindowSpec is a [from, to) date window.
type WindowSpec struct {
	From string `yaml:"from" validate:"required,datetime=2006-01-02"`
	To   string `yaml:"to" validate:"required,datetime=2006-01-02"`
}

// TransferSpec moves an amount to another account.
type TransferSpec struct {
	Amount string `yaml:"amount" validate:"required,numeric"`
	To     string `yaml:"to" validate:"required"`
}

// Load reads and validates a scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode scenario: %v", domain.ErrConfiguration, err)
	}

	if err := defaults.Set(&f); err != nil {
		return nil, fmt.Errorf("%w: apply defaults: %v", domain.ErrConfiguration, err)
	}
	for i := range f.Accounts {
		if err := defaults.Set(&f.Accounts[i]); err != nil {
			return nil, fmt.Errorf("%w: apply account defaults: %v", domain.ErrConfiguration, err)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks struct rules and per-stage shape.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, describe(err))
	}

	for _, acc := range f.Accounts {
		for _, stages := range acc.stageLists() {
			for i, st := range stages {
				if n := st.fieldsSet(); n != 1 {
					return fmt.Errorf("%w: account %q stage %d sets %d keys, want exactly 1",
						domain.ErrConfiguration, acc.ID, i, n)
				}
			}
		}
	}
	return nil
}

// Fingerprint hashes every key that shapes the results: window, cadence,
// interest model and accounts with their formulas. Description and
// parallelism are left out.
func (f *File) Fingerprint() (string, error) {
	canonical := *f
	canonical.Description = ""
	canonical.Parallelism = 0

	data, err := yaml.Marshal(&canonical)
	if err != nil {
		return "", fmt.Errorf("encode scenario: %w", err)
	}
	return idhash.ContentHash(data), nil
}

func (a AccountSpec) stageLists() [][]StageSpec {
	lists := make([][]StageSpec, 0, len(a.Formulas)+1)
	if len(a.Formula) > 0 {
		lists = append(lists, a.Formula)
	}
	return append(lists, a.Formulas...)
}

func (s StageSpec) fieldsSet() int {
	set := []bool{
		s.Every != "",
		s.EveryBetween != nil,
		s.Schedule != "",
		len(s.Dates) > 0,
		s.Skip != nil,
		s.Take != nil,
		s.Within != nil,
		s.Deposit != "",
		s.Withdraw != "",
		s.Fee != "",
		s.Transfer != nil,
		s.Scale != "",
		s.Shift != nil,
		s.When != "",
		s.Note != "",
	}
	n := 0
	for _, ok := range set {
		if ok {
			n++
		}
	}
	return n
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", e.Namespace(), e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
