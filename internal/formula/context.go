// Package formula composes declarative stages into Formulas that turn a
// simulation Context into a dated action Sequence.
package formula

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
)

// Context is the read-only simulation parameters shared by every formula
// evaluation of one run. Only Account.Value changes during resolution.
type Context struct {
	Accounts *Registry
	Start    time.Time
	End      time.Time
}

// NewContext creates a context. A nil registry is replaced by an empty one.
func NewContext(accounts *Registry, start, end time.Time) *Context {
	if accounts == nil {
		accounts = NewRegistry()
	}
	return &Context{Accounts: accounts, Start: start, End: end}
}

// Account is the simulation state of one account.
type Account struct {
	ID      string
	Base    domain.AccountBase
	Initial decimal.Decimal
	Value   decimal.Decimal // running balance, written by the resolver only
	Formula Formula         // nil generates no actions
}

// Registry is an arena of accounts in registration order.
// Accounts are addressed by index; ids map to indices.
type Registry struct {
	accounts []Account
	index    map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add registers an account with its starting balance.
// Returns ErrDuplicateAccount if id is already registered.
func (r *Registry) Add(id string, initial decimal.Decimal, base domain.AccountBase, f Formula) error {
	if id == "" {
		return fmt.Errorf("%w: empty account id", domain.ErrConfiguration)
	}
	if _, exists := r.index[id]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateAccount, id)
	}

	r.index[id] = len(r.accounts)
	r.accounts = append(r.accounts, Account{
		ID:      id,
		Base:    base,
		Initial: initial,
		Value:   initial,
		Formula: f,
	})
	return nil
}

// Len returns the number of accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

// IDs returns account ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.accounts))
	for i := range r.accounts {
		ids[i] = r.accounts[i].ID
	}
	return ids
}

// Index returns the arena index of id.
func (r *Registry) Index(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// At returns the account at arena index i.
func (r *Registry) At(i int) *Account {
	return &r.accounts[i]
}

// Get returns the account registered under id.
func (r *Registry) Get(id string) (*Account, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.accounts[i], true
}

// Reset restores every account value to its starting balance.
func (r *Registry) Reset() {
	for i := range r.accounts {
		r.accounts[i].Value = r.accounts[i].Initial
	}
}
