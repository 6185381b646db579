package identity

import (
	"context"
	"errors"
	"time"
)

// Manager hands out a usable account, reusing a stored one while its token
// is valid and running the device-code flow otherwise.
type Manager struct {
	Provider *Provider
	Accounts *Accounts
	Now      func() time.Time
}

// NewManager creates a Manager.
func NewManager(p *Provider, accounts *Accounts) *Manager {
	return &Manager{Provider: p, Accounts: accounts, Now: time.Now}
}

// Login returns the default account when its token is still valid, otherwise
// signs in again and stores the result as the default.
func (m *Manager) Login(ctx context.Context, prompter Prompter) (Account, error) {
	acc, err := m.Accounts.Default()
	switch {
	case err == nil && acc.Valid(m.Now()):
		return acc, nil
	case err != nil && !errors.Is(err, ErrNoAccount):
		return Account{}, err
	}

	acc, err = m.Provider.Authenticate(ctx, prompter)
	if err != nil {
		return Account{}, err
	}

	if err := m.Accounts.Put(acc, true); err != nil {
		return Account{}, err
	}

	return acc, nil
}
