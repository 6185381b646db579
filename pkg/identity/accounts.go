package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// expirySlack is how long before its expiry a token is considered stale.
const expirySlack = time.Minute

// Account is a signed-in Microsoft user with a Minecraft access token.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"access_token"` //nolint:gosec // persisted credential, not a hardcoded secret
	Expiry       time.Time `json:"expiry"`
	RefreshToken string    `json:"refresh_token,omitempty"` //nolint:gosec // persisted credential
}

// Valid reports whether the access token can still be used at now.
func (a Account) Valid(now time.Time) bool {
	return a.AccessToken != "" && now.Add(expirySlack).Before(a.Expiry)
}

type accountsFile struct {
	Default string             `json:"default,omitempty"`
	Users   map[string]Account `json:"users"`
}

// Accounts persists signed-in users to a JSON file. The whole file is read
// and rewritten on every call.
type Accounts struct {
	mu       sync.Mutex
	filePath string
}

// NewAccounts creates an Accounts store backed by filePath.
func NewAccounts(filePath string) *Accounts {
	return &Accounts{filePath: filePath}
}

// Put stores acc. The first stored account, or one stored with makeDefault,
// becomes the default.
func (s *Accounts) Put(acc Account, makeDefault bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	f.Users[acc.ID] = acc
	if makeDefault || f.Default == "" {
		f.Default = acc.ID
	}

	return s.persist(f)
}

// Get returns the account with the given id.
func (s *Accounts) Get(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Account{}, err
	}

	acc, ok := f.Users[id]
	if !ok {
		return Account{}, fmt.Errorf("identity: %w: %s", ErrNoAccount, id)
	}
	return acc, nil
}

// Default returns the default account.
func (s *Accounts) Default() (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Account{}, err
	}

	acc, ok := f.Users[f.Default]
	if !ok {
		return Account{}, fmt.Errorf("identity: %w", ErrNoAccount)
	}
	return acc, nil
}

// Names returns the stored account names, sorted.
func (s *Accounts) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Users))
	for _, u := range f.Users {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Accounts) load() (accountsFile, error) {
	f := accountsFile{Users: make(map[string]Account)}

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("identity: read accounts: %w", err)
	}

	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("identity: parse accounts: %w", err)
	}
	if f.Users == nil {
		f.Users = make(map[string]Account)
	}

	return f, nil
}

func (s *Accounts) persist(f accountsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: marshal accounts: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("identity: create accounts dir: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("identity: write accounts: %w", err)
	}

	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("identity: rename accounts: %w", err)
	}

	return nil
}
