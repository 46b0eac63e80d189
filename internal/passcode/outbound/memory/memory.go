// Package memory keeps passcodes and accounts in process memory. It suits
// single-node deployments and tests; state is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
)

type pairKey struct {
	identifier string
	channel    entity.Channel
}

type Store struct {
	mu        sync.Mutex
	passcodes map[pairKey]entity.Passcode
	accounts  map[pairKey]entity.Account
}

func New() *Store {
	return &Store{
		passcodes: map[pairKey]entity.Passcode{},
		accounts:  map[pairKey]entity.Account{},
	}
}

func (s *Store) ReplacePasscode(ctx context.Context, p entity.Passcode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.passcodes[pairKey{p.Identifier, p.Channel}] = p
	s.mu.Unlock()
	return nil
}

func (s *Store) GetActivePasscode(ctx context.Context, identifier string, ch entity.Channel, now time.Time) (*entity.Passcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.passcodes[pairKey{identifier, ch}]
	if !ok || !p.IsActive(now) {
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

// ClaimPasscode consumes the passcode with id if it is still active and
// current for its pair.
func (s *Store) ClaimPasscode(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, p := range s.passcodes {
		if p.ID != id {
			continue
		}
		if !p.IsActive(now) {
			return goerror.ErrNotFound
		}
		delete(s.passcodes, k)
		return nil
	}
	return goerror.ErrNotFound
}

func (s *Store) DeleteExpiredPasscodes(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, p := range s.passcodes {
		if !p.ExpiresAt.After(before) {
			delete(s.passcodes, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) GetAccount(ctx context.Context, identifier string, ch entity.Channel) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[pairKey{identifier, ch}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{a.Identifier, a.Channel}
	if _, ok := s.accounts[k]; ok {
		return goerror.ErrConflict
	}
	s.accounts[k] = a
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}
