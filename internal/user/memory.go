package user

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a Store held in process memory. Uniqueness is enforced
// under a single mutex, so it behaves like the postgres store under races.
type MemoryStore struct {
	mu         sync.Mutex
	byID       map[string]*User
	byEmail    map[string]string
	byProvider map[Provider]map[string]string
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		byProvider: map[Provider]map[string]string{
			ProviderGoogle: {},
			ProviderApple:  {},
		},
		now: time.Now,
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *MemoryStore) FindByProviderID(_ context.Context, provider Provider, subject string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byProvider[provider][subject]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, nu NewUser) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nu.ProviderID != "" && !nu.Provider.Valid() {
		return nil, fmt.Errorf("user: unknown provider %q", nu.Provider)
	}

	email := strings.ToLower(nu.Email)
	if _, taken := s.byEmail[email]; taken {
		return nil, ErrConflict
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: nu.PasswordHash,
		ProviderIDs:  map[Provider]string{},
		CreatedAt:    s.now(),
	}
	u.UpdatedAt = u.CreatedAt

	if nu.ProviderID != "" {
		if _, taken := s.byProvider[nu.Provider][nu.ProviderID]; taken {
			return nil, ErrConflict
		}
		u.ProviderIDs[nu.Provider] = nu.ProviderID
		s.byProvider[nu.Provider][nu.ProviderID] = u.ID
	}

	s.byID[u.ID] = u
	s.byEmail[email] = u.ID

	return u.clone(), nil
}

func (s *MemoryStore) LinkProviderID(_ context.Context, userID string, provider Provider, subject string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !provider.Valid() {
		return nil, fmt.Errorf("user: unknown provider %q", provider)
	}

	u, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}

	switch current := u.ProviderIDs[provider]; {
	case current == subject:
		return u.clone(), nil
	case current != "":
		return nil, ErrAlreadyLinked
	}

	if owner, taken := s.byProvider[provider][subject]; taken && owner != userID {
		return nil, ErrConflict
	}

	u.ProviderIDs[provider] = subject
	u.UpdatedAt = s.now()
	s.byProvider[provider][subject] = u.ID

	return u.clone(), nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (u *User) clone() *User {
	c := *u
	c.ProviderIDs = make(map[Provider]string, len(u.ProviderIDs))
	for k, v := range u.ProviderIDs {
		c.ProviderIDs[k] = v
	}
	return &c
}
