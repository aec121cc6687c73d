package auth

import (
	"context"
	"sync"
	"time"

	"saha.org/internal/permission"
)

// UserStore loads panel accounts.
type UserStore interface {
	FindByLogin(ctx context.Context, emailOrPhone string) (*User, error)
	Find(ctx context.Context, id int64) (*User, error)
	TouchLogin(ctx context.Context, id int64) error
}

// GrantStore loads the view grants of a permission profile.
type GrantStore interface {
	GrantsForProfile(ctx context.Context, profileID int64) ([]permission.Grant, error)
}

// MemoryStore is an in-process UserStore and GrantStore.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]*User
	grants map[int64][]permission.Grant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[int64]*User{}, grants: map[int64][]permission.Grant{}}
}

// PutUser adds or replaces a user.
func (m *MemoryStore) PutUser(u User) {
	m.mu.Lock()
	m.users[u.ID] = &u
	m.mu.Unlock()
}

// PutGrants replaces the grants of a profile.
func (m *MemoryStore) PutGrants(profileID int64, grants []permission.Grant) {
	m.mu.Lock()
	m.grants[profileID] = append([]permission.Grant(nil), grants...)
	m.mu.Unlock()
}

func (m *MemoryStore) FindByLogin(_ context.Context, emailOrPhone string) (*User, error) {
	key := NormalizeLogin(emailOrPhone)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if NormalizeLogin(u.Email) == key || (u.Phone != "" && NormalizeLogin(u.Phone) == key) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Find(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) TouchLogin(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	return nil
}

func (m *MemoryStore) GrantsForProfile(_ context.Context, profileID int64) ([]permission.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]permission.Grant(nil), m.grants[profileID]...), nil
}
