// Package memory provides in-process UserStore and RoleStore
// implementations for tests, examples and single-node deployments.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/authcore"
)

// UserStore keeps users in maps guarded by one RWMutex. Usernames are
// case-sensitive; emails compare case-insensitively.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]authcore.User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]authcore.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUsername[username]
	return ok, nil
}

func (s *UserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[emailKey(email)]
	return ok, nil
}

// Save inserts or replaces the user with the same ID.
func (s *UserStore) Save(_ context.Context, user authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byID[user.ID]; ok {
		delete(s.byUsername, prev.Username)
		delete(s.byEmail, emailKey(prev.Email))
	}
	s.byID[user.ID] = cloneUser(user)
	s.byUsername[user.Username] = user.ID
	s.byEmail[emailKey(user.Email)] = user.ID
	return nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, u.Username)
	delete(s.byEmail, emailKey(u.Email))
	return nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// RoleStore is a fixed set of roles.
type RoleStore struct {
	mu    sync.RWMutex
	roles map[string]authcore.Role
}

// NewRoleStore returns a store holding roles.
func NewRoleStore(roles ...authcore.Role) *RoleStore {
	s := &RoleStore{roles: make(map[string]authcore.Role, len(roles))}
	for _, r := range roles {
		s.roles[r.Code] = r
	}
	return s
}

// Put adds or replaces a role.
func (s *RoleStore) Put(role authcore.Role) {
	s.mu.Lock()
	s.roles[role.Code] = role
	s.mu.Unlock()
}

func (s *RoleStore) FindByCode(_ context.Context, code string) (authcore.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[code]
	if !ok {
		return authcore.Role{}, authcore.ErrRoleNotFound
	}
	return r, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u authcore.User) authcore.User {
	u.Roles = append([]string(nil), u.Roles...)
	return u
}
