package user

import "strings"

// Store exposes account lookup for HTTP handlers.
type Store interface {
	List() []User
	FindByLogin(login string) (User, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for local development.
type MemoryStore struct {
	items []User
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied users.
func NewMemoryStore(items []User) *MemoryStore {
	return &MemoryStore{items: append([]User(nil), items...)}
}

// List returns the known accounts.
func (s *MemoryStore) List() []User {
	return append([]User(nil), s.items...)
}

// FindByLogin looks up an account by username or email, case-insensitively.
func (s *MemoryStore) FindByLogin(login string) (User, bool) {
	login = strings.TrimSpace(login)
	if login == "" {
		return User{}, false
	}
	for _, item := range s.items {
		if strings.EqualFold(item.Username, login) || strings.EqualFold(item.Email, login) {
			return item, true
		}
	}
	return User{}, false
}
