package auth

import (
	"context"
	"sync"

	"github.com/ayush/partners-api/internal/models"
	"github.com/ayush/partners-api/internal/store"
)

// fakeStore is an in-memory AccountStore.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int64
	err    error
	finds  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*models.User{}, nextID: 1}
}

// add stores a user with the given plaintext password hashed.
func (s *fakeStore) add(id int64, username, password string) *models.User {
	hash, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := &models.User{ID: id, Username: username, Email: username + "@example.com", PasswordHash: hash, IsActive: true}
	s.mu.Lock()
	s.users[username] = u
	s.mu.Unlock()
	return u
}

func (s *fakeStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, store.ErrConflict
		}
	}
	u.ID = s.nextID
	s.nextID++
	cp := *u
	s.users[u.Username] = &cp
	return u, nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}
