package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/cryptox"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var fastArgon2 = cryptox.Argon2Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 8, KeyLen: 16}

func fastHasher(t *testing.T, scheme string) *PasswordHasher {
	t.Helper()
	return NewPasswordHasher(HasherOptions{Scheme: scheme, BcryptCost: bcrypt.MinCost, Argon2: fastArgon2}, logging.Nop{})
}

type fakeStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uuid.UUID]*models.User{}}
}

func (s *fakeStore) add(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}
