package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
)

// UserStore keeps user accounts in memory. Usernames are matched case-insensitively.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

var _ portsrepo.UserRepositoryFacade = (*UserStore)(nil)

func (s *UserStore) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
	}
	return &u, nil
}

func (s *UserStore) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
}

func (s *UserStore) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if id != user.UserID && strings.EqualFold(u.Username, user.Username) {
			return fmt.Errorf("%w: username %s", apperrors.ErrDuplicate, user.Username)
		}
	}
	s.users[user.UserID] = user
	return nil
}
