package store

import (
	"context"
	"sync"

	"github.com/ayush/user-auth-service/internal/models"
)

// MemoryStore keeps users in process memory. Uniqueness of username and
// email is enforced under the same lock as the write.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*models.User
	byUsername map[string]int64
	byEmail    map[string]int64
	order      []int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUsername[username]
	return ok, nil
}

func (s *MemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

// Save inserts u when u.ID is zero and otherwise updates the mutable fields
// of the stored user.
func (s *MemoryStore) Save(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		if _, ok := s.byUsername[u.Username]; ok {
			return nil, ErrUsernameTaken
		}
		if _, ok := s.byEmail[u.Email]; ok {
			return nil, ErrEmailTaken
		}

		s.nextID++
		stored := *u
		stored.ID = s.nextID
		s.byID[stored.ID] = &stored
		s.byUsername[stored.Username] = stored.ID
		s.byEmail[stored.Email] = stored.ID
		s.order = append(s.order, stored.ID)

		out := stored
		return &out, nil
	}

	stored, ok := s.byID[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	stored.PasswordHash = u.PasswordHash
	stored.IsActive = u.IsActive

	out := *stored
	return &out, nil
}

// FindAll returns users in insertion order.
func (s *MemoryStore) FindAll(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, *s.byID[id])
	}
	return users, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
