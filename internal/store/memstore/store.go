package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/models"
)

// Store keeps memories and users in process memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	memories []models.Memory
	users    map[string]*models.User
}

func New() *Store {
	return &Store{
		users: make(map[string]*models.User),
	}
}

func (s *Store) CreateMemory(_ context.Context, m *models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	for _, existing := range s.memories {
		if existing.ID == m.ID {
			return store.ErrAlreadyExists
		}
	}

	cp := *m
	cp.Images = make([]models.Image, len(m.Images))
	copy(cp.Images, m.Images)
	for i := range cp.Images {
		cp.Images[i].MemoryID = cp.ID
		cp.Images[i].Position = i
	}
	s.memories = append(s.memories, cp)
	return nil
}

func (s *Store) ListMemories(_ context.Context) ([]models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Memory, 0, len(s.memories))
	for _, m := range s.memories {
		cp := m
		cp.Images = append([]models.Image(nil), m.Images...)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return store.ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	s.users[u.Username] = &cp
	return nil
}

func (s *Store) Close(context.Context) error { return nil }
