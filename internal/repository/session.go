package repository

import (
	"sync"

	"github.com/far4599/ytgrab/internal/models"
	lru "github.com/hashicorp/golang-lru"
)

// SessionRepository keeps per user state in memory. The least recently used
// sessions are dropped once capacity is reached.
type SessionRepository struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func NewSessionRepository(capacity int) (*SessionRepository, error) {
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{
		cache: cache,
	}, nil
}

// Get returns a copy of the session, or a fresh idle one when id is unknown.
func (r *SessionRepository) Get(id string) models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(id).Clone()
}

// Update applies fn to the stored session atomically and returns the result.
func (r *SessionRepository) Update(id string, fn func(s *models.Session)) models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.load(id)
	fn(s)
	r.cache.Add(id, s)

	return s.Clone()
}

func (r *SessionRepository) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Remove(id)
}

func (r *SessionRepository) Len() int {
	return r.cache.Len()
}

func (r *SessionRepository) load(id string) *models.Session {
	if v, ok := r.cache.Get(id); ok {
		if s, ok := v.(*models.Session); ok {
			return s
		}
		r.cache.Remove(id)
	}

	return &models.Session{ID: id, Stage: models.StageIdle}
}
