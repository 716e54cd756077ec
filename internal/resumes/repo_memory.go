package resumes

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]Record
	byUser  map[int64]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]Record), byUser: make(map[int64]int64)}
}

func (s *MemoryStore) Upsert(ctx context.Context, userID int64, resume StructuredResume) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := s.byUser[userID]; ok {
		rec := s.records[id]
		rec.Resume = resume.Normalize()
		rec.UpdatedAt = now
		s.records[id] = rec
		return rec, nil
	}
	s.nextID++
	rec := Record{
		ID:        s.nextID,
		UserID:    userID,
		Resume:    resume.Normalize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[rec.ID] = rec
	s.byUser[userID] = rec.ID
	return rec, nil
}

func (s *MemoryStore) GetByUserID(ctx context.Context, userID int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.records[id], nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) AttachSource(ctx context.Context, userID int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	if !ok {
		return ErrNotFound
	}
	rec := s.records[id]
	rec.SourceKey = key
	s.records[id] = rec
	return nil
}

// Count is the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
