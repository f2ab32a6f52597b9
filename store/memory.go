package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Records implementation with the same contract as
// the Mongo one. It backs tests and local development without a database.
type Memory[T any, R RecordPtr[T]] struct {
	mu   sync.RWMutex
	data map[string]map[string]T
}

func NewMemory[T any, R RecordPtr[T]]() *Memory[T, R] {
	return &Memory[T, R]{data: make(map[string]map[string]T)}
}

func (s *Memory[T, R]) Put(_ context.Context, rec R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := rec.RecordOwner()
	if s.data[owner] == nil {
		s.data[owner] = make(map[string]T)
	}
	if _, exists := s.data[owner][rec.RecordKey()]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, owner, rec.RecordKey())
	}
	s.data[owner][rec.RecordKey()] = *rec
	return nil
}

func (s *Memory[T, R]) QueryActive(_ context.Context, ownerID string) ([]R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []R
	for key := range s.data[ownerID] {
		value := s.data[ownerID][key]
		rec := R(&value)
		if !rec.RecordDeleted() {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordKey() > recs[j].RecordKey()
	})
	return recs, nil
}

func (s *Memory[T, R]) GetExact(_ context.Context, ownerID, versionKey string) (R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[ownerID][versionKey]
	if !ok {
		return nil, ErrNotFound
	}
	return R(&value), nil
}

func (s *Memory[T, R]) Latest(ctx context.Context, ownerID string) (R, error) {
	recs, err := s.QueryActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

func (s *Memory[T, R]) MarkDeleted(_ context.Context, ownerID, versionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.data[ownerID][versionKey]
	if !ok {
		return ErrNotFound
	}
	rec := R(&value)
	rec.SetRecordDeleted(true)
	s.data[ownerID][versionKey] = value
	return nil
}

func (s *Memory[T, R]) Update(_ context.Context, rec R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := rec.RecordOwner()
	if _, ok := s.data[owner][rec.RecordKey()]; !ok {
		return ErrNotFound
	}
	s.data[owner][rec.RecordKey()] = *rec
	return nil
}
