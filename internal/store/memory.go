package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type MemoryStore struct {
	docs map[string]Document
	mu   sync.RWMutex
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
		now:  time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return clone(doc), nil
}

func (s *MemoryStore) Put(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.docs[doc.ID]; ok && doc.Version <= current.Version {
		return fmt.Errorf("put %s at version %d, stored %d: %w", doc.ID, doc.Version, current.Version, ErrVersionConflict)
	}
	doc = clone(doc)
	doc.UpdatedAt = s.now()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.docs, id)
	return nil
}

func clone(doc Document) Document {
	doc.Data = append([]byte(nil), doc.Data...)
	return doc
}
