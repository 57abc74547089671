package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version conflict")
)

// Document is the canonical copy of one game. Data holds the serialized
// snapshot; Version only ever increases.
type Document struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store keeps the canonical game documents. Put only accepts a document whose
// version is newer than the stored one.
type Store interface {
	Get(ctx context.Context, id string) (Document, error)
	Put(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
}
