package storer

import (
	"context"
	"errors"
)

// ErrExists is returned when an index is saved twice for one document.
var ErrExists = errors.New("index already exists")

// Storer persists the embedded chunks of a document. A document's records are
// written once by Save and never change afterwards.
type Storer interface {
	Save(ctx context.Context, documentId string, records []Record) error
	Exists(ctx context.Context, documentId string) (bool, error)
	Search(ctx context.Context, documentId string, vector []float32, limit int) ([]Record, error)
}
