package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/w-h-a/pdfrag/storer"
)

type memoryStorer struct {
	options storer.Options
	indices map[string][]storer.Record
	mtx     sync.RWMutex
}

func (s *memoryStorer) Save(ctx context.Context, documentId string, records []storer.Record) error {
	now := time.Now().UTC()

	cpy := make([]storer.Record, len(records))
	for i, rec := range records {
		vec := make([]float32, len(rec.Embedding))
		copy(vec, rec.Embedding)

		cpy[i] = storer.Record{
			Id:         documentId + ":" + strconv.Itoa(i),
			DocumentId: documentId,
			Content:    rec.Content,
			Metadata:   storer.CopyMetadata(rec.Metadata),
			Embedding:  vec,
			CreatedAt:  now,
		}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.indices[documentId]; ok {
		return fmt.Errorf("%w: %s", storer.ErrExists, documentId)
	}

	s.indices[documentId] = cpy

	return nil
}

func (s *memoryStorer) Exists(ctx context.Context, documentId string) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, ok := s.indices[documentId]

	return ok, nil
}

func (s *memoryStorer) Search(ctx context.Context, documentId string, vector []float32, limit int) ([]storer.Record, error) {
	s.mtx.RLock()
	records := s.indices[documentId]
	s.mtx.RUnlock()

	ranked := storer.Rank(records, vector, limit)
	for i := range ranked {
		ranked[i].Metadata = storer.CopyMetadata(ranked[i].Metadata)
	}

	return ranked, nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	s := &memoryStorer{
		options: options,
		indices: map[string][]storer.Record{},
		mtx:     sync.RWMutex{},
	}

	return s
}
