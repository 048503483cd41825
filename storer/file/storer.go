package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/w-h-a/pdfrag/storer"
	"github.com/w-h-a/pdfrag/util/ident"
)

const suffix = ".index.json"

type blob struct {
	DocumentId string  `json:"document_id"`
	CreatedAt  string  `json:"created_at"`
	Chunks     []chunk `json:"chunks"`
}

type chunk struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"embedding"`
}

// fileStorer keeps one JSON blob per document under the configured directory.
type fileStorer struct {
	options storer.Options
	cache   map[string][]storer.Record
	mtx     sync.RWMutex
}

func (s *fileStorer) Save(ctx context.Context, documentId string, records []storer.Record) error {
	if err := ident.Valid(documentId); err != nil {
		return err
	}

	b := blob{
		DocumentId: documentId,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Chunks:     make([]chunk, 0, len(records)),
	}

	for _, rec := range records {
		b.Chunks = append(b.Chunks, chunk{
			Content:   rec.Content,
			Metadata:  rec.Metadata,
			Embedding: rec.Embedding,
		})
	}

	data, err := json.Marshal(b)
	if err != nil {
		return err
	}

	tmp, err := s.stage(documentId, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	path := s.path(documentId)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", storer.ErrExists, documentId)
	}

	return os.Rename(tmp, path)
}

// stage writes data to a temp file next to the index without taking the lock
// and returns its path.
func (s *fileStorer) stage(documentId string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.options.Location, "."+documentId+"-*")
	if err != nil {
		return "", err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

func (s *fileStorer) Exists(ctx context.Context, documentId string) (bool, error) {
	if ident.Valid(documentId) != nil {
		return false, nil
	}

	_, err := os.Stat(s.path(documentId))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

func (s *fileStorer) Search(ctx context.Context, documentId string, vector []float32, limit int) ([]storer.Record, error) {
	records, err := s.load(documentId)
	if err != nil {
		return nil, err
	}

	ranked := storer.Rank(records, vector, limit)
	for i := range ranked {
		ranked[i].Metadata = storer.CopyMetadata(ranked[i].Metadata)
	}

	return ranked, nil
}

func (s *fileStorer) load(documentId string) ([]storer.Record, error) {
	if ident.Valid(documentId) != nil {
		return nil, nil
	}

	s.mtx.RLock()
	records, ok := s.cache[documentId]
	s.mtx.RUnlock()

	if ok {
		return records, nil
	}

	data, err := os.ReadFile(s.path(documentId))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", documentId, err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, b.CreatedAt)

	records = make([]storer.Record, 0, len(b.Chunks))
	for i, c := range b.Chunks {
		records = append(records, storer.Record{
			Id:         documentId + ":" + strconv.Itoa(i),
			DocumentId: documentId,
			Content:    c.Content,
			Metadata:   c.Metadata,
			Embedding:  c.Embedding,
			CreatedAt:  createdAt,
		})
	}

	s.mtx.Lock()
	s.cache[documentId] = records
	s.mtx.Unlock()

	return records, nil
}

func (s *fileStorer) path(documentId string) string {
	return filepath.Join(s.options.Location, documentId+suffix)
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "vector_stores"
	}

	if err := os.MkdirAll(options.Location, 0o755); err != nil {
		detail := "failed to create directory for file storer"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	s := &fileStorer{
		options: options,
		cache:   map[string][]storer.Record{},
		mtx:     sync.RWMutex{},
	}

	return s
}
