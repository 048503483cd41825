package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/util/ident"
)

// fileStore writes each session as <dir>/<session>.json holding a list of
// {"role","text"} objects.
type fileStore struct {
	options history.Options
	mtx     sync.Mutex
}

func (s *fileStore) Load(ctx context.Context, sessionId string) (history.History, error) {
	if err := ident.Valid(sessionId); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(sessionId))
	if errors.Is(err, os.ErrNotExist) {
		return history.History{}, nil
	}
	if err != nil {
		return nil, err
	}

	h := history.History{}
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", sessionId, err)
	}

	return h, nil
}

func (s *fileStore) Save(ctx context.Context, sessionId string, h history.History) error {
	if err := ident.Valid(sessionId); err != nil {
		return err
	}

	if h == nil {
		h = history.History{}
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	tmp, err := os.CreateTemp(s.options.Location, "."+sessionId+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path(sessionId))
}

func (s *fileStore) path(sessionId string) string {
	return filepath.Join(s.options.Location, sessionId+".json")
}

func NewStore(opts ...history.Option) history.Store {
	options := history.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "chat_histories"
	}

	if err := os.MkdirAll(options.Location, 0o755); err != nil {
		detail := "failed to create directory for file history store"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	s := &fileStore{
		options: options,
	}

	return s
}
