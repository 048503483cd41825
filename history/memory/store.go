package memory

import (
	"context"
	"sync"

	"github.com/w-h-a/pdfrag/history"
)

type memoryStore struct {
	options  history.Options
	sessions map[string]history.History
	mtx      sync.RWMutex
}

func (s *memoryStore) Load(ctx context.Context, sessionId string) (history.History, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return history.History{}.Append(s.sessions[sessionId]...), nil
}

func (s *memoryStore) Save(ctx context.Context, sessionId string, h history.History) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.sessions[sessionId] = history.History{}.Append(h...)

	return nil
}

func NewStore(opts ...history.Option) history.Store {
	options := history.NewOptions(opts...)

	s := &memoryStore{
		options:  options,
		sessions: map[string]history.History{},
		mtx:      sync.RWMutex{},
	}

	return s
}
