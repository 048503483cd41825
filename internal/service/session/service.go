package session

import (
	"context"
	"sync"

	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/util/ident"
)

type lock struct {
	mtx  sync.Mutex
	refs int
}

// Service serialises history read-modify-write cycles per session.
// Sessions never block each other, and locks are dropped once idle.
type Service struct {
	store history.Store
	locks map[string]*lock
	mtx   sync.Mutex
}

func (s *Service) History(ctx context.Context, sessionId string) (history.History, error) {
	if err := ident.Valid(sessionId); err != nil {
		return nil, err
	}

	return s.store.Load(ctx, sessionId)
}

// Update loads the latest history, applies fn and saves the result while
// holding the session lock. Nothing is saved when fn fails.
func (s *Service) Update(ctx context.Context, sessionId string, fn func(history.History) (history.History, error)) (history.History, error) {
	if err := ident.Valid(sessionId); err != nil {
		return nil, err
	}

	unlock := s.lock(sessionId)
	defer unlock()

	current, err := s.store.Load(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, sessionId, next); err != nil {
		return nil, err
	}

	return next, nil
}

// Append records turns at the end of the session's history.
func (s *Service) Append(ctx context.Context, sessionId string, turns ...history.Turn) (history.History, error) {
	return s.Update(ctx, sessionId, func(h history.History) (history.History, error) {
		return h.Append(turns...), nil
	})
}

func (s *Service) lock(sessionId string) func() {
	s.mtx.Lock()
	l, ok := s.locks[sessionId]
	if !ok {
		l = &lock{}
		s.locks[sessionId] = l
	}
	l.refs++
	s.mtx.Unlock()

	l.mtx.Lock()

	return func() {
		l.mtx.Unlock()

		s.mtx.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionId)
		}
		s.mtx.Unlock()
	}
}

func New(store history.Store) *Service {
	return &Service{
		store: store,
		locks: map[string]*lock{},
		mtx:   sync.Mutex{},
	}
}
