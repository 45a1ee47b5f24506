package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bankbot/internal/convo"
	"bankbot/internal/metrics"
)

// TurnProcessor runs one conversation turn against a context.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, st *convo.State, text string) convo.Result
}

// Manager owns every session's context. Turns for the same session are
// serialised; turns for different sessions run concurrently.
type Manager struct {
	store   Store
	engine  TurnProcessor
	locks   keyedMutex
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewManager(store Store, engine TurnProcessor, metrics *metrics.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		engine:  engine,
		locks:   keyedMutex{locks: make(map[string]*refLock)},
		metrics: metrics,
		logger:  logger.With("component", "session"),
		now:     time.Now,
	}
}

// Turn loads the session context, processes text and saves the result. A
// different account on an existing session starts a fresh context.
func (m *Manager) Turn(ctx context.Context, sessionID, account, text string) (convo.Result, error) {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	st, err := m.store.Load(ctx, sessionID)
	if err != nil {
		m.metrics.Errors.WithLabelValues("session_load").Inc()
		return convo.Result{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	switch {
	case st == nil:
		st = convo.NewState(account)
	case account != "" && st.Identity != "" && st.Identity != account:
		m.logger.Info("session identity changed, starting fresh context", "session", sessionID)
		st = convo.NewState(account)
	case st.Identity == "":
		st.Identity = account
	}

	res := m.engine.ProcessTurn(ctx, st, text)
	st.UpdatedAt = m.now()
	if err := m.store.Save(ctx, sessionID, st); err != nil {
		m.metrics.Errors.WithLabelValues("session_save").Inc()
		m.logger.Warn("failed saving session", "session", sessionID, "error", err)
	}
	return res, nil
}

// Reset drops the session context, e.g. on logout.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	unlock := m.locks.Lock(sessionID)
	defer unlock()
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// State returns the stored context for a session, or nil.
func (m *Manager) State(ctx context.Context, sessionID string) (*convo.State, error) {
	unlock := m.locks.Lock(sessionID)
	defer unlock()
	return m.store.Load(ctx, sessionID)
}

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
