package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Prediction is the classifier's answer for one utterance. Confidence is the
// largest value in Probabilities.
type Prediction struct {
	Label         string
	Confidence    float64
	Probabilities map[string]float64
}

// Classifier predicts an intent label for free text.
type Classifier interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// Model is an immutable, versioned classifier together with the corpus its
// replies come from.
type Model struct {
	Version    string
	TrainedAt  time.Time
	Backend    string
	Classifier Classifier
	Corpus     *Corpus
}

// Builder constructs a fresh Model, e.g. by retraining from the corpus file.
type Builder func(ctx context.Context) (*Model, error)

// ErrNoBuilder is returned by Reload when the registry was created without a builder.
var ErrNoBuilder = errors.New("nlu: no model builder configured")

// Registry holds the live model behind an atomic pointer. Readers take one
// snapshot per turn; reloads build a new model and swap it in whole.
type Registry struct {
	current atomic.Pointer[Model]
	build   Builder
	reload  sync.Mutex
	seq     int
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. Call Reload or Swap to install a model.
func NewRegistry(build Builder, logger *slog.Logger) *Registry {
	return &Registry{build: build, logger: logger.With("component", "nlu")}
}

// Current returns the live model, or nil when none is installed.
func (r *Registry) Current() *Model {
	return r.current.Load()
}

// Swap installs m and returns the model it replaced.
func (r *Registry) Swap(m *Model) *Model {
	return r.current.Swap(m)
}

// Reload builds a new model and swaps it in. The previous model keeps serving
// until the new one is ready; on failure it stays live.
func (r *Registry) Reload(ctx context.Context) (*Model, error) {
	if r.build == nil {
		return nil, ErrNoBuilder
	}
	r.reload.Lock()
	defer r.reload.Unlock()

	started := time.Now()
	m, err := r.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	r.seq++
	if m.Version == "" {
		m.Version = fmt.Sprintf("v%d-%s", r.seq, started.UTC().Format("20060102T150405"))
	}
	if m.TrainedAt.IsZero() {
		m.TrainedAt = started
	}
	prev := r.Swap(m)

	attrs := []any{"version", m.Version, "backend", m.Backend, "took", time.Since(started)}
	if prev != nil {
		attrs = append(attrs, "previous", prev.Version)
	}
	r.logger.Info("classifier model installed", attrs...)
	return m, nil
}
