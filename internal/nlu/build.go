package nlu

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankbot/internal/metrics"
)

// Backends.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

// BuildConfig selects how models are built on reload.
type BuildConfig struct {
	Backend        string
	CorpusPath     string
	CorpusEncoding string
	OpenAI         OpenAIConfig
}

// NewBuilder returns a Builder that reloads the corpus from disk and trains or
// wires the configured backend on every call.
func NewBuilder(cfg BuildConfig, m *metrics.Metrics, logger *slog.Logger) Builder {
	return func(ctx context.Context) (*Model, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var corpus *Corpus
		if cfg.CorpusPath != "" {
			c, err := LoadCorpus(cfg.CorpusPath, cfg.CorpusEncoding)
			if err != nil {
				return nil, err
			}
			corpus = c
		}

		model := &Model{Backend: cfg.Backend, Corpus: corpus, TrainedAt: time.Now()}
		switch cfg.Backend {
		case BackendLocal, "":
			if corpus == nil {
				return nil, fmt.Errorf("local classifier needs CORPUS_PATH")
			}
			nb, err := TrainNaiveBayes(corpus)
			if err != nil {
				return nil, err
			}
			model.Backend = BackendLocal
			model.Classifier = nb
		case BackendOpenAI:
			oc := cfg.OpenAI
			if len(oc.Labels) == 0 {
				oc.Labels = corpus.Labels()
			}
			cl, err := NewOpenAIClassifier(oc, m, logger)
			if err != nil {
				return nil, err
			}
			model.Classifier = cl
		default:
			return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
		}
		return model, nil
	}
}
