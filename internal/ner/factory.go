package ner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/model"
)

// NewBackend constructs the NER backend named by cfg.Backend.
//
// "auto" probes the annotator service, then the token-classification
// service, and falls back to the deterministic heuristic when neither is
// reachable. A pinned backend propagates its construction error instead of
// falling back, and "none" disables NER entirely (nil backend).
func NewBackend(cfg model.NERConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "auto":
		if cfg.AnnotatorURL != "" {
			backend, err := NewAnnotatorBackend(cfg.AnnotatorURL, cfg.Timeout)
			if err == nil {
				return backend, nil
			}
			logger.Warn("annotator backend unavailable, trying next", zap.Error(err))
		}
		if cfg.TokenClsURL != "" {
			backend, err := NewTokenClsBackend(cfg.TokenClsURL, cfg.Timeout)
			if err == nil {
				return backend, nil
			}
			logger.Warn("tokencls backend unavailable, trying next", zap.Error(err))
		}
		logger.Info("using heuristic ner backend")
		return NewSimpleBackend(), nil
	case "annotator":
		return NewAnnotatorBackend(cfg.AnnotatorURL, cfg.Timeout)
	case "tokencls":
		return NewTokenClsBackend(cfg.TokenClsURL, cfg.Timeout)
	case "simple":
		return NewSimpleBackend(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ner backend %q", cfg.Backend)
	}
}
