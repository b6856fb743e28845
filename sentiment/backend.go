package sentiment

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClassifier builds the classifier selected by cfg.Backend.
// The returned close func is never nil.
func NewClassifier(cfg Config, logger *zap.Logger) (Classifier, func() error, error) {
	cfg.ApplyDefaults()
	switch cfg.Backend {
	case BackendLocal:
		local, err := NewLocalClassifier(cfg.Local, logger)
		if err != nil {
			return nil, func() error { return nil }, fmt.Errorf("init local classifier: %w", err)
		}
		return local, local.Close, nil
	default:
		remote := NewRemoteClassifier(cfg.Remote, WithLogger(logger))
		return remote, func() error { return nil }, nil
	}
}
