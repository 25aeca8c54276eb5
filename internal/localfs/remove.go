// Package localfs holds local filesystem helpers shared by the transfer engines.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Remover deletes a file.
type Remover interface {
	Remove(name string) error
}

// RetryConfig bounds the delete retries.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig returns the delay bounds used for locked files.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// RemoveWithRetry deletes path, retrying with exponential backoff while the
// file is held open elsewhere. A missing file fails immediately.
// Zero fields in cfg take their defaults.
func RemoveWithRetry(ctx context.Context, fsys Remover, path string, cfg RetryConfig) error {
	def := DefaultRetryConfig()
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = def.MaxElapsedTime
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = cfg.MaxElapsedTime

	err := backoff.Retry(func() error {
		err := fsys.Remove(path)
		if err != nil && errors.Is(err, os.ErrNotExist) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
