package loader

import (
	"github.com/aaronukgarcia/prixsix/internal/adapters/cache"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithWorkers sets how many events are fetched concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithCache serves events from c and stores fetched events in it.
func WithCache(c *cache.Cache) Option {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}
