package service

import (
	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	"github.com/aaronukgarcia/prixsix/internal/domain/scoring"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPageSize sets the default number of rows per page.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxPageSize caps caller-requested page sizes.
func WithMaxPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithFetchWorkers sets the number of concurrent event fetches.
func WithFetchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchWorkers = n
		}
	}
}

// WithCacheSize bounds the score-record cache. Zero or less is unbounded.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		s.cacheSize = n
	}
}

// WithScoringTable sets the point table. Invalid tables are ignored.
func WithScoringTable(t scoring.Table) Option {
	return func(s *Service) {
		if t.Validate() == nil {
			s.table = t
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
