package analytics

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
)

// Store holds the rides served to the dashboard. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	rides   []Ride
	loaded  bool
	metrics *observability.Metrics
}

// NewStore creates an empty Store.
func NewStore(metrics *observability.Metrics) *Store {
	return &Store{metrics: metrics}
}

// Replace swaps in the rides derived from a consolidated table.
func (s *Store) Replace(t *domain.Table) {
	rides := Derive(domain.TripsFromTable(t))

	s.mu.Lock()
	s.rides = rides
	s.loaded = true
	s.mu.Unlock()

	s.metrics.DatasetRows.Set(float64(len(rides)))
}

// Dashboard builds every view for f.
func (s *Store) Dashboard(f Filter) Dashboard {
	s.mu.RLock()
	rides := s.rides
	s.mu.RUnlock()

	s.metrics.DashboardQueries.Inc()
	return Build(rides, f)
}

// CheckReadiness returns nil once a dataset has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return errors.New("dataset not loaded")
	}
	return nil
}
