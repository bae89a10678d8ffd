package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"

	"github.com/sirupsen/logrus"
)

const (
	defaultCacheTTL           = 5 * time.Second
	defaultMinRequestInterval = time.Second
)

var _ UpdateLoader = (*RemoteStore)(nil)

type RemoteStoreConfig struct {
	// CacheTTL is how long a successfully loaded table is served without a network call.
	CacheTTL time.Duration
	// MinRequestInterval is the minimum spacing between two calls to the document service.
	MinRequestInterval time.Duration
}

// RemoteStore puts a read cache and request spacing in front of a rate-limited document
// service. Reads never fail: they fall back to the last good table or an empty one.
// Writes and LoadForUpdate wait out the spacing, and any failure is returned as
// entity.ErrPersistenceUnavailable.
type RemoteStore struct {
	client      DocumentClient
	cacheTTL    time.Duration
	minInterval time.Duration
	log         *logrus.Entry

	mu          sync.Mutex
	cache       entity.WaitlistTable
	cachedAt    time.Time
	lastRequest time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRemoteStore wraps client. A nil client means the backend has no credentials: loads
// return an empty table and saves fail.
func NewRemoteStore(backend string, client DocumentClient, cfg RemoteStoreConfig) *RemoteStore {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.MinRequestInterval < 0 {
		cfg.MinRequestInterval = defaultMinRequestInterval
	}

	return &RemoteStore{
		client:      client,
		cacheTTL:    cfg.CacheTTL,
		minInterval: cfg.MinRequestInterval,
		log:         logrus.WithField("backend", backend),
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func (s *RemoteStore) Configured() bool {
	return s.client != nil
}

func (s *RemoteStore) Load(ctx context.Context) (entity.WaitlistTable, error) {
	if s.client == nil {
		return entity.WaitlistTable{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cache != nil && now.Sub(s.cachedAt) < s.cacheTTL {
		return s.cache.Clone(), nil
	}

	if !s.lastRequest.IsZero() && now.Sub(s.lastRequest) < s.minInterval {
		s.log.Debug("Waitlist read throttled, serving cached table")
		return s.cachedOrEmpty(), nil
	}

	s.lastRequest = now
	table, err := s.client.Fetch(ctx)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrDocumentNotFound):
			s.log.Info("Waitlist document does not exist yet, starting empty")
			return entity.WaitlistTable{}, nil
		case errors.Is(err, entity.ErrRateLimited):
			s.log.Warn("Waitlist backend rate limited the read, serving cached table")
		default:
			s.log.WithError(err).Warn("Waitlist read failed, serving cached table")
		}
		return s.cachedOrEmpty(), nil
	}

	if table == nil {
		table = entity.WaitlistTable{}
	}
	s.cache = table
	s.cachedAt = now
	return table.Clone(), nil
}

// LoadForUpdate is the strict load used before a write. A fresh cache is served as is;
// otherwise it waits out the request spacing and fetches. Not-found is an empty table,
// any other failure is entity.ErrPersistenceUnavailable.
func (s *RemoteStore) LoadForUpdate(ctx context.Context) (entity.WaitlistTable, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: remote backend credentials are not configured", entity.ErrPersistenceUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Sub(s.cachedAt) < s.cacheTTL {
		return s.cache.Clone(), nil
	}

	if err := s.waitForSpacing(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
	}

	s.lastRequest = s.now()
	table, err := s.client.Fetch(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrDocumentNotFound) {
			return entity.WaitlistTable{}, nil
		}
		s.log.WithError(err).Warn("Waitlist read before write failed")
		return nil, fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
	}

	if table == nil {
		table = entity.WaitlistTable{}
	}
	s.cache = table
	s.cachedAt = s.now()
	return table.Clone(), nil
}

func (s *RemoteStore) Save(ctx context.Context, table entity.WaitlistTable) error {
	if s.client == nil {
		return fmt.Errorf("%w: remote backend credentials are not configured", entity.ErrPersistenceUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitForSpacing(ctx); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
	}

	snapshot := table.Clone()
	s.lastRequest = s.now()
	if err := s.client.Replace(ctx, snapshot); err != nil {
		s.log.WithError(err).Error("Waitlist write failed")
		return fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
	}

	s.cache = snapshot
	s.cachedAt = s.now()
	return nil
}

// waitForSpacing blocks until MinRequestInterval has passed since the last request.
// Callers hold s.mu.
func (s *RemoteStore) waitForSpacing(ctx context.Context) error {
	if s.lastRequest.IsZero() {
		return nil
	}
	wait := s.minInterval - s.now().Sub(s.lastRequest)
	if wait <= 0 {
		return nil
	}
	s.log.WithField("wait", wait).Debug("Delaying waitlist request to respect request spacing")
	return s.sleep(ctx, wait)
}

func (s *RemoteStore) cachedOrEmpty() entity.WaitlistTable {
	if s.cache == nil {
		return entity.WaitlistTable{}
	}
	return s.cache.Clone()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
