// Package services – SweepService
//
// This file implements the background expiration sweep. The sweep is a
// correctness backstop, not the source of truth: reads evaluate coverage
// windows lazily, so a record is never served stale even if the sweep lags.
// What the sweep buys is that listings, stats, and external consumers of the
// persisted status column converge without waiting for a read to land on
// each record.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/repo"
)

var (
	sweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warranty_sweep_runs_total",
		Help: "Total number of completed expiration sweep passes.",
	})
	sweepExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warranty_sweep_expired_total",
		Help: "Total number of records flipped to EXPIRED by the sweep.",
	})
)

// SweepService periodically flips ACTIVE records whose coverage window has
// closed to EXPIRED. Safe for concurrent use; every write is version-gated,
// so overlapping sweeps (or a sweep racing a foreground write) simply skip
// records someone else already settled.
type SweepService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// BatchSize bounds how many candidate IDs each pass fetches (default 200).
	BatchSize int
	// MaxRetries bounds optimistic-concurrency retries (default 3).
	MaxRetries int
	// Now returns the current instant; overridable in tests.
	Now func() time.Time
}

const defaultSweepBatchSize = 200

func (s *SweepService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SweepService) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return defaultSweepBatchSize
}

func (s *SweepService) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

// Run executes one full sweep pass and returns the number of records it
// expired. It drains candidates in batches until none remain or the context
// is cancelled. Idempotent: a second pass over the same data expires nothing.
func (s *SweepService) Run(ctx context.Context) (int, error) {
	now := s.now()
	expired := 0

	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		ids, err := repo.ListExpiredActiveIDs(ctx, s.DB, now, s.batchSize())
		if err != nil {
			return expired, err
		}
		if len(ids) == 0 {
			break
		}

		progressed := false
		for _, id := range ids {
			n, err := s.expireOne(ctx, id, now)
			if err != nil {
				return expired, err
			}
			expired += n
			if n > 0 {
				progressed = true
			}
		}
		// Every candidate lost its race to a concurrent writer; the next
		// ticker pass will pick up whatever is still genuinely expired.
		if !progressed {
			break
		}
	}

	sweepRuns.Inc()
	sweepExpired.Add(float64(expired))
	log.Debug().Int("expired", expired).Time("as_of", now).Msg("expiration sweep pass complete")
	return expired, nil
}

// expireOne re-evaluates a single record and persists the result under the
// version gate. Returns 1 when this call flipped the record, 0 when it was
// already settled or a concurrent writer won every retry.
func (s *SweepService) expireOne(ctx context.Context, id string, now time.Time) (int, error) {
	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := repo.GetWarrantyByID(ctx, s.DB, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		if !w.Normalize(now) {
			return 0, nil
		}
		err = repo.UpdateWarrantyVersioned(ctx, s.DB, w)
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, nil
}

// Loop runs sweep passes on the given interval until the context is
// cancelled. Errors are logged and the loop keeps going; a transient
// database hiccup must not kill the backstop.
func (s *SweepService) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("expiration sweep loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("expiration sweep loop stopped")
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("expiration sweep pass failed")
			}
		}
	}
}
