package services

import (
	"context"
	"log"
	"time"
)

// DefaultCleanupInterval is how often the background sweep runs when no
// interval is configured.
const DefaultCleanupInterval = time.Hour

type expiredSweeper interface {
	CleanupExpired() (int64, error)
}

// CleanupScheduler periodically deletes read notifications whose expiry
// window has passed. It runs independently of request traffic; the inline
// sweep on list/count bounds staleness between ticks.
type CleanupScheduler struct {
	sweeper  expiredSweeper
	interval time.Duration
}

func NewCleanupScheduler(sweeper expiredSweeper, interval time.Duration) *CleanupScheduler {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupScheduler{sweeper: sweeper, interval: interval}
}

// Start runs the sweep loop in a goroutine until ctx is cancelled. A failed
// sweep is logged and retried on the next tick; the sweep is idempotent.
func (s *CleanupScheduler) Start(ctx context.Context) {
	go func() {
		log.Printf("notification cleanup scheduler started (interval %s)", s.interval)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("notification cleanup scheduler stopped")
				return
			case <-ticker.C:
				removed, err := s.sweeper.CleanupExpired()
				if err != nil {
					log.Printf("notification cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("cleaned up %d expired notifications", removed)
				}
			}
		}
	}()
}
