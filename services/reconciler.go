package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunReconciliationSweep periodically releases rooms and sessions whose hold
// window elapsed without a finalize or cancel. Runs until ctx is cancelled;
// start it in its own goroutine from main.
func (s *ReservationService) RunReconciliationSweep(ctx context.Context, interval time.Duration) {
	if interval == 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval.String()).Info("Reconciliation sweep started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Reconciliation sweep stopped")
			return
		case <-ticker.C:
			released, err := s.SweepExpired(ctx)
			if err != nil {
				log.WithError(err).Error("Reconciliation sweep failed")
				continue
			}
			if released > 0 {
				log.WithField("released", released).Info("Reconciliation sweep released stale holds")
			}
		}
	}
}
