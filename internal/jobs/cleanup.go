package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/config"
	"github.com/openclaw/dailyflows-gateway-go/internal/pairing"
	"github.com/openclaw/dailyflows-gateway-go/internal/repository"
)

// CleanupJob periodically drops expired pairing tickets and prunes old
// delivery log rows.
type CleanupJob struct {
	registry    *pairing.Registry
	deliveryLog repository.DeliveryLogRepository
	retention   time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(registry *pairing.Registry, deliveryLog repository.DeliveryLogRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		registry:    registry,
		deliveryLog: deliveryLog,
		retention:   config.DeliveryLogRetention,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if dropped := j.registry.Sweep(); dropped > 0 {
		log.Info().Int("count", dropped).Msg("cleaned up expired pairing tickets")
	}

	count, err := j.deliveryLog.DeleteOlderThan(ctx, time.Now().Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup delivery log")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up delivery log rows")
	}
}
