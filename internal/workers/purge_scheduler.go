package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/reviewd-dev/reviewd/internal/models"
)

// StartPurgeScheduler runs a cron-scheduled purge of expired, unconsumed
// magic links. Consumed links are kept for audit. Returns the scheduler so
// callers can Stop it on shutdown; returns nil when the schedule is empty
// or invalid.
func StartPurgeScheduler(schedule string, db *gorm.DB, logger zerolog.Logger) *cron.Cron {
	if schedule == "" {
		logger.Info().Msg("Magic link purge disabled (no schedule)")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		purgeExpiredMagicLinks(db, logger)
	})
	if err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid purge schedule")
		return nil
	}

	logger.Info().Str("schedule", schedule).Msg("Magic link purge scheduled")
	c.Start()
	return c
}

func purgeExpiredMagicLinks(db *gorm.DB, logger zerolog.Logger) {
	res := db.Where("expires_at < ? AND consumed_at IS NULL", time.Now()).
		Delete(&models.MagicLink{})
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("Failed to purge expired magic links")
		return
	}

	if res.RowsAffected > 0 {
		logger.Info().Int64("purged", res.RowsAffected).Msg("Purged expired magic links")
	}
}
