package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/reviewd-dev/reviewd/internal/config"
	"github.com/reviewd-dev/reviewd/internal/models"
	"github.com/reviewd-dev/reviewd/internal/tasks"
)

// HandleMagicLinkDeliver emails a one-time login link to the user. Mail
// transport is stubbed to the log until an SMTP provider is configured;
// DeliveredAt records the attempt either way.
func HandleMagicLinkDeliver(ctx context.Context, t *asynq.Task, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) error {
	payload, err := tasks.ParseMagicLinkDeliverPayload(t)
	if err != nil {
		return err
	}

	var link models.MagicLink
	if err := db.Preload("User").Where("id = ?", payload.MagicLinkID).First(&link).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Link was purged before delivery ran; nothing to do
			logger.Warn().Str("magic_link_id", payload.MagicLinkID).Msg("Magic link gone before delivery")
			return nil
		}
		return fmt.Errorf("failed to load magic link: %w", err)
	}

	if link.Expired(time.Now()) {
		logger.Warn().Str("magic_link_id", link.ID).Msg("Magic link expired before delivery")
		return nil
	}

	callbackURL := fmt.Sprintf("%s/auth/callback?state=%s", cfg.MagicLink.BaseURL, payload.Token)

	logger.Info().
		Str("magic_link_id", link.ID).
		Str("email", link.User.Email).
		Str("callback_url", callbackURL).
		Msg("Delivering magic link email")

	now := time.Now()
	if err := db.Model(&link).Update("delivered_at", now).Error; err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}

	return nil
}
