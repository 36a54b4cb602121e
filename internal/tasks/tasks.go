package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeMagicLinkDeliver = "magic_link:deliver"
)

// MagicLinkDeliverPayload carries everything the delivery worker needs.
// The plaintext token rides in the payload only; it is never persisted.
type MagicLinkDeliverPayload struct {
	MagicLinkID string `json:"magic_link_id"`
	Token       string `json:"token"`
}

// NewMagicLinkDeliverTask creates a task to email a one-time login link
func NewMagicLinkDeliverTask(magicLinkID, token string) (*asynq.Task, error) {
	payload, err := json.Marshal(MagicLinkDeliverPayload{
		MagicLinkID: magicLinkID,
		Token:       token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeMagicLinkDeliver, payload, asynq.Queue("critical")), nil
}

// ParseMagicLinkDeliverPayload parses the delivery payload from an Asynq task
func ParseMagicLinkDeliverPayload(task *asynq.Task) (MagicLinkDeliverPayload, error) {
	var payload MagicLinkDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
