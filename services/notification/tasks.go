package notification

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"glowbook/models"
)

const TypeNotifySend = "notify:send"

// NewNotifyTask wraps a payload as an asynq task.
func NewNotifyTask(payload models.NotifyPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotifySend, b), nil
}
