package notification

import (
	"context"
	"time"

	"glowbook/models"
)

// NotificationService is the outbound port the scheduling core emits to.
// Delivery is best-effort and asynchronous; it never blocks or fails a
// booking. The core is constructible with a test double.
type NotificationService interface {
	Notify(ctx context.Context, userID, kind string, data map[string]string) error
	ScheduleReminder(ctx context.Context, payload models.NotifyPayload, fireAt time.Time) error
}
