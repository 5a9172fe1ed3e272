package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"glowbook/models"
	"glowbook/utils"
)

// DefaultNotificationService enqueues notifications onto the task queue; a
// background worker delivers them as FCM pushes. Enqueue failures are the
// caller's to log and swallow.
type DefaultNotificationService struct {
	Client *asynq.Client
}

func NewDefaultNotificationService(client *asynq.Client) (*DefaultNotificationService, error) {
	if client == nil {
		return nil, fmt.Errorf("notification service initialization error: asynq client is nil")
	}
	return &DefaultNotificationService{Client: client}, nil
}

func (s *DefaultNotificationService) Notify(ctx context.Context, userID, kind string, data map[string]string) error {
	payload := models.NotifyPayload{
		UserID: userID,
		Kind:   kind,
		Title:  titleFor(kind),
		Body:   bodyFor(kind, data),
		Data:   data,
	}
	task, err := NewNotifyTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build notify task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func (s *DefaultNotificationService) ScheduleReminder(ctx context.Context, payload models.NotifyPayload, fireAt time.Time) error {
	if payload.Title == "" {
		payload.Title = titleFor(payload.Kind)
	}
	if payload.Body == "" {
		payload.Body = bodyFor(payload.Kind, payload.Data)
	}
	task, err := NewNotifyTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	utils.GetLogger().Debug("reminder scheduled",
		zap.String("userID", payload.UserID), zap.Time("fireAt", fireAt))
	return nil
}

func titleFor(kind string) string {
	switch kind {
	case models.NotifyBookingConfirmed:
		return "Booking confirmed"
	case models.NotifyBookingCancelled:
		return "Booking cancelled"
	case models.NotifyBookingRescheduled:
		return "Booking moved"
	case models.NotifyPackageConfirmation:
		return "Package booked"
	case models.NotifyPackageReschedule:
		return "Package rescheduled"
	case models.NotifyPackageCancellation:
		return "Package cancelled"
	case models.NotifyAppointmentReminder:
		return "Upcoming appointment"
	}
	return "Booking update"
}

func bodyFor(kind string, data map[string]string) string {
	date := data["date"]
	start := data["start"]
	switch kind {
	case models.NotifyBookingConfirmed:
		return fmt.Sprintf("Your appointment on %s at %s is confirmed.", date, start)
	case models.NotifyBookingCancelled:
		return fmt.Sprintf("Your appointment on %s at %s was cancelled.", date, start)
	case models.NotifyBookingRescheduled:
		return fmt.Sprintf("Your appointment now starts on %s at %s.", date, start)
	case models.NotifyAppointmentReminder:
		return fmt.Sprintf("Reminder: your appointment starts at %s.", start)
	}
	return "There is an update to one of your bookings."
}
