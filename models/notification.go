package models

// Notification kinds emitted by the scheduling core. Delivery is best-effort
// and asynchronous; a failed notification never fails a booking.
const (
	NotifyBookingConfirmed    = "booking_confirmed"
	NotifyBookingCancelled    = "booking_cancelled"
	NotifyBookingRescheduled  = "booking_rescheduled"
	NotifyPackageConfirmation = "package_confirmation"
	NotifyPackageReschedule   = "package_reschedule"
	NotifyPackageCancellation = "package_cancellation"
	NotifyAppointmentReminder = "appointment_reminder"
)

// NotifyPayload is the queued task body for one outbound notification.
type NotifyPayload struct {
	UserID string            `json:"user_id"`
	Kind   string            `json:"kind"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
