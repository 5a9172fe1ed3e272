package models

import "time"

// Appointment status values. Transitions are monotone along the happy path;
// completed, cancelled and no_show are terminal.
const (
	AppointmentStatusScheduled  = "scheduled"
	AppointmentStatusConfirmed  = "confirmed"
	AppointmentStatusInProgress = "in_progress"
	AppointmentStatusCompleted  = "completed"
	AppointmentStatusCancelled  = "cancelled"
	AppointmentStatusNoShow     = "no_show"
)

// LiveStatuses are the statuses under which an appointment owns its
// specialist's buffered window and its resource allocations.
var LiveStatuses = []string{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

// Appointment is a confirmed placement of a service with a specialist.
// End is always Start + effective duration; buffers live outside [Start, End).
type Appointment struct {
	ID           string    `bson:"id" json:"id"`
	ShopID       string    `bson:"shop_id" json:"shop_id"`
	ServiceID    string    `bson:"service_id" json:"service_id"`
	SpecialistID string    `bson:"specialist_id" json:"specialist_id"`
	CustomerID   string    `bson:"customer_id" json:"customer_id"`
	Date         string    `bson:"date" json:"date"` // "2006-01-02", shop-local
	Start        time.Time `bson:"start" json:"start"`
	End          time.Time `bson:"end" json:"end"`
	Status       string    `bson:"status" json:"status"`
	BufferBefore int       `bson:"buffer_before" json:"buffer_before"` // minutes, copied from the service at booking time
	BufferAfter  int       `bson:"buffer_after" json:"buffer_after"`
	PackageID    string    `bson:"package_id,omitempty" json:"package_id,omitempty"`
	Notes        string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// IsLive reports whether the appointment currently occupies its specialist
// and resources.
func (a *Appointment) IsLive() bool {
	switch a.Status {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress:
		return true
	}
	return false
}

// Overlaps reports half-open interval overlap with [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && a.End.After(start)
}

// Covers reports whether instant t falls inside [Start, End).
func (a *Appointment) Covers(t time.Time) bool {
	return !a.Start.After(t) && a.End.After(t)
}

// CanTransitionTo gates the appointment state machine.
func (a *Appointment) CanTransitionTo(next string) bool {
	switch a.Status {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusInProgress || next == AppointmentStatusCancelled
	case AppointmentStatusInProgress:
		return next == AppointmentStatusCompleted || next == AppointmentStatusNoShow
	}
	return false
}

// Reschedulable reports whether the appointment may still be moved.
func (a *Appointment) Reschedulable() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed
}
