package models

import "time"

// Conflict kinds reported by the conflict detector and buffer manager.
const (
	ConflictKindSpecialist   = "specialist_schedule"
	ConflictKindResource     = "resource_allocation"
	ConflictKindCapacity     = "service_capacity"
	ConflictKindDependency   = "service_dependency"
	ConflictKindBufferBefore = "insufficient_buffer_before"
	ConflictKindBufferAfter  = "insufficient_buffer_after"
	ConflictKindSystemError  = "system_error"
)

// ConflictDetail is one machine-readable collision inside a report.
type ConflictDetail struct {
	Kind          string    `json:"kind"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	ResourceID    string    `json:"resource_id,omitempty"`
	ServiceID     string    `json:"service_id,omitempty"`
	Start         time.Time `json:"start,omitempty"`
	End           time.Time `json:"end,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// ConflictReport is the structured diagnosis of one check. "Conflict found"
// is a result, never an error.
type ConflictReport struct {
	HasConflict bool             `json:"has_conflict"`
	Kind        string           `json:"kind,omitempty"`
	Message     string           `json:"message,omitempty"`
	Details     []ConflictDetail `json:"details,omitempty"`
}

// AggregateReport bundles the four independent checks in their fixed run
// order: specialist, resource, capacity, dependency.
type AggregateReport struct {
	HasConflict bool           `json:"has_conflict"`
	Specialist  ConflictReport `json:"specialist"`
	Resource    ConflictReport `json:"resource"`
	Capacity    ConflictReport `json:"capacity"`
	Dependency  ConflictReport `json:"dependency"`
}

// Reports returns the child reports in run order.
func (r *AggregateReport) Reports() []ConflictReport {
	return []ConflictReport{r.Specialist, r.Resource, r.Capacity, r.Dependency}
}

// FirstConflict returns the first failing child report, if any.
func (r *AggregateReport) FirstConflict() *ConflictReport {
	for _, c := range []*ConflictReport{&r.Specialist, &r.Resource, &r.Capacity, &r.Dependency} {
		if c.HasConflict {
			return c
		}
	}
	return nil
}

// BufferViolation is one adjacent-pair gap deficit inside a specialist's day.
type BufferViolation struct {
	FirstID        string `json:"first_id"`
	SecondID       string `json:"second_id"`
	ActualGap      int    `json:"actual_gap_minutes"`
	RequiredBuffer int    `json:"required_buffer_minutes"`
	Deficit        int    `json:"deficit"`
}
