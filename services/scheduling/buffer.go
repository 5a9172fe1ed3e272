package scheduling

import (
	"context"
	"fmt"
	"math"
	"time"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
)

// DefaultMinBuffer is the floor applied when a service declares no buffer of
// its own. The effective buffer between two appointments is the maximum of
// the leading one's post-buffer and the trailing one's pre-buffer.
const DefaultMinBuffer = 5

// MaxEndTrim caps how far advance-end may shorten an appointment; the
// trimmed duration may never drop below MinTrimmedDuration.
const (
	MaxEndTrim         = 5
	MinTrimmedDuration = 15
)

// Buffer fix modes for AdjustForBuffer.
const (
	FixAuto       = "auto"
	FixDelayStart = "delay_start"
	FixAdvanceEnd = "advance_end"
)

// BufferRequirement is the computed pre/post buffer for a booking, plus a
// neighbour-gap diagnosis when a specialist context is given.
type BufferRequirement struct {
	Before   int                     `json:"before"`
	After    int                     `json:"after"`
	Conflict string                  `json:"conflict,omitempty"` // insufficient_buffer_before | insufficient_buffer_after
	Details  []models.ConflictDetail `json:"details,omitempty"`
}

// BufferSuggestion is the output of SuggestOptimalBuffers.
type BufferSuggestion struct {
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Rationale string `json:"rationale"`
}

// AdjustResult describes an applied buffer fix.
type AdjustResult struct {
	AppointmentID  string    `json:"appointment_id"`
	Applied        string    `json:"applied"` // delay_start | advance_end
	OldStart       time.Time `json:"old_start"`
	OldEnd         time.Time `json:"old_end"`
	NewStart       time.Time `json:"new_start"`
	NewEnd         time.Time `json:"new_end"`
	TrimmedMinutes int       `json:"trimmed_minutes"`
}

// BufferManager enforces the pairwise gap invariant across a specialist's
// day: consecutive live appointments must be separated by at least
// max(prev.buffer_after, next.buffer_before), floored at DefaultMinBuffer.
type BufferManager interface {
	BufferRequirements(ctx context.Context, serviceID string, start time.Time, specialistID string) (*BufferRequirement, error)
	SuggestOptimalBuffers(ctx context.Context, serviceID string, preparation, cleanup int, complexity string) (*BufferSuggestion, error)
	CheckBufferConflicts(ctx context.Context, specialistID, date string, excludeID string) ([]models.BufferViolation, error)
	AdjustForBuffer(ctx context.Context, appointmentID, fix string) (*AdjustResult, error)
}

// DefaultBufferManager is the production implementation.
type DefaultBufferManager struct {
	Repo  schedulingRepo.SchedulingRepository
	Clock Clock
}

// effectiveBuffer applies the DefaultMinBuffer floor to a declared buffer.
func effectiveBuffer(declared int) int {
	if declared <= 0 {
		return DefaultMinBuffer
	}
	return declared
}

// requiredGap is the minimum gap between a leading and a trailing
// appointment. Encoded once; availability and conflict checks reuse it.
func requiredGap(prevBufferAfter, nextBufferBefore int) int {
	after := effectiveBuffer(prevBufferAfter)
	before := effectiveBuffer(nextBufferBefore)
	if after > before {
		return after
	}
	return before
}

// BufferRequirements computes the effective buffers for a booking of the
// service at start. With a specialist it also diagnoses neighbour-gap
// violations around the proposed window.
func (m *DefaultBufferManager) BufferRequirements(ctx context.Context, serviceID string, start time.Time, specialistID string) (*BufferRequirement, error) {
	svc, err := m.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	req := &BufferRequirement{Before: svc.BufferBefore, After: svc.BufferAfter}
	if specialistID == "" {
		return req, nil
	}

	end := start.Add(time.Duration(svc.Duration) * time.Minute)
	day := start
	appts, err := m.dayAppointments(ctx, specialistID, day, "")
	if err != nil {
		return nil, err
	}

	prev, next := neighbours(appts, start, end)
	if prev != nil {
		gap := int(start.Sub(prev.End).Minutes())
		need := requiredGap(prev.BufferAfter, svc.BufferBefore)
		if gap < need {
			req.Conflict = models.ConflictKindBufferBefore
			req.Details = append(req.Details, models.ConflictDetail{
				Kind:          models.ConflictKindBufferBefore,
				AppointmentID: prev.ID,
				Start:         prev.Start,
				End:           prev.End,
				Message:       fmt.Sprintf("gap %dm before start, %dm required", gap, need),
			})
		}
	}
	if next != nil {
		gap := int(next.Start.Sub(end).Minutes())
		need := requiredGap(svc.BufferAfter, next.BufferBefore)
		if gap < need {
			if req.Conflict == "" {
				req.Conflict = models.ConflictKindBufferAfter
			}
			req.Details = append(req.Details, models.ConflictDetail{
				Kind:          models.ConflictKindBufferAfter,
				AppointmentID: next.ID,
				Start:         next.Start,
				End:           next.End,
				Message:       fmt.Sprintf("gap %dm after end, %dm required", gap, need),
			})
		}
	}
	return req, nil
}

// SuggestOptimalBuffers proposes buffers additively: preparation or cleanup
// minutes gain a duration-band addition (+5 up to 15m, +10 up to 30m, +15
// beyond), and the sum is scaled by the transition-complexity factor
// (low 0.8, medium 1.0, high 1.5), rounded to the nearest minute.
func (m *DefaultBufferManager) SuggestOptimalBuffers(ctx context.Context, serviceID string, preparation, cleanup int, complexity string) (*BufferSuggestion, error) {
	svc, err := m.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	base := 15
	switch {
	case svc.Duration <= 15:
		base = 5
	case svc.Duration <= 30:
		base = 10
	}

	factor := 1.0
	switch complexity {
	case "low":
		factor = 0.8
	case "medium":
		factor = 1.0
	case "high":
		factor = 1.5
	default:
		return nil, NewValidationError("invalidComplexity", "complexity must be low, medium or high")
	}

	before, after := 0, 0
	if preparation > 0 {
		before = int(math.Round(float64(preparation+base) * factor))
	}
	if cleanup > 0 {
		after = int(math.Round(float64(cleanup+base) * factor))
	}

	return &BufferSuggestion{
		Before: before,
		After:  after,
		Rationale: fmt.Sprintf("duration band %dm adds %dm per transition at %s complexity (factor %.1f)",
			svc.Duration, base, complexity, factor),
	}, nil
}

// CheckBufferConflicts scans the specialist's live appointments of the day
// in chronological order and reports every adjacent pair whose gap falls
// short of the required buffer.
func (m *DefaultBufferManager) CheckBufferConflicts(ctx context.Context, specialistID, date string, excludeID string) ([]models.BufferViolation, error) {
	day, err := models.ParseDate(date, m.Clock.Now().Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	appts, err := m.dayAppointments(ctx, specialistID, day, excludeID)
	if err != nil {
		return nil, err
	}

	var violations []models.BufferViolation
	for i := 0; i+1 < len(appts); i++ {
		prev, next := &appts[i], &appts[i+1]
		gap := int(next.Start.Sub(prev.End).Minutes())
		need := requiredGap(prev.BufferAfter, next.BufferBefore)
		if gap < need {
			violations = append(violations, models.BufferViolation{
				FirstID:        prev.ID,
				SecondID:       next.ID,
				ActualGap:      gap,
				RequiredBuffer: need,
				Deficit:        need - gap,
			})
		}
	}
	return violations, nil
}

// AdjustForBuffer resolves an appointment's buffer conflicts by delaying its
// start or advancing its end. A fix that would create a new conflict with
// the opposite neighbour is refused, never chained.
func (m *DefaultBufferManager) AdjustForBuffer(ctx context.Context, appointmentID, fix string) (*AdjustResult, error) {
	appt, err := m.Repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appt.Reschedulable() {
		return nil, ErrNotReschedulable
	}

	appts, err := m.dayAppointments(ctx, appt.SpecialistID, appt.Start, appt.ID)
	if err != nil {
		return nil, err
	}
	prev, next := neighbours(appts, appt.Start, appt.End)

	beforeDeficit, afterDeficit := 0, 0
	if prev != nil {
		need := requiredGap(prev.BufferAfter, appt.BufferBefore)
		gap := int(appt.Start.Sub(prev.End).Minutes())
		if gap < need {
			beforeDeficit = need - gap
		}
	}
	if next != nil {
		need := requiredGap(appt.BufferAfter, next.BufferBefore)
		gap := int(next.Start.Sub(appt.End).Minutes())
		if gap < need {
			afterDeficit = need - gap
		}
	}
	if beforeDeficit == 0 && afterDeficit == 0 {
		return nil, NewValidationError("noViolation", "appointment has no buffer conflict to fix")
	}

	switch fix {
	case FixAuto:
		if beforeDeficit >= afterDeficit && beforeDeficit > 0 {
			fix = FixDelayStart
		} else {
			fix = FixAdvanceEnd
		}
	case FixDelayStart, FixAdvanceEnd:
	default:
		return nil, NewValidationError("invalidFix", "fix must be auto, delay_start or advance_end")
	}

	result := &AdjustResult{
		AppointmentID: appt.ID,
		Applied:       fix,
		OldStart:      appt.Start,
		OldEnd:        appt.End,
	}

	switch fix {
	case FixDelayStart:
		if prev == nil || beforeDeficit == 0 {
			return nil, NewValidationError("noViolation", "no leading buffer conflict to fix by delaying")
		}
		need := requiredGap(prev.BufferAfter, appt.BufferBefore)
		newStart := prev.End.Add(time.Duration(need) * time.Minute)
		duration := appt.End.Sub(appt.Start)
		newEnd := newStart.Add(duration)
		if next != nil {
			trailing := requiredGap(appt.BufferAfter, next.BufferBefore)
			if newEnd.Add(time.Duration(trailing) * time.Minute).After(next.Start) {
				return nil, NewValidationError("neighbourBlocked", "delaying the start would violate the trailing buffer")
			}
		}
		result.NewStart, result.NewEnd = newStart, newEnd

	case FixAdvanceEnd:
		if next == nil || afterDeficit == 0 {
			return nil, NewValidationError("noViolation", "no trailing buffer conflict to fix by advancing")
		}
		need := requiredGap(appt.BufferAfter, next.BufferBefore)
		newEnd := next.Start.Add(-time.Duration(need) * time.Minute)
		duration := int(appt.End.Sub(appt.Start).Minutes())
		trim := int(appt.End.Sub(newEnd).Minutes())
		maxTrim := MaxEndTrim
		if duration-MinTrimmedDuration < maxTrim {
			maxTrim = duration - MinTrimmedDuration
		}
		if trim > maxTrim {
			return nil, ErrTooShort
		}
		if prev != nil {
			leading := requiredGap(prev.BufferAfter, appt.BufferBefore)
			if appt.Start.Add(-time.Duration(leading) * time.Minute).Before(prev.End) {
				return nil, NewValidationError("neighbourBlocked", "advancing the end leaves the leading buffer violated")
			}
		}
		result.NewStart, result.NewEnd = appt.Start, newEnd
		result.TrimmedMinutes = trim
	}

	appt.Start, appt.End = result.NewStart, result.NewEnd
	if err := m.Repo.UpdateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	return result, nil
}

// dayAppointments fetches the specialist's live appointments of the day in
// start order, excluding one id.
func (m *DefaultBufferManager) dayAppointments(ctx context.Context, specialistID string, day time.Time, excludeID string) ([]models.Appointment, error) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	appts, err := m.Repo.GetAppointmentsForSpecialist(ctx, specialistID, midnight, midnight.AddDate(0, 0, 1), models.LiveStatuses)
	if err != nil {
		return nil, err
	}
	if excludeID == "" {
		return appts, nil
	}
	out := appts[:0]
	for i := range appts {
		if appts[i].ID != excludeID {
			out = append(out, appts[i])
		}
	}
	return out, nil
}

// neighbours locates the closest live appointments strictly before and after
// the window [start, end) in an ordered day list.
func neighbours(appts []models.Appointment, start, end time.Time) (prev, next *models.Appointment) {
	for i := range appts {
		if !appts[i].End.After(start) {
			prev = &appts[i]
		}
		if next == nil && !appts[i].Start.Before(end) {
			next = &appts[i]
		}
	}
	return prev, next
}
