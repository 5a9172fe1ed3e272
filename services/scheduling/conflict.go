package scheduling

import (
	"context"
	"fmt"
	"time"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
)

// maxReportedCollisions caps how many colliding appointments one diagnosis
// carries.
const maxReportedCollisions = 5

// Candidate is a proposed booking to validate. ExcludeID removes one
// appointment (the one being rescheduled) from every conflict set.
type Candidate struct {
	ServiceID    string
	ShopID       string
	SpecialistID string
	CustomerID   string
	ExcludeID    string
	Start        time.Time
	End          time.Time
}

// ConflictDetector validates a candidate against every scheduling invariant.
// A found conflict is a result, not an error; only bad inputs and repository
// trouble surface as errors.
type ConflictDetector interface {
	CheckSpecialist(ctx context.Context, cand Candidate) (models.ConflictReport, error)
	CheckResources(ctx context.Context, cand Candidate) (models.ConflictReport, error)
	CheckCapacity(ctx context.Context, cand Candidate) (models.ConflictReport, error)
	CheckDependencies(ctx context.Context, cand Candidate) (models.ConflictReport, error)
	AggregateCheck(ctx context.Context, cand Candidate) (*models.AggregateReport, error)
}

// DefaultConflictDetector is the production implementation.
type DefaultConflictDetector struct {
	Repo schedulingRepo.SchedulingRepository
}

// CheckSpecialist fails iff a live appointment of the same specialist
// overlaps the candidate window (half-open semantics).
func (d *DefaultConflictDetector) CheckSpecialist(ctx context.Context, cand Candidate) (models.ConflictReport, error) {
	appts, err := d.Repo.GetAppointmentsForSpecialist(ctx, cand.SpecialistID, cand.Start, cand.End, models.LiveStatuses)
	if err != nil {
		return systemError(err), nil
	}

	var details []models.ConflictDetail
	for i := range appts {
		if appts[i].ID == cand.ExcludeID {
			continue
		}
		details = append(details, models.ConflictDetail{
			Kind:          models.ConflictKindSpecialist,
			AppointmentID: appts[i].ID,
			ServiceID:     appts[i].ServiceID,
			Start:         appts[i].Start,
			End:           appts[i].End,
			Message:       "specialist already booked in this window",
		})
		if len(details) == maxReportedCollisions {
			break
		}
	}
	if len(details) == 0 {
		return models.ConflictReport{}, nil
	}
	return models.ConflictReport{
		HasConflict: true,
		Kind:        models.ConflictKindSpecialist,
		Message:     fmt.Sprintf("specialist %s has %d colliding appointment(s)", cand.SpecialistID, len(details)),
		Details:     details,
	}, nil
}

// CheckResources verifies, for every resource the service requires, that the
// resource is usable across the window and not held by another live
// appointment. A resource with no availability rows is always available.
func (d *DefaultConflictDetector) CheckResources(ctx context.Context, cand Candidate) (models.ConflictReport, error) {
	required, err := d.Repo.GetServiceResources(ctx, cand.ServiceID)
	if err != nil {
		return systemError(err), nil
	}
	if len(required) == 0 {
		return models.ConflictReport{}, nil
	}

	weekday := models.WeekdayOf(cand.Start)
	startMin := models.MinuteOfDay(cand.Start)
	endMin := models.MinuteOfDay(cand.End)
	if endMin == 0 && cand.End.After(cand.Start) {
		endMin = 24 * 60
	}

	var details []models.ConflictDetail
	for _, req := range required {
		hasRows, err := d.Repo.HasResourceAvailability(ctx, req.ResourceID)
		if err != nil {
			return systemError(err), nil
		}
		if hasRows {
			windows, err := d.Repo.GetResourceAvailability(ctx, req.ResourceID, weekday)
			if err != nil {
				return systemError(err), nil
			}
			if !windowsCover(windows, startMin, endMin) {
				details = append(details, models.ConflictDetail{
					Kind:       models.ConflictKindResource,
					ResourceID: req.ResourceID,
					Message:    "resource not available on this weekday window",
				})
				continue
			}
		}

		allocs, err := d.Repo.GetResourceAllocations(ctx, req.ResourceID, cand.Start, cand.End, models.LiveStatuses)
		if err != nil {
			return systemError(err), nil
		}
		for i := range allocs {
			if allocs[i].AppointmentID == cand.ExcludeID {
				continue
			}
			details = append(details, models.ConflictDetail{
				Kind:          models.ConflictKindResource,
				ResourceID:    req.ResourceID,
				AppointmentID: allocs[i].AppointmentID,
				Start:         allocs[i].Start,
				End:           allocs[i].End,
				Message:       "resource already allocated in this window",
			})
			break
		}
	}

	if len(details) == 0 {
		return models.ConflictReport{}, nil
	}
	return models.ConflictReport{
		HasConflict: true,
		Kind:        models.ConflictKindResource,
		Message:     fmt.Sprintf("%d required resource(s) unavailable", len(details)),
		Details:     details,
	}, nil
}

// CheckCapacity enforces the concurrent-booking ceiling. Concurrency is
// measured at the starting instant: appointments whose interval contains the
// candidate start count against the ceiling.
func (d *DefaultConflictDetector) CheckCapacity(ctx context.Context, cand Candidate) (models.ConflictReport, error) {
	svc, err := d.Repo.GetService(ctx, cand.ServiceID)
	if err != nil {
		return systemError(err), nil
	}
	if !svc.ConcurrencyLimited() {
		return models.ConflictReport{}, nil
	}
	ceiling := *svc.MaxConcurrentBookings

	count, err := d.Repo.CountAppointmentsForServiceAt(ctx, cand.ServiceID, cand.Start, models.LiveStatuses, cand.ExcludeID)
	if err != nil {
		return systemError(err), nil
	}
	if count < ceiling {
		return models.ConflictReport{}, nil
	}
	return models.ConflictReport{
		HasConflict: true,
		Kind:        models.ConflictKindCapacity,
		Message:     fmt.Sprintf("service at capacity: %d of %d concurrent bookings at %s", count, ceiling, cand.Start.Format("15:04")),
		Details: []models.ConflictDetail{{
			Kind:      models.ConflictKindCapacity,
			ServiceID: cand.ServiceID,
			Start:     cand.Start,
			Message:   fmt.Sprintf("ceiling %d reached", ceiling),
		}},
	}, nil
}

// CheckDependencies requires, for every prerequisite edge, a completed
// appointment of the prerequisite for the same customer in the same shop
// ending before the candidate start. Candidates without a customer pass.
func (d *DefaultConflictDetector) CheckDependencies(ctx context.Context, cand Candidate) (models.ConflictReport, error) {
	if cand.CustomerID == "" {
		return models.ConflictReport{}, nil
	}
	deps, err := d.Repo.GetServiceDependencies(ctx, cand.ServiceID, models.DependencyTypePrerequisite)
	if err != nil {
		return systemError(err), nil
	}
	if len(deps) == 0 {
		return models.ConflictReport{}, nil
	}

	var details []models.ConflictDetail
	for _, dep := range deps {
		done, err := d.Repo.GetCompletedAppointments(ctx, cand.CustomerID, cand.ShopID, dep.PrerequisiteID, cand.Start)
		if err != nil {
			return systemError(err), nil
		}
		if len(done) == 0 {
			details = append(details, models.ConflictDetail{
				Kind:      models.ConflictKindDependency,
				ServiceID: dep.PrerequisiteID,
				Message:   "prerequisite service has no completed appointment before this start",
			})
		}
	}
	if len(details) == 0 {
		return models.ConflictReport{}, nil
	}
	return models.ConflictReport{
		HasConflict: true,
		Kind:        models.ConflictKindDependency,
		Message:     fmt.Sprintf("%d unmet prerequisite(s)", len(details)),
		Details:     details,
	}, nil
}

// AggregateCheck runs all four checks in fixed order (specialist, resource,
// capacity, dependency) and ORs the verdicts, preserving every child's
// details.
func (d *DefaultConflictDetector) AggregateCheck(ctx context.Context, cand Candidate) (*models.AggregateReport, error) {
	if !cand.End.After(cand.Start) {
		return nil, ErrInvalidWindow
	}

	report := &models.AggregateReport{}
	var err error
	if report.Specialist, err = d.CheckSpecialist(ctx, cand); err != nil {
		return nil, err
	}
	if report.Resource, err = d.CheckResources(ctx, cand); err != nil {
		return nil, err
	}
	if report.Capacity, err = d.CheckCapacity(ctx, cand); err != nil {
		return nil, err
	}
	if report.Dependency, err = d.CheckDependencies(ctx, cand); err != nil {
		return nil, err
	}
	report.HasConflict = report.Specialist.HasConflict ||
		report.Resource.HasConflict ||
		report.Capacity.HasConflict ||
		report.Dependency.HasConflict
	return report, nil
}

// windowsCover reports whether any availability window contains
// [startMin, endMin).
func windowsCover(windows []models.ResourceAvailability, startMin, endMin int) bool {
	for _, w := range windows {
		if w.From <= startMin && w.To >= endMin {
			return true
		}
	}
	return false
}

// systemError wraps a repository failure as a diagnosis so the aggregate
// report stays structurally complete.
func systemError(err error) models.ConflictReport {
	return models.ConflictReport{
		HasConflict: true,
		Kind:        models.ConflictKindSystemError,
		Message:     err.Error(),
	}
}
