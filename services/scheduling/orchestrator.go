package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/services/prediction"
	"glowbook/utils"
)

// Booking strategies.
const (
	StrategyEarliest          = "earliest_available"
	StrategyBalancedWorkload  = "balanced_workload"
	StrategyMinimizeWait      = "minimize_wait"
	StrategyResourceEfficient = "resource_efficient"
)

// Result reasons for unsuccessful non-conflict outcomes.
const (
	ReasonNoSpecialist   = "no_specialist"
	ReasonNoAvailability = "no_availability"
	ReasonPartialFailure = "partial_failure"
)

const (
	defaultDeadline   = 5 * time.Second
	defaultRetries    = 3
	reminderLead      = time.Hour
	alternativeLimit  = 3
	alternativeWindow = 7 // days scanned for alternative suggestions
)

// ScheduleRequest is a single-appointment placement request. Time and
// SpecialistID are optional; Strategy applies when both are absent.
type ScheduleRequest struct {
	ShopID       string
	ServiceID    string
	CustomerID   string
	Date         string // "2006-01-02"
	Time         string // "15:04", optional
	SpecialistID string // optional
	Strategy     string // defaults to earliest_available
	Notes        string
	PackageID    string // set by package booking
}

// ScheduleResult reports the outcome of a placement. Conflict failures carry
// the structured diagnosis and are never retried by the orchestrator.
type ScheduleResult struct {
	Success      bool                    `json:"success"`
	Appointment  *models.Appointment     `json:"appointment,omitempty"`
	Conflicts    *models.AggregateReport `json:"conflicts,omitempty"`
	Alternatives []models.Slot           `json:"alternatives,omitempty"`
	Reason       string                  `json:"reason,omitempty"`
}

// SchedulingOrchestrator composes availability, conflict detection and
// buffering into transactional placement, package booking and rescheduling.
type SchedulingOrchestrator interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error)
	ScheduleMultipleServices(ctx context.Context, req MultiServiceRequest) (*MultiServiceResult, error)
	Reschedule(ctx context.Context, req RescheduleRequest) (*ScheduleResult, error)
	Cancel(ctx context.Context, appointmentID, reason string) error
	Progress(ctx context.Context, appointmentID, next string) error
}

// DefaultSchedulingOrchestrator is the production implementation.
type DefaultSchedulingOrchestrator struct {
	Repo         schedulingRepo.SchedulingRepository
	Availability AvailabilityEngine
	Conflicts    ConflictDetector
	Buffers      BufferManager
	Notifier     notification.NotificationService
	Predictor    prediction.PredictionService
	Clock        Clock
	Deadline     time.Duration // soft per-request deadline; default 5s
	Retries      int           // transient commit retries; default 3
}

// conflictError carries a commit-time conflict diagnosis out of the
// transaction body.
type conflictError struct {
	report *models.AggregateReport
}

func (e *conflictError) Error() string { return "conflict detected at commit" }

func (o *DefaultSchedulingOrchestrator) deadline() time.Duration {
	if o.Deadline > 0 {
		return o.Deadline
	}
	return defaultDeadline
}

func (o *DefaultSchedulingOrchestrator) retries() int {
	if o.Retries > 0 {
		return o.Retries
	}
	return defaultRetries
}

// Schedule places one appointment. Dispatch depends on which of time and
// specialist the request pins; with neither, the strategy decides.
func (o *DefaultSchedulingOrchestrator) Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deadline())
	defer cancel()

	res, err := o.schedule(ctx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrTimeout
	}
	return res, err
}

func (o *DefaultSchedulingOrchestrator) schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	svc, err := o.Repo.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceStatusActive {
		return nil, ErrServiceNotActive
	}

	switch {
	case req.Time != "" && req.SpecialistID != "":
		start, err := o.parseStart(req.Date, req.Time)
		if err != nil {
			return nil, err
		}
		return o.bookAt(ctx, svc, req, req.SpecialistID, start)

	case req.Time != "":
		start, err := o.parseStart(req.Date, req.Time)
		if err != nil {
			return nil, err
		}
		specialistID, err := o.Availability.NextAvailableSpecialist(ctx, svc.ID, req.Date, start)
		if err != nil {
			return nil, err
		}
		if specialistID == "" {
			alts, altErr := o.suggestAlternatives(ctx, svc, req.Date)
			if altErr != nil {
				utils.GetLogger().Warn("failed to build alternative suggestions", zap.Error(altErr))
			}
			return &ScheduleResult{Reason: ReasonNoSpecialist, Alternatives: alts}, nil
		}
		return o.bookAt(ctx, svc, req, specialistID, start)

	case req.SpecialistID != "":
		slots, err := o.Availability.SlotsForSpecialist(ctx, svc.ID, req.SpecialistID, req.Date)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			nextDay, err := nextDate(req.Date, 1)
			if err != nil {
				return nil, ErrInvalidDate
			}
			slot, err := o.Availability.EarliestAvailable(ctx, svc.ID, nextDay, 7, req.SpecialistID)
			if err != nil {
				return nil, err
			}
			if slot == nil {
				return &ScheduleResult{Reason: ReasonNoAvailability}, nil
			}
			slots = []models.Slot{*slot}
		}
		return o.bookSlots(ctx, svc, req, slots)

	default:
		return o.scheduleByStrategy(ctx, svc, req)
	}
}

// bookAt validates one concrete (specialist, start) candidate and commits it.
func (o *DefaultSchedulingOrchestrator) bookAt(ctx context.Context, svc *models.Service, req ScheduleRequest, specialistID string, start time.Time) (*ScheduleResult, error) {
	link, err := o.Repo.GetSpecialistLink(ctx, specialistID, svc.ID)
	if err != nil {
		if errors.Is(err, schedulingRepo.ErrNotFound) {
			return nil, NewValidationError("specialistNotQualified", "specialist is not linked to this service")
		}
		return nil, err
	}
	dur := models.EffectiveDuration(svc, link)
	end := start.Add(time.Duration(dur) * time.Minute)

	cand := Candidate{
		ServiceID:    svc.ID,
		ShopID:       svc.ShopID,
		SpecialistID: specialistID,
		CustomerID:   req.CustomerID,
		Start:        start,
		End:          end,
	}
	report, err := o.Conflicts.AggregateCheck(ctx, cand)
	if err != nil {
		return nil, err
	}

	// A pure resource conflict may still be bookable through a same-type
	// substitute in the same shop; any other failing dimension is final.
	if report.HasConflict && !onlyResourceConflict(report) {
		return &ScheduleResult{Conflicts: report}, nil
	}
	allocs, err := o.planResources(ctx, svc, start, end, cand.ExcludeID)
	if err != nil {
		return nil, err
	}
	if allocs == nil {
		if !report.HasConflict {
			// Planner lost a race the checker did not see.
			report.HasConflict = true
			report.Resource = models.ConflictReport{
				HasConflict: true,
				Kind:        models.ConflictKindResource,
				Message:     "no free resource of a required type in this window",
			}
		}
		return &ScheduleResult{Conflicts: report}, nil
	}

	appt := &models.Appointment{
		ID:           uuid.New().String(),
		ShopID:       svc.ShopID,
		ServiceID:    svc.ID,
		SpecialistID: specialistID,
		CustomerID:   req.CustomerID,
		Date:         start.Format(models.DateLayout),
		Start:        start,
		End:          end,
		Status:       models.AppointmentStatusScheduled,
		BufferBefore: svc.BufferBefore,
		BufferAfter:  svc.BufferAfter,
		PackageID:    req.PackageID,
		Notes:        req.Notes,
	}

	if err := o.commitBooking(ctx, appt, allocs, cand); err != nil {
		var ce *conflictError
		if errors.As(err, &ce) {
			return &ScheduleResult{Conflicts: ce.report}, nil
		}
		return nil, err
	}

	o.notifyBooked(appt)
	return &ScheduleResult{Success: true, Appointment: appt}, nil
}

// bookSlots tries admissible slots in order; a conflict (lost race) moves on
// to the next candidate.
func (o *DefaultSchedulingOrchestrator) bookSlots(ctx context.Context, svc *models.Service, req ScheduleRequest, slots []models.Slot) (*ScheduleResult, error) {
	var lastConflicts *models.AggregateReport
	for i := range slots {
		res, err := o.bookAt(ctx, svc, req, slots[i].SpecialistID, slots[i].Start)
		if err != nil {
			return nil, err
		}
		if res.Success {
			return res, nil
		}
		lastConflicts = res.Conflicts
	}
	return &ScheduleResult{Reason: ReasonNoAvailability, Conflicts: lastConflicts}, nil
}

// planResources builds the allocation set for the window, substituting a
// same-type resource in the same shop when the declared one is held. A nil
// return (without error) means some requirement cannot be satisfied.
func (o *DefaultSchedulingOrchestrator) planResources(ctx context.Context, svc *models.Service, start, end time.Time, excludeID string) ([]models.AppointmentResource, error) {
	required, err := o.Repo.GetServiceResources(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		return []models.AppointmentResource{}, nil
	}

	allocs := make([]models.AppointmentResource, 0, len(required))
	for _, reqRes := range required {
		free, err := o.resourceFree(ctx, reqRes.ResourceID, start, end, excludeID)
		if err != nil {
			return nil, err
		}
		chosen := reqRes.ResourceID
		if !free {
			declared, err := o.Repo.GetResource(ctx, reqRes.ResourceID)
			if err != nil {
				return nil, err
			}
			substitutes, err := o.Repo.GetResourcesByType(ctx, declared.ShopID, declared.Type)
			if err != nil {
				return nil, err
			}
			chosen = ""
			for _, sub := range substitutes {
				if sub.ID == reqRes.ResourceID {
					continue
				}
				ok, err := o.resourceFree(ctx, sub.ID, start, end, excludeID)
				if err != nil {
					return nil, err
				}
				if ok {
					chosen = sub.ID
					break
				}
			}
			if chosen == "" {
				return nil, nil
			}
		}
		allocs = append(allocs, models.AppointmentResource{
			ResourceID: chosen,
			Quantity:   reqRes.Quantity,
			Start:      start,
			End:        end,
		})
	}
	return allocs, nil
}

// resourceFree checks availability-window coverage and overlap-freedom for
// one resource across [start, end).
func (o *DefaultSchedulingOrchestrator) resourceFree(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	hasRows, err := o.Repo.HasResourceAvailability(ctx, resourceID)
	if err != nil {
		return false, err
	}
	if hasRows {
		windows, err := o.Repo.GetResourceAvailability(ctx, resourceID, models.WeekdayOf(start))
		if err != nil {
			return false, err
		}
		startMin := models.MinuteOfDay(start)
		endMin := models.MinuteOfDay(end)
		if endMin == 0 && end.After(start) {
			endMin = 24 * 60
		}
		if !windowsCover(windows, startMin, endMin) {
			return false, nil
		}
	}
	allocs, err := o.Repo.GetResourceAllocations(ctx, resourceID, start, end, models.LiveStatuses)
	if err != nil {
		return false, err
	}
	for i := range allocs {
		if allocs[i].AppointmentID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

// commitBooking writes the appointment, its resource rows and counters in
// one transaction, re-validating the specialist dimension inside the
// transaction so racing bookings serialize into one success and one
// specialist conflict.
func (o *DefaultSchedulingOrchestrator) commitBooking(ctx context.Context, appt *models.Appointment, allocs []models.AppointmentResource, cand Candidate) error {
	return o.runTx(ctx, func(txCtx context.Context) error {
		return o.writeBooking(txCtx, appt, allocs, cand)
	})
}

func (o *DefaultSchedulingOrchestrator) writeBooking(ctx context.Context, appt *models.Appointment, allocs []models.AppointmentResource, cand Candidate) error {
	// Re-validate the hot dimension under the transaction's snapshot.
	report, err := o.Conflicts.CheckSpecialist(ctx, cand)
	if err != nil {
		return &FatalError{Err: err}
	}
	if report.HasConflict {
		return &conflictError{report: &models.AggregateReport{HasConflict: true, Specialist: report}}
	}

	if err := o.Repo.InsertAppointment(ctx, appt); err != nil {
		return &FatalError{Err: err}
	}
	for i := range allocs {
		allocs[i].ID = uuid.New().String()
		allocs[i].AppointmentID = appt.ID
		if err := o.Repo.InsertAppointmentResource(ctx, &allocs[i]); err != nil {
			return &FatalError{Err: err}
		}
	}
	if err := o.Repo.IncrementSpecialistBookingCount(ctx, appt.SpecialistID, appt.ServiceID, 1); err != nil {
		return &FatalError{Err: err}
	}
	return nil
}

// suggestAlternatives proposes up to three slots across the following days,
// preferring days the predictor expects to be quiet.
func (o *DefaultSchedulingOrchestrator) suggestAlternatives(ctx context.Context, svc *models.Service, date string) ([]models.Slot, error) {
	type scored struct {
		slot   models.Slot
		demand int
	}

	var dates []string
	for i := 1; i <= alternativeWindow; i++ {
		d, err := nextDate(date, i)
		if err != nil {
			return nil, ErrInvalidDate
		}
		dates = append(dates, d)
	}

	demand := map[string]int{}
	if o.Predictor != nil {
		if m, err := o.Predictor.PredictDailyDemand(ctx, svc.ShopID, dates); err == nil {
			demand = m
		}
	}

	var candidates []scored
	for _, d := range dates {
		slot, err := o.Availability.EarliestAvailable(ctx, svc.ID, d, 1, "")
		if err != nil {
			return nil, err
		}
		if slot != nil {
			candidates = append(candidates, scored{slot: *slot, demand: demand[d]})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].demand != candidates[j].demand {
			return candidates[i].demand < candidates[j].demand
		}
		return candidates[i].slot.Start.Before(candidates[j].slot.Start)
	})

	var out []models.Slot
	for _, c := range candidates {
		out = append(out, c.slot)
		if len(out) == alternativeLimit {
			break
		}
	}
	return out, nil
}

// notifyBooked emits the confirmation and schedules a reminder. Best-effort:
// failures are logged and swallowed.
func (o *DefaultSchedulingOrchestrator) notifyBooked(appt *models.Appointment) {
	if o.Notifier == nil {
		return
	}
	logger := utils.GetLogger()
	ctx := context.Background()

	data := map[string]string{
		"appointmentId": appt.ID,
		"date":          appt.Date,
		"start":         appt.Start.Format("15:04"),
	}
	if err := o.Notifier.Notify(ctx, appt.CustomerID, models.NotifyBookingConfirmed, data); err != nil {
		logger.Warn("booking notification failed", zap.String("appointmentID", appt.ID), zap.Error(err))
	}

	fireAt := appt.Start.Add(-reminderLead)
	if fireAt.After(o.now()) {
		payload := models.NotifyPayload{
			UserID: appt.CustomerID,
			Kind:   models.NotifyAppointmentReminder,
			Data:   data,
		}
		if err := o.Notifier.ScheduleReminder(ctx, payload, fireAt); err != nil {
			logger.Warn("reminder scheduling failed", zap.String("appointmentID", appt.ID), zap.Error(err))
		}
	}
}

func (o *DefaultSchedulingOrchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return time.Now()
}

func (o *DefaultSchedulingOrchestrator) parseStart(date, clock string) (time.Time, error) {
	loc := o.now().Location()
	day, err := models.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, NewValidationError("invalidTime", "time must be formatted as 15:04")
	}
	return models.AtMinute(day, t.Hour()*60+t.Minute()), nil
}

func nextDate(date string, days int) (string, error) {
	day, err := models.ParseDate(date, time.Local)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, days).Format(models.DateLayout), nil
}

// onlyResourceConflict reports whether the resource check is the sole
// failing dimension.
func onlyResourceConflict(r *models.AggregateReport) bool {
	return r.Resource.HasConflict &&
		!r.Specialist.HasConflict && !r.Capacity.HasConflict && !r.Dependency.HasConflict
}
