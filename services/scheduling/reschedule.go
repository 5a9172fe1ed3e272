package scheduling

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
	"glowbook/utils"
)

// RescheduleRequest moves an existing appointment. Unset fields keep the
// appointment's current value.
type RescheduleRequest struct {
	AppointmentID string
	Date          string // "2006-01-02", optional
	Time          string // "15:04", optional
	SpecialistID  string // optional
}

// Reschedule moves an appointment to a new slot and/or specialist. The
// appointment's own window never blocks its new placement. Moving to the
// identical slot is a no-op success.
func (o *DefaultSchedulingOrchestrator) Reschedule(ctx context.Context, req RescheduleRequest) (*ScheduleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deadline())
	defer cancel()

	appt, err := o.Repo.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !appt.Reschedulable() {
		return nil, ErrNotReschedulable
	}

	date := req.Date
	if date == "" {
		date = appt.Date
	}
	clock := req.Time
	if clock == "" {
		clock = appt.Start.Format("15:04")
	}
	specialistID := req.SpecialistID
	if specialistID == "" {
		specialistID = appt.SpecialistID
	}

	start, err := o.parseStart(date, clock)
	if err != nil {
		return nil, err
	}

	svc, err := o.Repo.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}
	link, err := o.Repo.GetSpecialistLink(ctx, specialistID, svc.ID)
	if err != nil {
		if errors.Is(err, schedulingRepo.ErrNotFound) {
			return nil, NewValidationError("specialistNotQualified", "specialist is not linked to this service")
		}
		return nil, err
	}
	end := start.Add(time.Duration(models.EffectiveDuration(svc, link)) * time.Minute)

	if start.Equal(appt.Start) && specialistID == appt.SpecialistID {
		return &ScheduleResult{Success: true, Appointment: appt}, nil
	}

	cand := Candidate{
		ServiceID:    svc.ID,
		ShopID:       appt.ShopID,
		SpecialistID: specialistID,
		CustomerID:   appt.CustomerID,
		ExcludeID:    appt.ID,
		Start:        start,
		End:          end,
	}
	report, err := o.Conflicts.AggregateCheck(ctx, cand)
	if err != nil {
		return nil, err
	}
	if report.HasConflict && !onlyResourceConflict(report) {
		return &ScheduleResult{Conflicts: report}, nil
	}
	allocs, err := o.planResources(ctx, svc, start, end, appt.ID)
	if err != nil {
		return nil, err
	}
	if allocs == nil {
		if !report.HasConflict {
			report.HasConflict = true
			report.Resource = models.ConflictReport{
				HasConflict: true,
				Kind:        models.ConflictKindResource,
				Message:     "no free resource of a required type in this window",
			}
		}
		return &ScheduleResult{Conflicts: report}, nil
	}

	prevSpecialist := appt.SpecialistID
	moved := *appt
	moved.SpecialistID = specialistID
	moved.Date = start.Format(models.DateLayout)
	moved.Start = start
	moved.End = end

	err = o.runTx(ctx, func(txCtx context.Context) error {
		check, err := o.Conflicts.CheckSpecialist(txCtx, cand)
		if err != nil {
			return &FatalError{Err: err}
		}
		if check.HasConflict {
			return &conflictError{report: &models.AggregateReport{HasConflict: true, Specialist: check}}
		}
		if err := o.Repo.UpdateAppointment(txCtx, &moved); err != nil {
			return &FatalError{Err: err}
		}
		if err := o.Repo.DeleteAppointmentResources(txCtx, moved.ID); err != nil {
			return &FatalError{Err: err}
		}
		for i := range allocs {
			allocs[i].ID = uuid.New().String()
			allocs[i].AppointmentID = moved.ID
			if err := o.Repo.InsertAppointmentResource(txCtx, &allocs[i]); err != nil {
				return &FatalError{Err: err}
			}
		}
		if specialistID != prevSpecialist {
			if err := o.Repo.IncrementSpecialistBookingCount(txCtx, prevSpecialist, svc.ID, -1); err != nil {
				return &FatalError{Err: err}
			}
			if err := o.Repo.IncrementSpecialistBookingCount(txCtx, specialistID, svc.ID, 1); err != nil {
				return &FatalError{Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var ce *conflictError
		if errors.As(err, &ce) {
			return &ScheduleResult{Conflicts: ce.report}, nil
		}
		return nil, err
	}

	o.notifyMoved(&moved)
	return &ScheduleResult{Success: true, Appointment: &moved}, nil
}

// Cancel releases an appointment's window, resources and counters. Only
// appointments that have not started may be cancelled.
func (o *DefaultSchedulingOrchestrator) Cancel(ctx context.Context, appointmentID, reason string) error {
	appt, err := o.Repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !appt.CanTransitionTo(models.AppointmentStatusCancelled) {
		return ErrBadTransition
	}

	err = o.runTx(ctx, func(txCtx context.Context) error {
		if err := o.Repo.UpdateAppointmentStatus(txCtx, appt.ID, models.AppointmentStatusCancelled); err != nil {
			return &FatalError{Err: err}
		}
		if err := o.Repo.DeleteAppointmentResources(txCtx, appt.ID); err != nil {
			return &FatalError{Err: err}
		}
		if err := o.Repo.IncrementSpecialistBookingCount(txCtx, appt.SpecialistID, appt.ServiceID, -1); err != nil {
			return &FatalError{Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if o.Notifier != nil {
		data := map[string]string{
			"appointmentId": appt.ID,
			"date":          appt.Date,
			"start":         appt.Start.Format("15:04"),
			"reason":        reason,
		}
		if nerr := o.Notifier.Notify(context.Background(), appt.CustomerID, models.NotifyBookingCancelled, data); nerr != nil {
			utils.GetLogger().Warn("cancellation notification failed",
				zap.String("appointmentID", appt.ID), zap.Error(nerr))
		}
	}
	return nil
}

// Progress advances the appointment state machine. Terminal transitions that
// abandon the window (no_show) also release the held resources.
func (o *DefaultSchedulingOrchestrator) Progress(ctx context.Context, appointmentID, next string) error {
	appt, err := o.Repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !appt.CanTransitionTo(next) {
		return ErrBadTransition
	}
	if next == models.AppointmentStatusCancelled {
		return o.Cancel(ctx, appointmentID, "")
	}

	return o.runTx(ctx, func(txCtx context.Context) error {
		if err := o.Repo.UpdateAppointmentStatus(txCtx, appt.ID, next); err != nil {
			return &FatalError{Err: err}
		}
		if next == models.AppointmentStatusNoShow {
			if err := o.Repo.DeleteAppointmentResources(txCtx, appt.ID); err != nil {
				return &FatalError{Err: err}
			}
			if err := o.Repo.IncrementSpecialistBookingCount(txCtx, appt.SpecialistID, appt.ServiceID, -1); err != nil {
				return &FatalError{Err: err}
			}
		}
		return nil
	})
}

// runTx executes body inside a transaction, retrying transient commit
// failures with randomized backoff. Body errors abort without retry.
func (o *DefaultSchedulingOrchestrator) runTx(ctx context.Context, body func(txCtx context.Context) error) error {
	logger := utils.GetLogger()
	for attempt := 0; ; attempt++ {
		tx, err := o.Repo.BeginTx(ctx)
		if err != nil {
			return &FatalError{Err: err}
		}
		if err := body(tx.Context()); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		err = tx.Commit(ctx)
		if err == nil {
			return nil
		}
		if !schedulingRepo.IsTransient(err) {
			return &FatalError{Err: err}
		}
		if attempt+1 >= o.retries() {
			return &RetryableError{Err: err}
		}
		backoff := time.Duration(20+rand.Intn(80)) * time.Millisecond
		logger.Warn("transient commit failure, retrying",
			zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *DefaultSchedulingOrchestrator) notifyMoved(appt *models.Appointment) {
	if o.Notifier == nil {
		return
	}
	data := map[string]string{
		"appointmentId": appt.ID,
		"date":          appt.Date,
		"start":         appt.Start.Format("15:04"),
	}
	if err := o.Notifier.Notify(context.Background(), appt.CustomerID, models.NotifyBookingRescheduled, data); err != nil {
		utils.GetLogger().Warn("reschedule notification failed",
			zap.String("appointmentID", appt.ID), zap.Error(err))
	}
}
