package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glowbook/models"
	"glowbook/utils"
)

// Multi-service booking modes.
const (
	MultiModeSequential  = "sequential"
	MultiModeIndependent = "independent"
)

// Per-leg outcomes.
const (
	LegStatusOK           = "ok"
	LegStatusFailed       = "fail"
	LegStatusNotAttempted = "not_attempted"
)

// MultiServiceRequest books several services for one customer in one call.
// Sequential mode chains legs back to back; independent mode places each leg
// on its own.
type MultiServiceRequest struct {
	ShopID     string
	CustomerID string
	Date       string
	Time       string // optional first-leg start, sequential mode only
	ServiceIDs []string
	Mode       string // sequential (default) | independent
	PackageID  string // resolves ServiceIDs and leg order when set
	Notes      string
}

// LegResult is the outcome of one service inside a multi-service booking.
type LegResult struct {
	ServiceID   string                  `json:"service_id"`
	Status      string                  `json:"status"`
	Appointment *models.Appointment     `json:"appointment,omitempty"`
	Conflicts   *models.AggregateReport `json:"conflicts,omitempty"`
	Reason      string                  `json:"reason,omitempty"`
}

// MultiServiceResult reports the whole booking. Inconsistent is raised only
// when compensation itself failed and a committed leg may be stranded.
type MultiServiceResult struct {
	Success      bool        `json:"success"`
	PackageID    string      `json:"package_id,omitempty"`
	Legs         []LegResult `json:"legs"`
	Reason       string      `json:"reason,omitempty"`
	Inconsistent bool        `json:"inconsistent,omitempty"`
}

// ScheduleMultipleServices books every requested service. Sequential mode is
// all-or-nothing: a failing leg cancels the legs already committed.
func (o *DefaultSchedulingOrchestrator) ScheduleMultipleServices(ctx context.Context, req MultiServiceRequest) (*MultiServiceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deadline())
	defer cancel()

	serviceIDs, err := o.resolveLegServices(ctx, &req)
	if err != nil {
		return nil, err
	}
	if len(serviceIDs) == 0 {
		return nil, NewValidationError("emptyBooking", "no services to schedule")
	}

	groupID := req.PackageID
	if groupID == "" && len(serviceIDs) > 1 {
		groupID = uuid.New().String()
	}

	if req.Mode == MultiModeIndependent {
		return o.scheduleIndependent(ctx, req, serviceIDs, groupID)
	}
	return o.scheduleSequential(ctx, req, serviceIDs, groupID)
}

// resolveLegServices returns the leg order: package members by position, or
// the explicit list sorted longest-first so the hardest-to-place leg anchors
// the chain.
func (o *DefaultSchedulingOrchestrator) resolveLegServices(ctx context.Context, req *MultiServiceRequest) ([]string, error) {
	if req.PackageID != "" {
		pkg, err := o.Repo.GetPackage(ctx, req.PackageID)
		if err != nil {
			return nil, err
		}
		if !pkg.IsActive {
			return nil, NewValidationError("packageNotActive", "package is not active")
		}
		if req.ShopID == "" {
			req.ShopID = pkg.ShopID
		}
		members, err := o.Repo.GetPackageServices(ctx, req.PackageID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.ServiceID
		}
		return ids, nil
	}

	type legSvc struct {
		id       string
		duration int
	}
	legs := make([]legSvc, 0, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		svc, err := o.Repo.GetService(ctx, id)
		if err != nil {
			return nil, err
		}
		legs = append(legs, legSvc{id: id, duration: svc.Duration})
	}
	sort.SliceStable(legs, func(i, j int) bool { return legs[i].duration > legs[j].duration })
	ids := make([]string, len(legs))
	for i, l := range legs {
		ids[i] = l.id
	}
	return ids, nil
}

func (o *DefaultSchedulingOrchestrator) scheduleSequential(ctx context.Context, req MultiServiceRequest, serviceIDs []string, groupID string) (*MultiServiceResult, error) {
	result := &MultiServiceResult{PackageID: groupID, Legs: make([]LegResult, len(serviceIDs))}
	for i, id := range serviceIDs {
		result.Legs[i] = LegResult{ServiceID: id, Status: LegStatusNotAttempted}
	}

	var committed []*models.Appointment
	var nextStart time.Time
	var prevSpecialist string

	for i, serviceID := range serviceIDs {
		svc, err := o.Repo.GetService(ctx, serviceID)
		if err != nil {
			o.compensate(ctx, committed, result)
			return nil, err
		}
		if svc.Status != models.ServiceStatusActive {
			result.Legs[i].Status = LegStatusFailed
			result.Legs[i].Reason = "service_not_active"
			o.compensate(ctx, committed, result)
			result.Reason = ReasonPartialFailure
			return result, nil
		}

		legRes, err := o.bookLeg(ctx, svc, req, groupID, i, nextStart, prevSpecialist)
		if err != nil {
			o.compensate(ctx, committed, result)
			return nil, err
		}
		if !legRes.Success {
			result.Legs[i].Status = LegStatusFailed
			result.Legs[i].Conflicts = legRes.Conflicts
			result.Legs[i].Reason = legRes.Reason
			o.compensate(ctx, committed, result)
			result.Reason = ReasonPartialFailure
			return result, nil
		}

		appt := legRes.Appointment
		result.Legs[i].Status = LegStatusOK
		result.Legs[i].Appointment = appt
		committed = append(committed, appt)
		nextStart = appt.End.Add(time.Duration(appt.BufferAfter) * time.Minute)
		prevSpecialist = appt.SpecialistID
	}

	if req.PackageID != "" {
		if err := o.bumpPackageCounter(ctx, req.PackageID, 1); err != nil {
			utils.GetLogger().Error("package counter increment failed",
				zap.String("packageID", req.PackageID), zap.Error(err))
			result.Inconsistent = true
		}
		o.notifyPackage(req.CustomerID, models.NotifyPackageConfirmation, committed)
	}

	result.Success = true
	return result, nil
}

// bookLeg places one sequential leg. The first leg honours the requested
// time when given; later legs start where the previous leg's trailing buffer
// ends. The previous leg's specialist is preferred when qualified and free.
func (o *DefaultSchedulingOrchestrator) bookLeg(ctx context.Context, svc *models.Service, req MultiServiceRequest, groupID string, legIndex int, nextStart time.Time, prevSpecialist string) (*ScheduleResult, error) {
	legReq := ScheduleRequest{
		ShopID:     req.ShopID,
		ServiceID:  svc.ID,
		CustomerID: req.CustomerID,
		Date:       req.Date,
		Notes:      req.Notes,
		PackageID:  groupID,
	}

	if legIndex == 0 {
		if req.Time != "" {
			legReq.Time = req.Time
		}
		return o.schedule(ctx, legReq)
	}

	start := nextStart
	legReq.Date = start.Format(models.DateLayout)

	if prevSpecialist != "" {
		if _, err := o.Repo.GetSpecialistLink(ctx, prevSpecialist, svc.ID); err == nil {
			res, err := o.bookAt(ctx, svc, legReq, prevSpecialist, start)
			if err != nil {
				return nil, err
			}
			if res.Success {
				return res, nil
			}
		}
	}

	specialistID, err := o.Availability.NextAvailableSpecialist(ctx, svc.ID, legReq.Date, start)
	if err != nil {
		return nil, err
	}
	if specialistID == "" {
		return &ScheduleResult{Reason: ReasonNoSpecialist}, nil
	}
	return o.bookAt(ctx, svc, legReq, specialistID, start)
}

func (o *DefaultSchedulingOrchestrator) scheduleIndependent(ctx context.Context, req MultiServiceRequest, serviceIDs []string, groupID string) (*MultiServiceResult, error) {
	result := &MultiServiceResult{PackageID: groupID, Legs: make([]LegResult, len(serviceIDs))}
	okCount := 0

	for i, serviceID := range serviceIDs {
		result.Legs[i] = LegResult{ServiceID: serviceID, Status: LegStatusNotAttempted}
		legReq := ScheduleRequest{
			ShopID:     req.ShopID,
			ServiceID:  serviceID,
			CustomerID: req.CustomerID,
			Date:       req.Date,
			Strategy:   StrategyEarliest,
			Notes:      req.Notes,
			PackageID:  groupID,
		}
		res, err := o.schedule(ctx, legReq)
		if err != nil {
			return nil, err
		}
		if res.Success {
			result.Legs[i].Status = LegStatusOK
			result.Legs[i].Appointment = res.Appointment
			okCount++
		} else {
			result.Legs[i].Status = LegStatusFailed
			result.Legs[i].Conflicts = res.Conflicts
			result.Legs[i].Reason = res.Reason
		}
	}

	result.Success = okCount == len(serviceIDs)
	if !result.Success {
		result.Reason = ReasonPartialFailure
	}
	return result, nil
}

// compensate cancels committed legs in reverse order. A compensated leg keeps
// its ok status: the booking did succeed, and the rollback is reported through
// Reason. A compensation failure is never swallowed silently: it is logged and
// marks the result inconsistent for reconciliation.
func (o *DefaultSchedulingOrchestrator) compensate(ctx context.Context, committed []*models.Appointment, result *MultiServiceResult) {
	logger := utils.GetLogger()
	for i := len(committed) - 1; i >= 0; i-- {
		appt := committed[i]
		if err := o.Cancel(ctx, appt.ID, "multi_service_compensation"); err != nil {
			logger.Error("compensation cancel failed",
				zap.String("appointmentID", appt.ID), zap.Error(err))
			result.Inconsistent = true
			continue
		}
		for j := range result.Legs {
			if result.Legs[j].Appointment != nil && result.Legs[j].Appointment.ID == appt.ID {
				result.Legs[j].Reason = "rolled_back"
			}
		}
	}
}

// bumpPackageCounter adjusts the purchase counter in its own transaction.
// Drift is tolerated: the nightly reconciliation recomputes the counter from
// appointment rows.
func (o *DefaultSchedulingOrchestrator) bumpPackageCounter(ctx context.Context, packageID string, delta int) error {
	tx, err := o.Repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := o.Repo.IncrementPackageCounter(tx.Context(), packageID, delta); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (o *DefaultSchedulingOrchestrator) notifyPackage(customerID, kind string, legs []*models.Appointment) {
	if o.Notifier == nil || len(legs) == 0 {
		return
	}
	data := map[string]string{
		"packageId": legs[0].PackageID,
		"date":      legs[0].Date,
		"start":     legs[0].Start.Format("15:04"),
	}
	if err := o.Notifier.Notify(context.Background(), customerID, kind, data); err != nil {
		utils.GetLogger().Warn("package notification failed", zap.Error(err))
	}
}
