package scheduling

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"glowbook/models"
	"glowbook/utils"
)

// scheduleByStrategy handles requests that pin neither time nor specialist.
func (o *DefaultSchedulingOrchestrator) scheduleByStrategy(ctx context.Context, svc *models.Service, req ScheduleRequest) (*ScheduleResult, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyEarliest
	}
	switch strategy {
	case StrategyEarliest:
		return o.scheduleEarliest(ctx, svc, req)
	case StrategyBalancedWorkload:
		return o.scheduleBalanced(ctx, svc, req)
	case StrategyMinimizeWait:
		return o.scheduleMinimizeWait(ctx, svc, req)
	case StrategyResourceEfficient:
		return o.scheduleResourceEfficient(ctx, svc, req)
	default:
		return nil, NewValidationError("unknownStrategy", "unsupported booking strategy: "+strategy)
	}
}

// scheduleEarliest books the first admissible slot on the requested date,
// scanning up to a week ahead when the day is full.
func (o *DefaultSchedulingOrchestrator) scheduleEarliest(ctx context.Context, svc *models.Service, req ScheduleRequest) (*ScheduleResult, error) {
	date := req.Date
	for day := 0; day <= alternativeWindow; day++ {
		slots, err := o.Availability.SlotsForService(ctx, svc.ID, date)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			res, err := o.bookSlots(ctx, svc, req, slots)
			if err != nil {
				return nil, err
			}
			if res.Success {
				return res, nil
			}
		}
		next, err := nextDate(date, 1)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = next
	}
	return &ScheduleResult{Reason: ReasonNoAvailability}, nil
}

// scheduleBalanced spreads load: qualified specialists are ranked by their
// booking count on the target day, ties broken by their trailing allocation
// share, and the least-loaded specialist with an open slot wins.
func (o *DefaultSchedulingOrchestrator) scheduleBalanced(ctx context.Context, svc *models.Service, req ScheduleRequest) (*ScheduleResult, error) {
	links, err := o.Repo.GetSpecialistLinks(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return &ScheduleResult{Reason: ReasonNoSpecialist}, nil
	}

	day, err := models.ParseDate(req.Date, o.now().Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	dayEnd := day.AddDate(0, 0, 1)

	type ranked struct {
		specialistID string
		dayLoad      int
		ratio        float64
	}
	order := make([]ranked, 0, len(links))
	for _, link := range links {
		load, err := o.Repo.CountAppointmentsForSpecialistInRange(ctx, link.SpecialistID, day, dayEnd, models.LiveStatuses)
		if err != nil {
			return nil, err
		}
		ratio := 0.0
		if o.Predictor != nil {
			r, err := o.Predictor.SpecialistAllocationRatio(ctx, link.SpecialistID, svc.ShopID)
			if err != nil {
				utils.GetLogger().Warn("allocation ratio lookup failed",
					zap.String("specialistID", link.SpecialistID), zap.Error(err))
			} else {
				ratio = r
			}
		}
		order = append(order, ranked{specialistID: link.SpecialistID, dayLoad: load, ratio: ratio})
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].dayLoad != order[j].dayLoad {
			return order[i].dayLoad < order[j].dayLoad
		}
		return order[i].ratio < order[j].ratio
	})

	for _, r := range order {
		slots, err := o.Availability.SlotsForSpecialist(ctx, svc.ID, r.specialistID, req.Date)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		res, err := o.bookSlots(ctx, svc, req, slots)
		if err != nil {
			return nil, err
		}
		if res.Success {
			return res, nil
		}
	}
	return &ScheduleResult{Reason: ReasonNoAvailability}, nil
}

// scheduleMinimizeWait merges every qualified specialist's slots and books
// the earliest start of the day, regardless of whose it is.
func (o *DefaultSchedulingOrchestrator) scheduleMinimizeWait(ctx context.Context, svc *models.Service, req ScheduleRequest) (*ScheduleResult, error) {
	links, err := o.Repo.GetSpecialistLinks(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return &ScheduleResult{Reason: ReasonNoSpecialist}, nil
	}

	var merged []models.Slot
	for _, link := range links {
		slots, err := o.Availability.SlotsForSpecialist(ctx, svc.ID, link.SpecialistID, req.Date)
		if err != nil {
			return nil, err
		}
		merged = append(merged, slots...)
	}
	if len(merged) == 0 {
		return &ScheduleResult{Reason: ReasonNoAvailability}, nil
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})
	return o.bookSlots(ctx, svc, req, merged)
}

// scheduleResourceEfficient prefers slots that pack the service's resources
// tightly against existing allocations, reducing idle fragmentation.
func (o *DefaultSchedulingOrchestrator) scheduleResourceEfficient(ctx context.Context, svc *models.Service, req ScheduleRequest) (*ScheduleResult, error) {
	required, err := o.Repo.GetServiceResources(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		return o.scheduleEarliest(ctx, svc, req)
	}

	slots, err := o.Availability.SlotsForService(ctx, svc.ID, req.Date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return o.scheduleEarliest(ctx, svc, req)
	}

	day, err := models.ParseDate(req.Date, o.now().Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	dayEnd := day.AddDate(0, 0, 1)

	var usage []models.AppointmentResource
	for _, r := range required {
		allocs, err := o.Repo.GetResourceAllocations(ctx, r.ResourceID, day, dayEnd, models.LiveStatuses)
		if err != nil {
			return nil, err
		}
		usage = append(usage, allocs...)
	}

	type scored struct {
		slot  models.Slot
		score int
	}
	ranked := make([]scored, 0, len(slots))
	for _, s := range slots {
		ranked = append(ranked, scored{slot: s, score: packingScore(s, usage)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].slot.Start.Before(ranked[j].slot.Start)
	})
	// When no slot packs (best score non-positive) there is nothing to
	// optimize for; plain earliest-first ordering takes over.
	if ranked[0].score <= 0 {
		return o.scheduleEarliest(ctx, svc, req)
	}

	ordered := make([]models.Slot, len(ranked))
	for i, r := range ranked {
		ordered[i] = r.slot
	}
	res, err := o.bookSlots(ctx, svc, req, ordered)
	if err != nil {
		return nil, err
	}
	if res.Success {
		return res, nil
	}
	return o.scheduleEarliest(ctx, svc, req)
}

// packingScore rates a slot against existing resource usage: adjacency is
// rewarded, overlap penalized, isolation neutral.
func packingScore(slot models.Slot, usage []models.AppointmentResource) int {
	score := 0
	for i := range usage {
		gap := windowGap(slot.Start, slot.End, usage[i].Start, usage[i].End)
		switch {
		case gap < 0:
			score -= 20
		case gap < 15:
			score += 10
		case gap < 30:
			score += 5
		case gap < 60:
			score += 1
		}
	}
	return score
}

// windowGap is the distance in minutes between two half-open windows, or -1
// when they overlap.
func windowGap(aStart, aEnd, bStart, bEnd time.Time) int {
	if aStart.Before(bEnd) && aEnd.After(bStart) {
		return -1
	}
	if !aEnd.After(bStart) {
		return int(bStart.Sub(aEnd) / time.Minute)
	}
	return int(aStart.Sub(bEnd) / time.Minute)
}
