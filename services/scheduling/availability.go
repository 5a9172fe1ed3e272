package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
	"glowbook/utils"
)

// AvailabilityEngine enumerates admissible slots for a service on a date.
// "No availability" is an empty result, never an error.
type AvailabilityEngine interface {
	SlotsForService(ctx context.Context, serviceID, date string) ([]models.Slot, error)
	SlotsForSpecialist(ctx context.Context, serviceID, specialistID, date string) ([]models.Slot, error)
	NextAvailableSpecialist(ctx context.Context, serviceID, date string, at time.Time) (string, error)
	EarliestAvailable(ctx context.Context, serviceID, startDate string, daysToCheck int, specialistID string) (*models.Slot, error)
	AvailableDays(ctx context.Context, serviceID, startDate, endDate string) ([]string, error)
}

// DefaultAvailabilityEngine is the production implementation.
type DefaultAvailabilityEngine struct {
	Repo     schedulingRepo.SchedulingRepository
	Cache    Cache
	Clock    Clock
	CacheTTL time.Duration
}

// specialistDay carries everything needed to test one specialist against any
// candidate window of a day. It is loaded in one batch before the
// slot-generation loop so the loop itself issues no I/O.
type specialistDay struct {
	link  models.SpecialistService
	hours *models.SpecialistWorkingHours
	appts []models.Appointment
}

func (e *DefaultAvailabilityEngine) SlotsForService(ctx context.Context, serviceID, date string) ([]models.Slot, error) {
	svc, err := e.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceStatusActive {
		return nil, ErrServiceNotActive
	}
	return e.enumerate(ctx, svc, date, "")
}

func (e *DefaultAvailabilityEngine) SlotsForSpecialist(ctx context.Context, serviceID, specialistID, date string) ([]models.Slot, error) {
	svc, err := e.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceStatusActive {
		return nil, ErrServiceNotActive
	}
	return e.enumerate(ctx, svc, date, specialistID)
}

// NextAvailableSpecialist returns the id of a specialist free for the
// service's full buffered window starting at the given instant, or "" when
// nobody qualifies. Primary links win ties.
func (e *DefaultAvailabilityEngine) NextAvailableSpecialist(ctx context.Context, serviceID, date string, at time.Time) (string, error) {
	svc, err := e.Repo.GetService(ctx, serviceID)
	if err != nil {
		return "", err
	}
	day, err := models.ParseDate(date, at.Location())
	if err != nil {
		return "", ErrInvalidDate
	}

	links, err := e.Repo.GetSpecialistLinks(ctx, serviceID)
	if err != nil {
		return "", err
	}
	sortLinks(links)

	for _, link := range links {
		sd, err := e.loadSpecialistDay(ctx, link, day)
		if err != nil {
			return "", err
		}
		dur := models.EffectiveDuration(svc, &link)
		end := at.Add(time.Duration(dur) * time.Minute)
		bufStart := at.Add(-time.Duration(svc.BufferBefore) * time.Minute)
		bufEnd := end.Add(time.Duration(svc.BufferAfter) * time.Minute)
		if sd.availableAt(bufStart, bufEnd) {
			return link.SpecialistID, nil
		}
	}
	return "", nil
}

// EarliestAvailable scans days forward from startDate and returns the first
// admissible slot, optionally pinned to one specialist.
func (e *DefaultAvailabilityEngine) EarliestAvailable(ctx context.Context, serviceID, startDate string, daysToCheck int, specialistID string) (*models.Slot, error) {
	svc, err := e.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceStatusActive {
		return nil, ErrServiceNotActive
	}
	day, err := models.ParseDate(startDate, e.Clock.Now().Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	for i := 0; i < daysToCheck; i++ {
		date := day.AddDate(0, 0, i).Format(models.DateLayout)
		slots, err := e.enumerate(ctx, svc, date, specialistID)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			return &slots[0], nil
		}
	}
	return nil, nil
}

// AvailableDays is the calendar view: dates in [startDate, endDate] with at
// least one admissible slot. Closed days are rejected before full slot
// enumeration, and per-day verdicts are cached.
func (e *DefaultAvailabilityEngine) AvailableDays(ctx context.Context, serviceID, startDate, endDate string) ([]string, error) {
	svc, err := e.Repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceStatusActive {
		return nil, ErrServiceNotActive
	}
	loc := e.Clock.Now().Location()
	from, err := models.ParseDate(startDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := models.ParseDate(endDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	logger := utils.GetLogger()
	var days []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(models.DateLayout)
		key := fmt.Sprintf("availday:%s:%s", serviceID, date)
		if verdict, ok := e.Cache.Get(ctx, key); ok {
			if verdict == "1" {
				days = append(days, date)
			}
			continue
		}

		available := false
		_, _, closed, err := e.dayWindow(ctx, svc, date, day)
		if err != nil {
			return nil, err
		}
		if !closed {
			slots, err := e.enumerate(ctx, svc, date, "")
			if err != nil {
				return nil, err
			}
			available = len(slots) > 0
		}

		verdict := "0"
		if available {
			verdict = "1"
			days = append(days, date)
		}
		e.Cache.Set(ctx, key, verdict, e.cacheTTL())
		logger.Debug("availability day computed",
			zap.String("serviceID", serviceID), zap.String("date", date), zap.Bool("available", available))
	}
	return days, nil
}

func (e *DefaultAvailabilityEngine) cacheTTL() time.Duration {
	if e.CacheTTL > 0 {
		return e.CacheTTL
	}
	return time.Minute
}

// dayWindow resolves the tightest operating window [open, close) for a
// service on a date. An exception day completely replaces weekly hours, and
// service-custom availability is ignored on exception days.
func (e *DefaultAvailabilityEngine) dayWindow(ctx context.Context, svc *models.Service, date string, day time.Time) (open, close int, closed bool, err error) {
	exc, err := e.Repo.GetServiceException(ctx, svc.ID, date)
	switch {
	case err == nil:
		if exc.IsClosed {
			return 0, 0, true, nil
		}
		if exc.From >= exc.To {
			return 0, 0, true, nil
		}
		return exc.From, exc.To, false, nil
	case isNotFound(err):
		// no exception; fall through to weekly hours
	default:
		return 0, 0, false, err
	}

	weekday := models.WeekdayOf(day)
	hours, err := e.Repo.GetShopHours(ctx, svc.ShopID, weekday)
	if err != nil {
		if isNotFound(err) {
			return 0, 0, true, nil
		}
		return 0, 0, false, err
	}
	if hours.IsClosed {
		return 0, 0, true, nil
	}
	open, close = hours.From, hours.To

	if svc.HasCustomAvailability {
		custom, err := e.Repo.GetServiceHours(ctx, svc.ID, weekday)
		if err != nil {
			if isNotFound(err) {
				return 0, 0, true, nil
			}
			return 0, 0, false, err
		}
		if custom.IsClosed {
			return 0, 0, true, nil
		}
		if custom.From > open {
			open = custom.From
		}
		if custom.To < close {
			close = custom.To
		}
	}

	if open >= close {
		return 0, 0, true, nil
	}
	return open, close, false, nil
}

// enumerate runs the single-date slot algorithm. pinnedID restricts
// admission to one specialist; empty means any linked specialist qualifies.
func (e *DefaultAvailabilityEngine) enumerate(ctx context.Context, svc *models.Service, date, pinnedID string) ([]models.Slot, error) {
	now := e.Clock.Now()
	day, err := models.ParseDate(date, now.Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return nil, nil
	}
	if svc.MaxAdvanceBookingDays > 0 && day.After(today.AddDate(0, 0, svc.MaxAdvanceBookingDays)) {
		return nil, nil
	}

	// Shop must exist even when its hours rows are missing.
	if _, err := e.Repo.GetShop(ctx, svc.ShopID); err != nil {
		return nil, err
	}

	open, close, closed, err := e.dayWindow(ctx, svc, date, day)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, nil
	}

	links, err := e.Repo.GetSpecialistLinks(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if pinnedID != "" {
		links = filterLinks(links, pinnedID)
	}
	if len(links) == 0 {
		return nil, nil
	}
	sortLinks(links)

	// Batch all per-specialist lookups before the generation loop.
	specialists := make([]*specialistDay, 0, len(links))
	for _, link := range links {
		sd, err := e.loadSpecialistDay(ctx, link, day)
		if err != nil {
			return nil, err
		}
		specialists = append(specialists, sd)
	}

	notice := now.Add(time.Duration(svc.MinBookingNotice) * time.Minute)
	gridDuration := svc.Duration
	if pinnedID != "" {
		gridDuration = models.EffectiveDuration(svc, &links[0])
	}

	var slots []models.Slot
	for startMin := open + svc.BufferBefore; startMin+gridDuration+svc.BufferAfter <= close; startMin += svc.SlotGranularity {
		start := models.AtMinute(day, startMin)
		if start.Before(notice) {
			continue
		}
		for _, sd := range specialists {
			dur := models.EffectiveDuration(svc, &sd.link)
			if startMin+dur+svc.BufferAfter > close {
				continue
			}
			end := start.Add(time.Duration(dur) * time.Minute)
			bufStart := start.Add(-time.Duration(svc.BufferBefore) * time.Minute)
			bufEnd := end.Add(time.Duration(svc.BufferAfter) * time.Minute)
			if sd.availableAt(bufStart, bufEnd) {
				slots = append(slots, models.Slot{
					Start:        start,
					End:          end,
					Date:         date,
					ServiceID:    svc.ID,
					SpecialistID: sd.link.SpecialistID,
					Duration:     dur,
					BufferBefore: svc.BufferBefore,
					BufferAfter:  svc.BufferAfter,
				})
				break
			}
		}
	}
	return slots, nil
}

// loadSpecialistDay fetches working hours and the day's live appointments
// (padded by the maximum buffer span on both sides) for one specialist.
func (e *DefaultAvailabilityEngine) loadSpecialistDay(ctx context.Context, link models.SpecialistService, day time.Time) (*specialistDay, error) {
	sd := &specialistDay{link: link}

	hours, err := e.Repo.GetSpecialistWorkingHours(ctx, link.SpecialistID, models.WeekdayOf(day))
	switch {
	case err == nil:
		sd.hours = hours
	case isNotFound(err):
		// no row: the specialist does not work this weekday
	default:
		return nil, err
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	from := midnight.Add(-2 * time.Hour)
	to := midnight.Add(26 * time.Hour)
	appts, err := e.Repo.GetAppointmentsForSpecialist(ctx, link.SpecialistID, from, to, models.LiveStatuses)
	if err != nil {
		return nil, err
	}
	sd.appts = appts
	return sd, nil
}

// availableAt reports whether the specialist can own the closed window
// [s, e): inside working hours and clear of every live appointment.
func (sd *specialistDay) availableAt(s, e time.Time) bool {
	if sd.hours == nil || sd.hours.IsOff {
		return false
	}
	sMin := models.MinuteOfDay(s)
	eMin := models.MinuteOfDay(e)
	if eMin == 0 && e.After(s) {
		eMin = 24 * 60
	}
	if sMin < sd.hours.From || eMin > sd.hours.To {
		return false
	}
	for i := range sd.appts {
		if sd.appts[i].Overlaps(s, e) {
			return false
		}
	}
	return true
}

func filterLinks(links []models.SpecialistService, specialistID string) []models.SpecialistService {
	var out []models.SpecialistService
	for _, l := range links {
		if l.SpecialistID == specialistID {
			out = append(out, l)
		}
	}
	return out
}

// sortLinks orders primary links first, then by specialist id so slot
// attribution is deterministic.
func sortLinks(links []models.SpecialistService) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].IsPrimary != links[j].IsPrimary {
			return links[i].IsPrimary
		}
		return links[i].SpecialistID < links[j].SpecialistID
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, schedulingRepo.ErrNotFound)
}
