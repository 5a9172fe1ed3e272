package prediction

import (
	"context"
	"time"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
)

// DefaultAllocationRatio is returned when a shop has too little history for
// a meaningful share.
const DefaultAllocationRatio = 0.2

// minSampleSize is the trailing appointment count below which the ratio
// falls back to the default.
const minSampleSize = 10

// historyWeeks is how many same-weekday samples feed the demand average.
const historyWeeks = 4

var demandStatuses = []string{
	models.AppointmentStatusScheduled,
	models.AppointmentStatusConfirmed,
	models.AppointmentStatusInProgress,
	models.AppointmentStatusCompleted,
}

// DefaultPredictionService derives predictions from historical appointment
// rows. It stands in for the external ML predictor behind the same contract.
type DefaultPredictionService struct {
	Repo schedulingRepo.SchedulingRepository
}

// PredictDailyDemand averages bookings over the same weekday of the trailing
// weeks, per requested date.
func (p *DefaultPredictionService) PredictDailyDemand(ctx context.Context, shopID string, dates []string) (map[string]int, error) {
	out := make(map[string]int, len(dates))
	for _, date := range dates {
		day, err := models.ParseDate(date, time.Local)
		if err != nil {
			continue
		}
		total := 0
		for week := 1; week <= historyWeeks; week++ {
			from := day.AddDate(0, 0, -7*week)
			to := from.AddDate(0, 0, 1)
			n, err := p.Repo.CountAppointmentsForShopInRange(ctx, shopID, from, to, demandStatuses)
			if err != nil {
				return nil, err
			}
			total += n
		}
		out[date] = total / historyWeeks
	}
	return out, nil
}

// SpecialistAllocationRatio is the specialist's share of the shop's bookings
// over the trailing 30 days.
func (p *DefaultPredictionService) SpecialistAllocationRatio(ctx context.Context, specialistID, shopID string) (float64, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	shopCount, err := p.Repo.CountAppointmentsForShopInRange(ctx, shopID, from, to, demandStatuses)
	if err != nil {
		return 0, err
	}
	if shopCount < minSampleSize {
		return DefaultAllocationRatio, nil
	}
	specCount, err := p.Repo.CountAppointmentsForSpecialistInRange(ctx, specialistID, from, to, demandStatuses)
	if err != nil {
		return 0, err
	}
	return float64(specCount) / float64(shopCount), nil
}
