package prediction

import "context"

// PredictionService is the demand/allocation predictor contract the
// scheduling core consumes. The balanced strategy uses allocation ratios to
// break ties; alternative-suggestion ranking uses daily demand.
type PredictionService interface {
	// PredictDailyDemand returns expected bookings per date; it may return
	// an empty map.
	PredictDailyDemand(ctx context.Context, shopID string, dates []string) (map[string]int, error)
	// SpecialistAllocationRatio is the specialist's fraction-of-shop share
	// in 0..1, defaulting to 0.2 without sufficient history.
	SpecialistAllocationRatio(ctx context.Context, specialistID, shopID string) (float64, error)
}
