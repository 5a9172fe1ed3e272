package models

// Specialist is an employee of exactly one shop who delivers services.
type Specialist struct {
	ID       string `bson:"id" json:"id"`
	ShopID   string `bson:"shop_id" json:"shop_id"`
	Name     string `bson:"name" json:"name"`
	IsActive bool   `bson:"is_active" json:"is_active"`
}

// SpecialistWorkingHours is the working window for one weekday
// (0=Sunday ... 6=Saturday), minutes from midnight, half-open [From, To).
type SpecialistWorkingHours struct {
	SpecialistID string `bson:"specialist_id" json:"specialist_id"`
	Weekday      int    `bson:"weekday" json:"weekday"`
	IsOff        bool   `bson:"is_off" json:"is_off"`
	From         int    `bson:"from" json:"from"`
	To           int    `bson:"to" json:"to"`
}

// SpecialistService links a specialist to a service they can deliver.
type SpecialistService struct {
	SpecialistID     string `bson:"specialist_id" json:"specialist_id"`
	ServiceID        string `bson:"service_id" json:"service_id"`
	IsPrimary        bool   `bson:"is_primary" json:"is_primary"`
	CustomDuration   *int   `bson:"custom_duration,omitempty" json:"custom_duration,omitempty"` // minutes, overrides Service.Duration
	ProficiencyLevel string `bson:"proficiency_level,omitempty" json:"proficiency_level,omitempty"`
	BookingCount     int    `bson:"booking_count" json:"booking_count"` // derived; recomputable from appointments
}

// EffectiveDuration resolves the duration a given specialist needs for a
// service: the per-link override when set, the service default otherwise.
func EffectiveDuration(svc *Service, link *SpecialistService) int {
	if link != nil && link.CustomDuration != nil && *link.CustomDuration > 0 {
		return *link.CustomDuration
	}
	return svc.Duration
}
