package models

// Service status values.
const (
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
	ServiceStatusDraft    = "draft"
	ServiceStatusArchived = "archived"
)

// Service location values.
const (
	ServiceLocationInShop = "in_shop"
	ServiceLocationInHome = "in_home"
	ServiceLocationBoth   = "both"
)

// Service is a bookable offering of a shop. All durations and buffers are
// whole minutes.
type Service struct {
	ID                    string  `bson:"id" json:"id"`
	ShopID                string  `bson:"shop_id" json:"shop_id"`
	Name                  string  `bson:"name" json:"name"`
	Duration              int     `bson:"duration" json:"duration"`                 // 1..1440
	SlotGranularity       int     `bson:"slot_granularity" json:"slot_granularity"` // 5..120, typically 15 or 30
	BufferBefore          int     `bson:"buffer_before" json:"buffer_before"`       // 0..120
	BufferAfter           int     `bson:"buffer_after" json:"buffer_after"`         // 0..120
	Location              string  `bson:"location" json:"location"`
	Status                string  `bson:"status" json:"status"`
	HasCustomAvailability bool    `bson:"has_custom_availability" json:"has_custom_availability"`
	MinBookingNotice      int     `bson:"min_booking_notice" json:"min_booking_notice"` // minutes
	MaxAdvanceBookingDays int     `bson:"max_advance_booking_days" json:"max_advance_booking_days"`
	MaxConcurrentBookings *int    `bson:"max_concurrent_bookings,omitempty" json:"max_concurrent_bookings,omitempty"` // nil = unlimited
	Price                 float64 `bson:"price" json:"price"`
}

// ConcurrencyLimited reports whether the service carries a concurrent-booking
// ceiling. A nil or non-positive ceiling means unlimited.
func (s *Service) ConcurrencyLimited() bool {
	return s.MaxConcurrentBookings != nil && *s.MaxConcurrentBookings > 0
}

// ServiceAvailability is a per-weekday override consulted only when the
// service has HasCustomAvailability set.
type ServiceAvailability struct {
	ServiceID string `bson:"service_id" json:"service_id"`
	Weekday   int    `bson:"weekday" json:"weekday"`
	IsClosed  bool   `bson:"is_closed" json:"is_closed"`
	From      int    `bson:"from" json:"from"`
	To        int    `bson:"to" json:"to"`
}

// ServiceException overrides the weekly schedule for a single date
// ("2006-01-02"). An exception day completely replaces weekly hours.
type ServiceException struct {
	ServiceID string `bson:"service_id" json:"service_id"`
	Date      string `bson:"date" json:"date"`
	IsClosed  bool   `bson:"is_closed" json:"is_closed"`
	From      int    `bson:"from" json:"from"`
	To        int    `bson:"to" json:"to"`
	Reason    string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Dependency type values.
const (
	DependencyTypePrerequisite = "prerequisite"
)

// ServiceDependency is a directed edge: booking DependentID requires a
// completed appointment of PrerequisiteID for the same customer in the same
// shop, ending before the dependent's start.
type ServiceDependency struct {
	DependentID    string `bson:"dependent_id" json:"dependent_id"`
	PrerequisiteID string `bson:"prerequisite_id" json:"prerequisite_id"`
	Type           string `bson:"type" json:"type"`
}
