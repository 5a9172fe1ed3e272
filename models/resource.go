package models

import "time"

// Resource is shop equipment or a room that appointments occupy exclusively.
type Resource struct {
	ID     string `bson:"id" json:"id"`
	ShopID string `bson:"shop_id" json:"shop_id"`
	Name   string `bson:"name" json:"name"`
	Type   string `bson:"type" json:"type"` // e.g. "room", "chair", "machine"
}

// ResourceAvailability is a per-weekday usable window for a resource.
// A resource with no availability rows at all is always available.
type ResourceAvailability struct {
	ResourceID string `bson:"resource_id" json:"resource_id"`
	Weekday    int    `bson:"weekday" json:"weekday"`
	From       int    `bson:"from" json:"from"`
	To         int    `bson:"to" json:"to"`
}

// ServiceResource declares that a service needs Quantity units of a resource
// for every appointment.
type ServiceResource struct {
	ServiceID  string `bson:"service_id" json:"service_id"`
	ResourceID string `bson:"resource_id" json:"resource_id"`
	Quantity   int    `bson:"quantity" json:"quantity"`
}

// AppointmentResource holds one resource for the lifetime of its appointment.
// Rows are created with the appointment and destroyed on cancel or on
// reschedule with a resource change.
type AppointmentResource struct {
	ID            string    `bson:"id" json:"id"`
	AppointmentID string    `bson:"appointment_id" json:"appointment_id"`
	ResourceID    string    `bson:"resource_id" json:"resource_id"`
	Quantity      int       `bson:"quantity" json:"quantity"`
	Start         time.Time `bson:"start" json:"start"`
	End           time.Time `bson:"end" json:"end"`
}
