package schedulingRepo

import (
	"context"
	"errors"
	"time"

	"glowbook/models"
)

// ErrNotFound is returned for missing shops, services, specialists,
// appointments and resources. Callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// Tx is an explicit transaction handle. All writes issued with the handle's
// context are committed or rolled back together with serializable semantics.
type Tx interface {
	// Context returns the context writes must be issued with.
	Context() context.Context
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SchedulingRepository is the read/write surface the scheduling core
// requires from persistence.
type SchedulingRepository interface {
	// Shop and schedule reads.
	GetShop(ctx context.Context, id string) (*models.Shop, error)
	ListShops(ctx context.Context) ([]models.Shop, error)
	GetShopHours(ctx context.Context, shopID string, weekday int) (*models.ShopHours, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	GetServiceHours(ctx context.Context, serviceID string, weekday int) (*models.ServiceAvailability, error)
	GetServiceException(ctx context.Context, serviceID, date string) (*models.ServiceException, error)

	// Specialist reads.
	GetSpecialist(ctx context.Context, id string) (*models.Specialist, error)
	GetSpecialistLinks(ctx context.Context, serviceID string) ([]models.SpecialistService, error)
	GetSpecialistLink(ctx context.Context, specialistID, serviceID string) (*models.SpecialistService, error)
	GetSpecialistWorkingHours(ctx context.Context, specialistID string, weekday int) (*models.SpecialistWorkingHours, error)

	// Appointment reads.
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	GetAppointmentsForSpecialist(ctx context.Context, specialistID string, from, to time.Time, statuses []string) ([]models.Appointment, error)
	CountAppointmentsForServiceAt(ctx context.Context, serviceID string, at time.Time, statuses []string, excludeID string) (int, error)
	GetCompletedAppointments(ctx context.Context, customerID, shopID, serviceID string, endingBefore time.Time) ([]models.Appointment, error)
	CountAppointmentsForShopInRange(ctx context.Context, shopID string, from, to time.Time, statuses []string) (int, error)
	CountAppointmentsForSpecialistInRange(ctx context.Context, specialistID string, from, to time.Time, statuses []string) (int, error)
	CountAppointmentsForPackage(ctx context.Context, packageID string, statuses []string) (int, error)
	CountAppointmentsForLink(ctx context.Context, specialistID, serviceID string, statuses []string) (int, error)

	// Resource reads.
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	GetResourcesByType(ctx context.Context, shopID, resourceType string) ([]models.Resource, error)
	GetServiceResources(ctx context.Context, serviceID string) ([]models.ServiceResource, error)
	GetResourceAvailability(ctx context.Context, resourceID string, weekday int) ([]models.ResourceAvailability, error)
	HasResourceAvailability(ctx context.Context, resourceID string) (bool, error)
	GetResourceAllocations(ctx context.Context, resourceID string, from, to time.Time, statuses []string) ([]models.AppointmentResource, error)
	GetAppointmentResources(ctx context.Context, appointmentID string) ([]models.AppointmentResource, error)

	// Dependency and package reads.
	GetServiceDependencies(ctx context.Context, serviceID, depType string) ([]models.ServiceDependency, error)
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	GetPackageServices(ctx context.Context, packageID string) ([]models.PackageService, error)
	ListPackages(ctx context.Context, shopID string) ([]models.Package, error)
	ListSpecialistLinks(ctx context.Context, shopID string) ([]models.SpecialistService, error)

	// Writes. Issue these with a Tx context to make them transactional.
	BeginTx(ctx context.Context) (Tx, error)
	InsertAppointment(ctx context.Context, appt *models.Appointment) error
	UpdateAppointment(ctx context.Context, appt *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	InsertAppointmentResource(ctx context.Context, alloc *models.AppointmentResource) error
	DeleteAppointmentResources(ctx context.Context, appointmentID string) error
	IncrementPackageCounter(ctx context.Context, packageID string, delta int) error
	IncrementSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, delta int) error
	SetPackageCounter(ctx context.Context, packageID string, value int) error
	SetSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, value int) error
}
