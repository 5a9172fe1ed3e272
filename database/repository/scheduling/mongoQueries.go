package schedulingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"glowbook/models"
)

func (repo *MongoSchedulingRepo) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	var shop models.Shop
	if err := findOne(ctx, repo.shopColl, bson.M{"id": id}, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

func (repo *MongoSchedulingRepo) ListShops(ctx context.Context) ([]models.Shop, error) {
	return findAll[models.Shop](ctx, repo.shopColl, bson.M{})
}

func (repo *MongoSchedulingRepo) GetShopHours(ctx context.Context, shopID string, weekday int) (*models.ShopHours, error) {
	var hours models.ShopHours
	if err := findOne(ctx, repo.shopHoursColl, bson.M{"shop_id": shopID, "weekday": weekday}, &hours); err != nil {
		return nil, err
	}
	return &hours, nil
}

func (repo *MongoSchedulingRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := findOne(ctx, repo.serviceColl, bson.M{"id": id}, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (repo *MongoSchedulingRepo) GetServiceHours(ctx context.Context, serviceID string, weekday int) (*models.ServiceAvailability, error) {
	var hours models.ServiceAvailability
	if err := findOne(ctx, repo.serviceHoursColl, bson.M{"service_id": serviceID, "weekday": weekday}, &hours); err != nil {
		return nil, err
	}
	return &hours, nil
}

func (repo *MongoSchedulingRepo) GetServiceException(ctx context.Context, serviceID, date string) (*models.ServiceException, error) {
	var exc models.ServiceException
	if err := findOne(ctx, repo.exceptionColl, bson.M{"service_id": serviceID, "date": date}, &exc); err != nil {
		return nil, err
	}
	return &exc, nil
}

func (repo *MongoSchedulingRepo) GetSpecialist(ctx context.Context, id string) (*models.Specialist, error) {
	var sp models.Specialist
	if err := findOne(ctx, repo.specialistColl, bson.M{"id": id}, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (repo *MongoSchedulingRepo) GetSpecialistLinks(ctx context.Context, serviceID string) ([]models.SpecialistService, error) {
	return findAll[models.SpecialistService](ctx, repo.specServiceColl, bson.M{"service_id": serviceID})
}

func (repo *MongoSchedulingRepo) GetSpecialistLink(ctx context.Context, specialistID, serviceID string) (*models.SpecialistService, error) {
	var link models.SpecialistService
	filter := bson.M{"specialist_id": specialistID, "service_id": serviceID}
	if err := findOne(ctx, repo.specServiceColl, filter, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (repo *MongoSchedulingRepo) GetSpecialistWorkingHours(ctx context.Context, specialistID string, weekday int) (*models.SpecialistWorkingHours, error) {
	var hours models.SpecialistWorkingHours
	filter := bson.M{"specialist_id": specialistID, "weekday": weekday}
	if err := findOne(ctx, repo.workingHoursColl, filter, &hours); err != nil {
		return nil, err
	}
	return &hours, nil
}

func (repo *MongoSchedulingRepo) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := findOne(ctx, repo.appointmentColl, bson.M{"id": id}, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetAppointmentsForSpecialist returns the specialist's appointments whose
// [start, end) overlaps [from, to), ordered by start.
func (repo *MongoSchedulingRepo) GetAppointmentsForSpecialist(ctx context.Context, specialistID string, from, to time.Time, statuses []string) ([]models.Appointment, error) {
	filter := bson.M{
		"specialist_id": specialistID,
		"status":        bson.M{"$in": statuses},
		"start":         bson.M{"$lt": to},
		"end":           bson.M{"$gt": from},
	}
	cursor, err := repo.appointmentColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

// CountAppointmentsForServiceAt counts appointments of the service whose
// interval contains the instant. The capacity ceiling is measured at the
// starting instant, not by interval overlap.
func (repo *MongoSchedulingRepo) CountAppointmentsForServiceAt(ctx context.Context, serviceID string, at time.Time, statuses []string, excludeID string) (int, error) {
	filter := bson.M{
		"service_id": serviceID,
		"status":     bson.M{"$in": statuses},
		"start":      bson.M{"$lte": at},
		"end":        bson.M{"$gt": at},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	n, err := repo.appointmentColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting concurrent appointments: %w", err)
	}
	return int(n), nil
}

func (repo *MongoSchedulingRepo) GetCompletedAppointments(ctx context.Context, customerID, shopID, serviceID string, endingBefore time.Time) ([]models.Appointment, error) {
	filter := bson.M{
		"customer_id": customerID,
		"shop_id":     shopID,
		"service_id":  serviceID,
		"status":      models.AppointmentStatusCompleted,
		"end":         bson.M{"$lt": endingBefore},
	}
	return findAll[models.Appointment](ctx, repo.appointmentColl, filter)
}

func (repo *MongoSchedulingRepo) CountAppointmentsForShopInRange(ctx context.Context, shopID string, from, to time.Time, statuses []string) (int, error) {
	filter := bson.M{
		"shop_id": shopID,
		"status":  bson.M{"$in": statuses},
		"start":   bson.M{"$gte": from, "$lt": to},
	}
	n, err := repo.appointmentColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting shop appointments: %w", err)
	}
	return int(n), nil
}

func (repo *MongoSchedulingRepo) CountAppointmentsForSpecialistInRange(ctx context.Context, specialistID string, from, to time.Time, statuses []string) (int, error) {
	filter := bson.M{
		"specialist_id": specialistID,
		"status":        bson.M{"$in": statuses},
		"start":         bson.M{"$gte": from, "$lt": to},
	}
	n, err := repo.appointmentColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting specialist appointments: %w", err)
	}
	return int(n), nil
}

func (repo *MongoSchedulingRepo) CountAppointmentsForPackage(ctx context.Context, packageID string, statuses []string) (int, error) {
	filter := bson.M{
		"package_id": packageID,
		"status":     bson.M{"$in": statuses},
	}
	n, err := repo.appointmentColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting package appointments: %w", err)
	}
	return int(n), nil
}

func (repo *MongoSchedulingRepo) CountAppointmentsForLink(ctx context.Context, specialistID, serviceID string, statuses []string) (int, error) {
	filter := bson.M{
		"specialist_id": specialistID,
		"service_id":    serviceID,
		"status":        bson.M{"$in": statuses},
	}
	n, err := repo.appointmentColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting link appointments: %w", err)
	}
	return int(n), nil
}

func (repo *MongoSchedulingRepo) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	var res models.Resource
	if err := findOne(ctx, repo.resourceColl, bson.M{"id": id}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (repo *MongoSchedulingRepo) GetResourcesByType(ctx context.Context, shopID, resourceType string) ([]models.Resource, error) {
	return findAll[models.Resource](ctx, repo.resourceColl, bson.M{"shop_id": shopID, "type": resourceType})
}

func (repo *MongoSchedulingRepo) GetServiceResources(ctx context.Context, serviceID string) ([]models.ServiceResource, error) {
	return findAll[models.ServiceResource](ctx, repo.serviceResColl, bson.M{"service_id": serviceID})
}

func (repo *MongoSchedulingRepo) GetResourceAvailability(ctx context.Context, resourceID string, weekday int) ([]models.ResourceAvailability, error) {
	filter := bson.M{"resource_id": resourceID, "weekday": weekday}
	return findAll[models.ResourceAvailability](ctx, repo.resourceAvailColl, filter)
}

func (repo *MongoSchedulingRepo) HasResourceAvailability(ctx context.Context, resourceID string) (bool, error) {
	n, err := repo.resourceAvailColl.CountDocuments(ctx, bson.M{"resource_id": resourceID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error probing resource availability: %w", err)
	}
	return n > 0, nil
}

// GetResourceAllocations returns live holdings of the resource overlapping
// [from, to). Status filtering goes through the owning appointment.
func (repo *MongoSchedulingRepo) GetResourceAllocations(ctx context.Context, resourceID string, from, to time.Time, statuses []string) ([]models.AppointmentResource, error) {
	filter := bson.M{
		"resource_id": resourceID,
		"start":       bson.M{"$lt": to},
		"end":         bson.M{"$gt": from},
	}
	allocs, err := findAll[models.AppointmentResource](ctx, repo.apptResourceColl, filter)
	if err != nil {
		return nil, err
	}
	if len(allocs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(allocs))
	for _, a := range allocs {
		ids = append(ids, a.AppointmentID)
	}
	liveFilter := bson.M{"id": bson.M{"$in": ids}, "status": bson.M{"$in": statuses}}
	live, err := findAll[models.Appointment](ctx, repo.appointmentColl, liveFilter)
	if err != nil {
		return nil, err
	}
	liveSet := make(map[string]bool, len(live))
	for _, a := range live {
		liveSet[a.ID] = true
	}

	var out []models.AppointmentResource
	for _, a := range allocs {
		if liveSet[a.AppointmentID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (repo *MongoSchedulingRepo) GetAppointmentResources(ctx context.Context, appointmentID string) ([]models.AppointmentResource, error) {
	return findAll[models.AppointmentResource](ctx, repo.apptResourceColl, bson.M{"appointment_id": appointmentID})
}

func (repo *MongoSchedulingRepo) GetServiceDependencies(ctx context.Context, serviceID, depType string) ([]models.ServiceDependency, error) {
	filter := bson.M{"dependent_id": serviceID, "type": depType}
	return findAll[models.ServiceDependency](ctx, repo.dependencyColl, filter)
}

func (repo *MongoSchedulingRepo) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	if err := findOne(ctx, repo.packageColl, bson.M{"id": id}, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (repo *MongoSchedulingRepo) GetPackageServices(ctx context.Context, packageID string) ([]models.PackageService, error) {
	cursor, err := repo.packageServiceColl.Find(ctx, bson.M{"package_id": packageID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error querying package services: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.PackageService
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding package services: %w", err)
	}
	return rows, nil
}

func (repo *MongoSchedulingRepo) ListPackages(ctx context.Context, shopID string) ([]models.Package, error) {
	filter := bson.M{}
	if shopID != "" {
		filter["shop_id"] = shopID
	}
	return findAll[models.Package](ctx, repo.packageColl, filter)
}

func (repo *MongoSchedulingRepo) ListSpecialistLinks(ctx context.Context, shopID string) ([]models.SpecialistService, error) {
	if shopID == "" {
		return findAll[models.SpecialistService](ctx, repo.specServiceColl, bson.M{})
	}
	specialists, err := findAll[models.Specialist](ctx, repo.specialistColl, bson.M{"shop_id": shopID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(specialists))
	for _, sp := range specialists {
		ids = append(ids, sp.ID)
	}
	return findAll[models.SpecialistService](ctx, repo.specServiceColl, bson.M{"specialist_id": bson.M{"$in": ids}})
}
