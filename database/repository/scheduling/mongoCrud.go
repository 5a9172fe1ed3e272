package schedulingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"glowbook/models"
)

func (repo *MongoSchedulingRepo) InsertAppointment(ctx context.Context, appt *models.Appointment) error {
	now := time.Now()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	if _, err := repo.appointmentColl.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("failed to insert appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now()
	res, err := repo.appointmentColl.ReplaceOne(ctx, bson.M{"id": appt.ID}, appt)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", appt.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("appointment %s: %w", appt.ID, ErrNotFound)
	}
	return nil
}

func (repo *MongoSchedulingRepo) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	res, err := repo.appointmentColl.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update status of appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return nil
}

func (repo *MongoSchedulingRepo) InsertAppointmentResource(ctx context.Context, alloc *models.AppointmentResource) error {
	if _, err := repo.apptResourceColl.InsertOne(ctx, alloc); err != nil {
		return fmt.Errorf("failed to insert resource allocation for appointment %s: %w", alloc.AppointmentID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) DeleteAppointmentResources(ctx context.Context, appointmentID string) error {
	if _, err := repo.apptResourceColl.DeleteMany(ctx, bson.M{"appointment_id": appointmentID}); err != nil {
		return fmt.Errorf("failed to delete resource allocations for appointment %s: %w", appointmentID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) IncrementPackageCounter(ctx context.Context, packageID string, delta int) error {
	update := bson.M{"$inc": bson.M{"current_purchases": delta}}
	if _, err := repo.packageColl.UpdateOne(ctx, bson.M{"id": packageID}, update); err != nil {
		return fmt.Errorf("failed to adjust purchase counter for package %s: %w", packageID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) IncrementSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, delta int) error {
	filter := bson.M{"specialist_id": specialistID, "service_id": serviceID}
	update := bson.M{"$inc": bson.M{"booking_count": delta}}
	if _, err := repo.specServiceColl.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to adjust booking count for specialist %s: %w", specialistID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) SetPackageCounter(ctx context.Context, packageID string, value int) error {
	update := bson.M{"$set": bson.M{"current_purchases": value}}
	if _, err := repo.packageColl.UpdateOne(ctx, bson.M{"id": packageID}, update); err != nil {
		return fmt.Errorf("failed to set purchase counter for package %s: %w", packageID, err)
	}
	return nil
}

func (repo *MongoSchedulingRepo) SetSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, value int) error {
	filter := bson.M{"specialist_id": specialistID, "service_id": serviceID}
	update := bson.M{"$set": bson.M{"booking_count": value}}
	if _, err := repo.specServiceColl.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to set booking count for specialist %s: %w", specialistID, err)
	}
	return nil
}
