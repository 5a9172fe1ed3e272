package schedulingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes behind the hot scheduling queries.
func (repo *MongoSchedulingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	apptIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Specialist day scans and overlap checks.
		{
			Keys:    bson.D{{Key: "specialist_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().SetName("specialist_status_window_idx"),
		},
		// Capacity counts at an instant.
		{
			Keys:    bson.D{{Key: "service_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("service_status_start_idx"),
		},
		// Prerequisite lookups.
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "shop_id", Value: 1}, {Key: "service_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("customer_service_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "package_id", Value: 1}},
			Options: options.Index().SetName("package_idx").SetSparse(true),
		},
	}
	if _, err := repo.appointmentColl.Indexes().CreateMany(ctx, apptIndexes); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}

	allocIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource_id", Value: 1}, {Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().SetName("resource_window_idx"),
		},
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetName("appointment_idx"),
		},
	}
	if _, err := repo.apptResourceColl.Indexes().CreateMany(ctx, allocIndexes); err != nil {
		return fmt.Errorf("failed to create allocation indexes: %w", err)
	}

	hourIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shop_id", Value: 1}, {Key: "weekday", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("shop_weekday_idx"),
		},
	}
	if _, err := repo.shopHoursColl.Indexes().CreateMany(ctx, hourIndexes); err != nil {
		return fmt.Errorf("failed to create shop-hours indexes: %w", err)
	}

	return nil
}
