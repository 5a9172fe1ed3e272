package schedulingRepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"glowbook/database"
)

// MongoSchedulingRepo implements SchedulingRepository on MongoDB.
type MongoSchedulingRepo struct {
	shopColl           *mongo.Collection
	shopHoursColl      *mongo.Collection
	serviceColl        *mongo.Collection
	serviceHoursColl   *mongo.Collection
	exceptionColl      *mongo.Collection
	specialistColl     *mongo.Collection
	workingHoursColl   *mongo.Collection
	specServiceColl    *mongo.Collection
	appointmentColl    *mongo.Collection
	apptResourceColl   *mongo.Collection
	resourceColl       *mongo.Collection
	resourceAvailColl  *mongo.Collection
	serviceResColl     *mongo.Collection
	dependencyColl     *mongo.Collection
	packageColl        *mongo.Collection
	packageServiceColl *mongo.Collection
}

// NewMongoSchedulingRepo constructs the repository over the shared client.
func NewMongoSchedulingRepo() *MongoSchedulingRepo {
	db := database.MongoClient.Database("glowbook")
	return &MongoSchedulingRepo{
		shopColl:           db.Collection("shops"),
		shopHoursColl:      db.Collection("shop_hours"),
		serviceColl:        db.Collection("services"),
		serviceHoursColl:   db.Collection("service_hours"),
		exceptionColl:      db.Collection("service_exceptions"),
		specialistColl:     db.Collection("specialists"),
		workingHoursColl:   db.Collection("specialist_working_hours"),
		specServiceColl:    db.Collection("specialist_services"),
		appointmentColl:    db.Collection("appointments"),
		apptResourceColl:   db.Collection("appointment_resources"),
		resourceColl:       db.Collection("resources"),
		resourceAvailColl:  db.Collection("resource_availability"),
		serviceResColl:     db.Collection("service_resources"),
		dependencyColl:     db.Collection("service_dependencies"),
		packageColl:        db.Collection("packages"),
		packageServiceColl: db.Collection("package_services"),
	}
}

// findOne decodes a single document into out, mapping missing documents to
// ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	if err := coll.FindOne(ctx, filter).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s: %w", coll.Name(), ErrNotFound)
		}
		return fmt.Errorf("error fetching from %s: %w", coll.Name(), err)
	}
	return nil
}

// findAll decodes every matching document of coll into a slice of T.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var rows []T
	for cursor.Next(ctx) {
		var row T
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("error decoding %s row: %w", coll.Name(), err)
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", coll.Name(), err)
	}
	return rows, nil
}
