package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

const (
	reportsCollection  = "pond_reports"
	defaultReportLimit = 20
)

// Repository defines the interface for pond report storage.
type Repository interface {
	SavePondReport(ctx context.Context, report models.PondReport) error
	ListPondReports(ctx context.Context, pondID int, limit int) ([]models.PondReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: reportsCollection,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pond_id", Value: 1}, {Key: "period_end", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create pond report index: %w", err)
	}
	return nil
}

// SavePondReport stores a report snapshot.
func (r *MongoDBRepository) SavePondReport(ctx context.Context, report models.PondReport) error {
	_, err := r.collection().InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert pond report: %w", err)
	}
	return nil
}

// ListPondReports returns the newest snapshots for a pond first.
func (r *MongoDBRepository) ListPondReports(ctx context.Context, pondID int, limit int) ([]models.PondReport, error) {
	if limit <= 0 {
		limit = defaultReportLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "period_end", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, bson.M{"pond_id": pondID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pond reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]models.PondReport, 0, limit)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode pond reports: %w", err)
	}
	return reports, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
