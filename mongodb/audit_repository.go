package mongodb

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haven-platform/gateway/internal/audit"
)

// auditRetention is how long audit events are kept before the TTL index
// reaps them.
const auditRetention = 90 * 24 * time.Hour

// AuditRepositoryMongo persists audit events to MongoDB.
type AuditRepositoryMongo struct {
	collection *mongo.Collection
}

// NewAuditRepositoryMongo creates the repository and ensures the TTL and
// lookup indexes exist.
func NewAuditRepositoryMongo(ctx context.Context, db *mongo.Database) (*AuditRepositoryMongo, error) {
	repo := &AuditRepositoryMongo{
		collection: db.Collection(AuditEventsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "action", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		// Indexes may already exist; log and continue.
		log.Warn().Err(err).Msg("Issue creating indexes for audit events collection")
	}

	return repo, nil
}

// Record inserts one audit event.
func (r *AuditRepositoryMongo) Record(ctx context.Context, event audit.Event) error {
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

var _ audit.Recorder = (*AuditRepositoryMongo)(nil)
