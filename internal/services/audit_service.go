// internal/services/audit_service.go
// Audit trail of schedule operations, written to MongoDB. Failures are
// logged and swallowed so auditing never breaks a build.

package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// scheduleEventsCollection is the mongo collection audit events land in.
const scheduleEventsCollection = "schedule_events"

// AuditService records schedule operation events.
type AuditService struct {
	db      *mongo.Database
	enabled bool
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service. db may be nil when the audit
// log is disabled.
func NewAuditService(db *mongo.Database, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{
		db:      db,
		enabled: enabled && db != nil,
		logger:  logger,
	}
}

// Record logs one operation event.
func (s *AuditService) Record(ctx context.Context, eventType string, data map[string]interface{}) {
	if !s.enabled {
		return
	}

	event := bson.M{
		"type":       eventType,
		"data":       data,
		"created_at": time.Now().UTC(),
	}

	if _, err := s.db.Collection(scheduleEventsCollection).InsertOne(ctx, event); err != nil {
		s.logger.Warnf("Failed to record audit event %s: %v", eventType, err)
	}
}

// RecentEvents returns the latest audit events for a tournament.
func (s *AuditService) RecentEvents(ctx context.Context, tournamentID string, limit int64) ([]bson.M, error) {
	if !s.enabled {
		return []bson.M{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(scheduleEventsCollection).Find(ctx, bson.M{"data.tournament_id": tournamentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := make([]bson.M, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
