package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/partners-api/internal/models"
)

// EventJournal stores accepted webhook calls in MongoDB.
type EventJournal struct {
	col *mongo.Collection
}

func NewEventJournal(db *mongo.Database) *EventJournal {
	return &EventJournal{col: db.Collection("webhook_events")}
}

func (s *EventJournal) Record(ctx context.Context, ev *models.WebhookEvent) (string, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	res, err := s.col.InsertOne(ctx, ev)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	ev.ID = oid
	return oid.Hex(), nil
}

// ListByOrder returns the events of one order, oldest first.
func (s *EventJournal) ListByOrder(ctx context.Context, storeID, orderID int64) ([]models.WebhookEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"store_id": storeID, "order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var events []models.WebhookEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return events, nil
}
