package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ayush/partners-api/internal/auth"
	"github.com/ayush/partners-api/internal/models"
)

// ErrAlreadyModified is returned for a second modification of the same order.
var ErrAlreadyModified = errors.New("order already modified")

// Guard allows a single modification per order.
type Guard interface {
	Claim(ctx context.Context, storeID, orderID int64) (bool, error)
	Release(ctx context.Context, storeID, orderID int64) error
}

// Journal persists accepted webhook events.
type Journal interface {
	Record(ctx context.Context, ev *models.WebhookEvent) (string, error)
	ListByOrder(ctx context.Context, storeID, orderID int64) ([]models.WebhookEvent, error)
}

// Archive stores raw request bodies.
type Archive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Service records order webhook calls once the caller is authorized.
type Service struct {
	guard   Guard
	journal Journal
	archive Archive
	logger  *slog.Logger
}

func NewService(guard Guard, journal Journal, archive Archive, logger *slog.Logger) *Service {
	return &Service{guard: guard, journal: journal, archive: archive, logger: logger.With("module", "orders")}
}

func archiveKey(storeID, orderID int64) string {
	return fmt.Sprintf("stores/%d/orders/%d/modification.json", storeID, orderID)
}

func newEvent(kind models.EventKind, p *auth.Principal, storeID, orderID int64, payload []byte) *models.WebhookEvent {
	return &models.WebhookEvent{
		EventID:  uuid.NewString(),
		Kind:     kind,
		StoreID:  storeID,
		OrderID:  orderID,
		UserID:   p.UserID,
		Username: p.Username,
		Payload:  string(payload),
	}
}

// UpdateStatus journals a status update.
func (s *Service) UpdateStatus(ctx context.Context, p *auth.Principal, storeID, orderID int64, status models.OrderStatus, payload []byte) error {
	ev := newEvent(models.EventStatusUpdate, p, storeID, orderID, payload)
	ev.Status = status
	if _, err := s.journal.Record(ctx, ev); err != nil {
		return fmt.Errorf("record status update: %w", err)
	}
	s.logger.InfoContext(ctx, "order status updated",
		"store_id", storeID, "order_id", orderID, "status", status, "user_id", p.UserID)
	return nil
}

// Modify accepts the first modification of an order: it claims the order,
// archives the body and journals the event. Any later call for the same
// order fails with ErrAlreadyModified. If archiving or journaling fails
// the claim is released so the partner can retry.
func (s *Service) Modify(ctx context.Context, p *auth.Principal, storeID, orderID int64, payload []byte) (err error) {
	ok, err := s.guard.Claim(ctx, storeID, orderID)
	if err != nil {
		return fmt.Errorf("claim order: %w", err)
	}
	if !ok {
		return ErrAlreadyModified
	}

	key := archiveKey(storeID, orderID)
	archived := false
	defer func() {
		if err == nil {
			return
		}
		ctx := context.WithoutCancel(ctx)
		if archived {
			if rmErr := s.archive.Remove(ctx, key); rmErr != nil {
				s.logger.WarnContext(ctx, "archive cleanup failed", "key", key, "error", rmErr)
			}
		}
		if relErr := s.guard.Release(ctx, storeID, orderID); relErr != nil {
			s.logger.ErrorContext(ctx, "release modification claim failed",
				"store_id", storeID, "order_id", orderID, "error", relErr)
		}
	}()

	if err = s.archive.Upload(ctx, key, payload, "application/json"); err != nil {
		return fmt.Errorf("archive modification: %w", err)
	}
	archived = true

	ev := newEvent(models.EventModification, p, storeID, orderID, payload)
	ev.ArchiveKey = key
	if _, err = s.journal.Record(ctx, ev); err != nil {
		return fmt.Errorf("record modification: %w", err)
	}

	s.logger.InfoContext(ctx, "order modified",
		"store_id", storeID, "order_id", orderID, "user_id", p.UserID)
	return nil
}

// Events lists the journaled events of an order.
func (s *Service) Events(ctx context.Context, storeID, orderID int64) ([]models.WebhookEvent, error) {
	events, err := s.journal.ListByOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []models.WebhookEvent{}
	}
	return events, nil
}
