package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
)

type Service struct {
	log   *slog.Logger
	repo  IncidentRepository
	newID func() string
	now   func() time.Time
}

func NewService(log *slog.Logger, repo IncidentRepository) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle records an incident for the order events that need one. Other
// events are accepted and dropped. Replays of the same event key are no-ops.
func (s *Service) Handle(ctx context.Context, eventType, eventKey string, payload []byte) error {
	inc, ok, err := domain.FromEvent(eventType, eventKey, payload)
	if err != nil || !ok {
		return err
	}
	inc.ID = s.newID()
	inc.CreatedAt = s.now()

	created, err := s.repo.Save(ctx, inc)
	if err != nil {
		return err
	}
	if created {
		s.log.Warn("order incident opened",
			"kind", inc.Kind,
			"order_id", inc.OrderID,
			"order_number", inc.OrderNumber,
			"product_id", inc.ProductID,
		)
	} else {
		s.log.Info("incident already recorded", "event_key", eventKey)
	}
	return nil
}
