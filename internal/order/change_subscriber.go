package order

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/colibriadf/colibri/pkg"
)

// ChangeSubscriber wires the realtime change feed to the live view: one
// handler per logical table topic, and any event triggers a refetch. Payloads
// are never inspected beyond their occurrence.
type ChangeSubscriber struct {
	subscriber events.Subscriber
	view       *LiveView
	logger     apt.Logger
}

func NewChangeSubscriber(sub events.Subscriber, view *LiveView, logger apt.Logger) *ChangeSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ChangeSubscriber{
		subscriber: sub,
		view:       view,
		logger:     logger,
	}
}

func (s *ChangeSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return fmt.Errorf("change subscriber not configured")
	}
	for _, topic := range pkg.ChangeTopics() {
		s.logger.Info("subscribing to change topic", "topic", topic)
		if err := s.subscriber.Subscribe(ctx, topic, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

func (s *ChangeSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	s.logger.Debug("change notification received, refreshing orders view")
	if err := s.view.Refresh(ctx); err != nil {
		s.logger.Error("refresh after change notification failed", "error", err)
	}
	return nil
}
