// Package events fans persisted alerts out to realtime consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Alert is the broadcast form of a persisted notification.
type Alert struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Priority   string     `json:"priority"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	MotherID   *uuid.UUID `json:"mother_id,omitempty"`
	TargetRole string     `json:"target_role,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Publisher delivers an alert to one consumer channel.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, alert Alert) error

func (f PublisherFunc) Publish(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// Fanout publishes to every registered publisher. Failures are logged and
// never returned, so a broken consumer cannot fail the request that raised
// the alert.
type Fanout struct {
	publishers []Publisher
	logger     zerolog.Logger
}

func NewFanout(logger zerolog.Logger, publishers ...Publisher) *Fanout {
	pubs := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			pubs = append(pubs, p)
		}
	}
	return &Fanout{publishers: pubs, logger: logger}
}

// Add registers another publisher. Not safe to call concurrently with Publish.
func (f *Fanout) Add(p Publisher) {
	if p != nil {
		f.publishers = append(f.publishers, p)
	}
}

func (f *Fanout) Len() int { return len(f.publishers) }

func (f *Fanout) Publish(ctx context.Context, alert Alert) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, alert); err != nil {
			f.logger.Warn().Err(err).
				Str("alert_id", alert.ID.String()).
				Str("priority", alert.Priority).
				Msg("alert broadcast failed")
		}
	}
	return nil
}
