// Package events publishes a hazard event for every report written to the
// hazard log, for downstream consumers such as dashboards and alerting.
package events

import (
	"context"
	"time"

	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/google/uuid"
)

// HazardEvent is emitted after a hazard report has been appended to the log.
type HazardEvent struct {
	ID       uuid.UUID           `json:"id"`
	LoggedAt time.Time           `json:"loggedAt"`
	Report   domain.HazardReport `json:"report"`
}

// Publisher delivers hazard events.
type Publisher interface {
	Publish(ctx context.Context, event HazardEvent) error
}

// NoopPublisher discards every event. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, HazardEvent) error {
	return nil
}
