package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// TransitionJobArgs carries the data needed to process a transition
// event asynchronously. River serializes this as JSON into its job
// queue table. It snapshots the audit entry at publish time, so the
// worker never needs to query the database.
type TransitionJobArgs struct {
	Domain      string   `json:"domain"`
	EntityID    string   `json:"entity_id"`
	FromStatus  string   `json:"from_status"`
	ToStatus    string   `json:"to_status"`
	UserID      string   `json:"user_id"`
	SideEffects []string `json:"side_effects"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (TransitionJobArgs) Kind() string { return "workflow.transitioned" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a transition event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, rec domain.TransitionRecord) error {
	_, err := p.client.Insert(ctx, TransitionJobArgs{
		Domain:      string(rec.Domain),
		EntityID:    rec.EntityID,
		FromStatus:  string(rec.FromStatus),
		ToStatus:    string(rec.ToStatus),
		UserID:      rec.UserID,
		SideEffects: rec.SideEffects,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing transition job: %w", err)
	}
	return nil
}
