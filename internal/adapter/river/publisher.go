package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/zithekhosa/propflow/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// TransitionJobArgs carries one applied workflow transition. River
// serializes this as JSON into its job queue table; it is a snapshot taken
// at publish time, so the worker never needs to query the database.
type TransitionJobArgs struct {
	Workflow   string    `json:"workflow"`
	Action     string    `json:"action"`
	InstanceID string    `json:"instance_id"`
	State      string    `json:"state"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	At         time.Time `json:"at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (TransitionJobArgs) Kind() string { return "workflow.transition" }

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

// Publish enqueues a workflow transition as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.WorkflowEvent) error {
	_, err := p.client.Insert(ctx, TransitionJobArgs{
		Workflow:   event.Workflow,
		Action:     string(event.Action),
		InstanceID: event.InstanceID,
		State:      string(event.State),
		ActorID:    event.Actor.ID,
		ActorRole:  string(event.Actor.Role),
		At:         event.At,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing transition job: %w", err)
	}
	return nil
}
