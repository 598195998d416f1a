// Package bridge turns project lifecycle events published by the dashboard
// backend into team-update notifications. Delivery on the wire is
// at-least-once and unordered across channels; the ledger's idempotent
// append absorbs redelivery inside one process.
package bridge

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis channels the dashboard backend publishes on.
const (
	ChannelProjectUpdated = "pulseboard.project.updated"
	ChannelProjectCreated = "pulseboard.project.created"
)

// Actor identifies the user whose action produced an event.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is a normalized project lifecycle signal.
type Event struct {
	ProjectID   string
	ProjectName string
	Action      string
	Actor       Actor
}

// Handler receives each decoded event. It must not block for long; the
// bridge delivers events sequentially from a single reader goroutine.
type Handler func(ctx context.Context, ev Event)

type updatedPayload struct {
	ProjectID string `json:"projectId"`
	Action    string `json:"action"`
	User      Actor  `json:"user"`
}

type createdPayload struct {
	Project struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"project"`
	User Actor `json:"user"`
}

// Bridge subscribes to the project event channels and feeds the handler.
type Bridge struct {
	client  *redis.Client
	handler Handler

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func New(client *redis.Client, handler Handler) *Bridge {
	return &Bridge{client: client, handler: handler}
}

// Start subscribes and begins delivering events until Close is called or the
// context is canceled. Calling Start on a running bridge is a no-op.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return nil
	}

	pubsub := b.client.Subscribe(ctx, ChannelProjectUpdated, ChannelProjectCreated)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	b.pubsub = pubsub
	b.done = make(chan struct{})
	go b.run(ctx, pubsub, b.done)
	return nil
}

// Close tears the subscription down and waits for the reader to drain, so no
// handler call survives past Close.
func (b *Bridge) Close() {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub, b.done = nil, nil
	b.mu.Unlock()

	if pubsub == nil {
		return
	}
	_ = pubsub.Close()
	<-done
}

func (b *Bridge) run(ctx context.Context, pubsub *redis.PubSub, done chan struct{}) {
	defer close(done)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, ok := decode(msg.Channel, msg.Payload)
			if !ok {
				continue
			}
			b.handler(ctx, ev)
		}
	}
}

func decode(channel, payload string) (Event, bool) {
	switch channel {
	case ChannelProjectUpdated:
		var p updatedPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			log.Printf("bridge: malformed update event: %v", err)
			return Event{}, false
		}
		action := p.Action
		if action == "" {
			action = "updated"
		}
		return Event{ProjectID: p.ProjectID, Action: action, Actor: p.User}, true
	case ChannelProjectCreated:
		var p createdPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			log.Printf("bridge: malformed create event: %v", err)
			return Event{}, false
		}
		return Event{ProjectID: p.Project.ID, ProjectName: p.Project.Name, Action: "created", Actor: p.User}, true
	default:
		return Event{}, false
	}
}
