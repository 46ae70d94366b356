package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dietwithdee/internal/domain/subscriber"
)

// SubscriberStore is the subscriber persistence used by signup and the
// admin list.
type SubscriberStore interface {
	Save(ctx context.Context, s subscriber.Subscriber) (string, error)
	List(ctx context.Context) ([]subscriber.Subscriber, error)
}

// SubscribeInput carries the signup form.
type SubscribeInput struct {
	Email string
}

// SubscribeDeps holds dependencies for Subscribe.
type SubscribeDeps struct {
	Store SubscriberStore
	Now   func() time.Time
}

// ExecuteSubscribe adds an address to the newsletter list.
// PRE: none; the address is validated here
// POST: A new record exists with the normalized address; returns its id
// INVARIANT: invalid addresses never reach the store; duplicates are not checked
func ExecuteSubscribe(ctx context.Context, input SubscribeInput, deps SubscribeDeps) (string, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	sub := subscriber.Subscriber{
		Email:     subscriber.Normalize(input.Email),
		CreatedAt: now,
	}
	if err := sub.Validate(); err != nil {
		return "", err
	}

	id, err := deps.Store.Save(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("save subscriber: %w", err)
	}
	slog.Info("subscriber_added", "subscriber_id", id)
	return id, nil
}

// ExecuteListSubscribers returns every subscriber record, newest first.
func ExecuteListSubscribers(ctx context.Context, deps SubscribeDeps) ([]subscriber.Subscriber, error) {
	subs, err := deps.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if subs == nil {
		subs = []subscriber.Subscriber{}
	}
	return subs, nil
}
