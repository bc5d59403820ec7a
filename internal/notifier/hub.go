// Package notifier fans change events out to subscribers of a topic (a
// table name). Each subscription coalesces bursts so that a handler, which
// typically re-lists the table, runs once per window rather than once per
// change.
package notifier

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "shiptrack/internal/errors"
)

type EventKind string

const (
	KindInsert EventKind = "insert"
	KindUpdate EventKind = "update"
	KindDelete EventKind = "delete"
	// KindResync follows a reconnect of the change feed: changes may have
	// been missed and subscribers should re-fetch.
	KindResync EventKind = "resync"
	// KindDegraded means the change feed is down and live updates have
	// stopped until a KindResync arrives.
	KindDegraded EventKind = "degraded"
)

// Event tells a subscriber that something changed in Topic. It carries no
// row data; subscribers re-fetch.
type Event struct {
	Topic string
	Kind  EventKind
	At    time.Time
	// Coalesced is the number of published events merged into this
	// delivery.
	Coalesced int
}

type Handler func(Event)

var (
	errHubClosed  = errors.New("hub is closed")
	errEmptyTopic = errors.New("topic must not be empty")
	errNilHandler = errors.New("handler must not be nil")
)

type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[uuid.UUID]*Subscription
	closed bool
	window time.Duration
	logger *zap.Logger
}

// NewHub creates a hub whose subscriptions merge events arriving within
// window of the first pending one. A zero window delivers every signal as
// soon as the subscriber goroutine is free.
func NewHub(window time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[uuid.UUID]*Subscription),
		window: window,
		logger: logger,
	}
}

// Subscribe registers handler for topic. Only events published after
// Subscribe returns are delivered.
func (h *Hub) Subscribe(topic string, handler Handler) (*Subscription, error) {
	if topic == "" {
		return nil, apperrors.NewSubscriptionError(topic, errEmptyTopic)
	}
	if handler == nil {
		return nil, apperrors.NewSubscriptionError(topic, errNilHandler)
	}

	sub := &Subscription{
		ID:      uuid.New(),
		Topic:   topic,
		hub:     h,
		handler: handler,
		window:  h.window,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  h.logger,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, apperrors.NewSubscriptionError(topic, errHubClosed)
	}
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uuid.UUID]*Subscription)
	}
	h.subs[topic][sub.ID] = sub
	h.mu.Unlock()

	go sub.run()

	h.logger.Debug("subscribed", zap.String("topic", topic), zap.String("subscriptionId", sub.ID.String()))
	return sub, nil
}

// Unsubscribe releases sub. It is idempotent and never blocks.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.Unsubscribe()
}

// Publish hands ev to every current subscriber of ev.Topic without
// blocking on any of them.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[ev.Topic]))
	for _, sub := range h.subs[ev.Topic] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.offer(ev)
	}
}

// Broadcast publishes an event of the given kind to every topic that has
// subscribers.
func (h *Hub) Broadcast(kind EventKind) {
	h.mu.Lock()
	topics := make([]string, 0, len(h.subs))
	for topic := range h.subs {
		topics = append(topics, topic)
	}
	h.mu.Unlock()

	now := time.Now().UTC()
	for _, topic := range topics {
		h.Publish(Event{Topic: topic, Kind: kind, At: now})
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

// Close releases every subscription. Later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*Subscription
	for _, topicSubs := range h.subs {
		for _, sub := range topicSubs {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Unsubscribe()
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicSubs := h.subs[sub.Topic]
	delete(topicSubs, sub.ID)
	if len(topicSubs) == 0 {
		delete(h.subs, sub.Topic)
	}
}
