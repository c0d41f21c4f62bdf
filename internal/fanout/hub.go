package fanout

import (
	"sync"

	"github.com/ddorjelama/KeyUsageProfiler/pkg/id"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// DefaultBuffer is the per-subscriber channel capacity when the hub is
// built with a non-positive buffer size.
const DefaultBuffer = 256

// Message is one delivered item: the logical topic it was published under
// and the serialized payload.
type Message struct {
	Topic   string
	Payload []byte
}

// Hub routes published messages to the live subscribers of a user. Delivery
// is at-most-once: a subscriber whose buffer is full at publish time loses
// that message, and nothing is retained for users with no subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*Subscription
	gen    *id.Generator
	buffer int
	logger logpkg.Logger
}

// NewHub returns a Hub with the given per-subscriber buffer capacity.
func NewHub(buffer int, logger logpkg.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("fanout"))
	}
	return &Hub{
		subs:   make(map[string]map[string]*Subscription),
		gen:    id.NewGenerator(),
		buffer: buffer,
		logger: logger,
	}
}

// Subscription is one consumer's attachment to a user's message streams.
type Subscription struct {
	id     string
	user   string
	topics map[string]bool
	filter filter
	ch     chan Message
	hub    *Hub
	once   sync.Once
}

// Subscribe attaches a new subscriber for the given user. An empty topics
// slice subscribes to every topic of that user; filterExpr is an optional
// CEL expression evaluated per message.
func (h *Hub) Subscribe(user string, topics []string, filterExpr string) (*Subscription, error) {
	f, err := newFilter(filterExpr)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{
		id:     h.gen.Next().String(),
		user:   user,
		filter: f,
		ch:     make(chan Message, h.buffer),
		hub:    h,
	}
	if len(topics) > 0 {
		sub.topics = make(map[string]bool, len(topics))
		for _, tp := range topics {
			sub.topics[tp] = true
		}
	}
	h.mu.Lock()
	byID := h.subs[user]
	if byID == nil {
		byID = make(map[string]*Subscription)
		h.subs[user] = byID
	}
	byID[sub.id] = sub
	h.mu.Unlock()
	return sub, nil
}

// Publish delivers payload to every matching subscriber of user. The send
// never blocks the publisher; slow subscribers drop.
func (h *Hub) Publish(user, topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs[user] {
		if sub.topics != nil && !sub.topics[topic] {
			continue
		}
		if !sub.filter.Eval(topic, payload) {
			continue
		}
		select {
		case sub.ch <- Message{Topic: topic, Payload: payload}:
		default:
			h.logger.Warn("dropping message for slow subscriber",
				logpkg.Str("user", user), logpkg.Str("topic", topic), logpkg.Str("sub", sub.id))
		}
	}
}

// Subscribers reports the number of live subscriptions for a user.
func (h *Hub) Subscribers(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[user])
}

// ID returns the subscription's hub-unique identifier.
func (s *Subscription) ID() string { return s.id }

// Messages is the subscriber's receive channel. It is closed by Close.
func (s *Subscription) Messages() <-chan Message { return s.ch }

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if byID := h.subs[s.user]; byID != nil {
			delete(byID, s.id)
			if len(byID) == 0 {
				delete(h.subs, s.user)
			}
		}
		h.mu.Unlock()
		close(s.ch)
	})
}
