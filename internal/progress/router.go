package progress

import (
	"sync"
	"time"

	"github.com/paperforge/paperforge/internal/agent"
)

const (
	defaultSubscriberCapacity = 100
	defaultDedupeWindow       = 1024
)

// SubscribeAll matches events from every agent.
const SubscribeAll agent.Kind = ""

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// WithSubscriberCapacity overrides the per-subscriber channel size.
func WithSubscriberCapacity(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.channelSize = n
		}
	}
}

// WithDedupeWindow overrides how many recent event IDs are remembered.
func WithDedupeWindow(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.dedupeWindow = n
		}
	}
}

// Router delivers progress events to per-agent subscribers with sequence
// stamping, duplicate suppression, and bounded channel semantics. A slow
// subscriber drops its oldest buffered event rather than blocking publishers.
type Router struct {
	mu           sync.Mutex
	subscribers  map[agent.Kind]map[*subscriber]struct{}
	recentIDs    map[string]struct{}
	recentOrder  []string
	sequence     int64
	channelSize  int
	dedupeWindow int
	closed       bool
}

type subscriber struct {
	events chan Event
}

// Subscription represents an active event subscription.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewRouter constructs a router with bounded defaults.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		subscribers:  map[agent.Kind]map[*subscriber]struct{}{},
		recentIDs:    map[string]struct{}{},
		channelSize:  defaultSubscriberCapacity,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers interest in one agent's events, or every event when
// kind is SubscribeAll.
func (r *Router) Subscribe(kind agent.Kind) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := &subscriber{events: make(chan Event, r.channelSize)}
	if r.closed {
		close(sub.events)
		return Subscription{Events: sub.events, cancel: func() {}}
	}
	set, ok := r.subscribers[kind]
	if !ok {
		set = map[*subscriber]struct{}{}
		r.subscribers[kind] = set
	}
	set[sub] = struct{}{}
	return Subscription{
		Events: sub.events,
		cancel: func() { r.unsubscribe(kind, sub) },
	}
}

// Publish validates, stamps, and fans out one event. Duplicate IDs within the
// dedupe window are dropped. Returns false when the event was not delivered.
func (r *Router) Publish(ev Event) bool {
	ev.Normalize()
	if err := ev.Validate(); err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if _, dup := r.recentIDs[ev.ID]; dup {
		return false
	}
	r.remember(ev.ID)
	r.sequence++
	ev.Sequence = r.sequence
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	r.deliver(r.subscribers[ev.Agent], ev)
	r.deliver(r.subscribers[SubscribeAll], ev)
	return true
}

// Close shuts the router down and closes every subscriber channel.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, set := range r.subscribers {
		for sub := range set {
			close(sub.events)
		}
	}
	r.subscribers = map[agent.Kind]map[*subscriber]struct{}{}
}

func (r *Router) deliver(set map[*subscriber]struct{}, ev Event) {
	for sub := range set {
		for {
			select {
			case sub.events <- ev:
			default:
				// Buffer full: drop the oldest event and retry.
				select {
				case <-sub.events:
				default:
				}
				continue
			}
			break
		}
	}
}

func (r *Router) remember(id string) {
	r.recentIDs[id] = struct{}{}
	r.recentOrder = append(r.recentOrder, id)
	for len(r.recentOrder) > r.dedupeWindow {
		oldest := r.recentOrder[0]
		r.recentOrder = r.recentOrder[1:]
		delete(r.recentIDs, oldest)
	}
}

func (r *Router) unsubscribe(kind agent.Kind, sub *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subscribers[kind]
	if !ok {
		return
	}
	if _, present := set[sub]; !present {
		return
	}
	delete(set, sub)
	close(sub.events)
}
