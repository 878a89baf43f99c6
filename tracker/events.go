package tracker

import "time"

// EventType identifies what kind of mutation an Event describes.
type EventType string

const (
	// EventAdd fires when a reference is first tracked.
	EventAdd EventType = "add"
	// EventUpdate fires when a tracked reference is replaced or modified.
	EventUpdate EventType = "update"
	// EventRemove fires when a reference is removed.
	EventRemove EventType = "remove"
	// EventActivate fires on a transition into the active state.
	EventActivate EventType = "activate"
	// EventDeactivate fires on a transition out of the active state.
	EventDeactivate EventType = "deactivate"
	// EventRelationshipAdd fires when a new relationship edge is created.
	EventRelationshipAdd EventType = "relationship_add"
	// EventRelationshipRemove fires when a relationship edge is removed.
	EventRelationshipRemove EventType = "relationship_remove"
)

// Event describes one committed mutation of the tracker.
//
// RelatedID is the relationship target for relationship events and zero
// otherwise.
type Event struct {
	Type      EventType `json:"type"`
	ID        uint64    `json:"id"`
	RelatedID uint64    `json:"relatedId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives events. Handlers run synchronously on the mutating
// goroutine, in subscription order, after the mutation has been applied.
// A handler must not call back into mutating methods of the same tracker.
type Handler func(Event)

type subscriber struct {
	id uint64
	fn Handler
}

// Subscribe registers a handler and returns its unsubscribe function.
// Subscription and unsubscription take effect for events emitted after the
// call returns; a delivery already in progress uses the previous set.
func (t *Tracker) Subscribe(fn Handler) func() {
	t.nextSubID++
	id := t.nextSubID
	t.subs = append(t.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// emit delivers one event to all current subscribers. A panicking handler is
// recovered and counted; it never blocks delivery to the remaining handlers
// and never unwinds into tracker state.
func (t *Tracker) emit(ev Event) {
	if len(t.subs) == 0 {
		return
	}
	snapshot := append([]subscriber(nil), t.subs...)
	for _, s := range snapshot {
		t.deliver(s.fn, ev)
	}
}

func (t *Tracker) deliver(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			t.handlerPanics++
		}
	}()
	fn(ev)
}
