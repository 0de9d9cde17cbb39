package paper

import (
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// EventType identifies a domain event emitted by the engine.
type EventType string

const (
	EventPositionOpened EventType = "position_opened"
	EventPositionClosed EventType = "position_closed"
	EventOrderFilled    EventType = "order_filled"
	EventRiskWarning    EventType = "risk_warning"
)

// Event is an outbound domain event. Collaborators (dashboard,
// notifier) poll the queue; the engine never calls them directly.
type Event struct {
	Type       EventType     `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	Symbol     string        `json:"symbol,omitempty"`
	PositionID string        `json:"position_id,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`
	Message    string        `json:"message,omitempty"`
	Trade      *domain.Trade `json:"trade,omitempty"`
}

// eventQueue is a bounded FIFO of domain events; when full, the oldest
// events are dropped.
type eventQueue struct {
	events []Event
	max    int
}

func newEventQueue(max int) *eventQueue {
	if max <= 0 {
		max = 1000
	}
	return &eventQueue{max: max}
}

func (q *eventQueue) push(ev Event) {
	q.events = append(q.events, ev)
	if len(q.events) > q.max {
		q.events = q.events[len(q.events)-q.max:]
	}
}

// tail returns up to limit most recent events, newest last.
func (q *eventQueue) tail(limit int) []Event {
	evs := q.events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]Event, len(evs))
	copy(out, evs)
	return out
}

func (q *eventQueue) clear() {
	q.events = nil
}
