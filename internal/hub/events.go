package hub

import (
	"time"
)

// EventType identifies the kind of hub event. Each subsystem namespaces its
// own constants ("comms.rapid", "collab.completed").
type EventType string

const (
	// EventRapidCommunication fires when one (from, to, type) bucket
	// exceeds the rapid threshold inside the detection window.
	EventRapidCommunication EventType = "comms.rapid"

	// EventKnowledgeShared fires after a knowledge item is durably stored.
	EventKnowledgeShared EventType = "knowledge.shared"

	// EventCollaborationCompleted fires when a task auto-completes.
	EventCollaborationCompleted EventType = "collab.completed"
)

// Event is a structured notification emitted by the hub so embedding
// applications can react programmatically instead of scraping logs.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives hub events. Callbacks run synchronously on the calling
// goroutine after the hub has released its internal lock; observers may call
// back into the hub.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a plain function into an Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(event Event) {
	f(event)
}

// AddObserver registers an observer for all subsequent hub events.
func (h *Hub) AddObserver(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	h.observers = append(h.observers, o)
}

// emit fans an event out to every registered observer. Must be called
// without holding h.mu.
func (h *Hub) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	h.obsMu.RLock()
	observers := append([]Observer(nil), h.observers...)
	h.obsMu.RUnlock()

	for _, e := range events {
		for _, o := range observers {
			o.OnEvent(e)
		}
	}
}
