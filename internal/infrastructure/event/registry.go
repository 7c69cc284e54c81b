package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rentnest/backend/internal/domain/shared"
)

// routes is an immutable snapshot of subscriptions. An empty key holds
// handlers that receive every event type.
type routes map[string][]shared.EventHandler

// routeTable maps event types to handlers. Lookups read the current snapshot
// without locking; writers copy it.
type routeTable struct {
	mu      sync.Mutex
	current atomic.Pointer[routes]
}

const anyEvent = ""

func newRouteTable() *routeTable {
	t := &routeTable{}
	t.current.Store(&routes{})
	return t
}

// add subscribes h to eventTypes, or to every type when none are given.
// Adding the same handler twice for a type is a no-op.
func (t *routeTable) add(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{anyEvent}
	}
	t.update(func(next routes) {
		for _, et := range eventTypes {
			if !slices.Contains(next[et], h) {
				next[et] = append(slices.Clone(next[et]), h)
			}
		}
	})
}

// remove drops h from every event type
func (t *routeTable) remove(h shared.EventHandler) {
	t.update(func(next routes) {
		for et, hs := range next {
			kept := slices.DeleteFunc(slices.Clone(hs), func(x shared.EventHandler) bool { return x == h })
			if len(kept) == 0 {
				delete(next, et)
				continue
			}
			next[et] = kept
		}
	})
}

func (t *routeTable) update(mutate func(routes)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make(routes, len(*t.current.Load()))
	for et, hs := range *t.current.Load() {
		next[et] = hs
	}
	mutate(next)
	t.current.Store(&next)
}

// lookup returns the handlers for eventType followed by catch-all handlers
func (t *routeTable) lookup(eventType string) []shared.EventHandler {
	snap := *t.current.Load()
	if eventType == anyEvent {
		return slices.Clone(snap[anyEvent])
	}
	return slices.Concat(snap[eventType], snap[anyEvent])
}

// eventTypes lists the types with a dedicated handler, sorted
func (t *routeTable) eventTypes() []string {
	snap := *t.current.Load()
	types := make([]string, 0, len(snap))
	for et := range snap {
		if et != anyEvent {
			types = append(types, et)
		}
	}
	slices.Sort(types)
	return types
}
