package cache

// EventKind identifies what happened to a key.
type EventKind int

const (
	// EventSet means a new value was written.
	EventSet EventKind = iota
	// EventInvalidate means the entry was removed by Invalidate or InvalidatePrefix.
	EventInvalidate
	// EventExpire means the sweep removed the entry after its TTL elapsed.
	EventExpire
	// EventClear means ClearAll emptied the store.
	EventClear
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventInvalidate:
		return "invalidate"
	case EventExpire:
		return "expire"
	case EventClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Event describes a change to one key. Value is set only for EventSet.
type Event struct {
	Kind  EventKind
	Key   string
	Value any
}

// Subscribe registers fn to be called after every change to key.
// Listeners run on the goroutine that made the change, outside the store
// lock, and must not block. The returned cancel func is idempotent.
func (s *Store) Subscribe(key string, fn func(Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]func(Event))
	}
	s.subs[key][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.subs[key]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.subs, key)
			}
		}
	}
}

// listenersLocked snapshots the listeners for key. Callers hold s.mu.
func (s *Store) listenersLocked(key string) []func(Event) {
	subs := s.subs[key]
	if len(subs) == 0 {
		return nil
	}
	out := make([]func(Event), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}

// pendingEvent pairs an event with the listeners captured under the lock.
type pendingEvent struct {
	ev        Event
	listeners []func(Event)
}

func (s *Store) emit(events []pendingEvent) {
	for _, pe := range events {
		for _, fn := range pe.listeners {
			fn(pe.ev)
		}
	}
}
