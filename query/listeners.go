package query

import (
	"fmt"
	"reflect"
	"sync"
)

// listeners is a set of state callbacks.
type listeners[S any] struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]func(S)
}

func (l *listeners[S]) add(fn func(S)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[uint64]func(S))
	}
	l.next++
	id := l.next
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners[S]) notify(state S) {
	l.mu.Lock()
	fns := make([]func(S), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (l *listeners[S]) clear() {
	l.mu.Lock()
	l.fns = nil
	l.mu.Unlock()
}

// depsEqual compares dependency lists element by element by value.
func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// as converts a cached value to T. A nil value yields the zero T.
func as[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrTypeMismatch, v, zero)
	}
	return t, nil
}
