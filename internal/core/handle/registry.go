// Package handle implements the arena that backs every entity reference in a
// simulation. Handles are dense indices into the arena; a slot is never
// reused, so a handle can never alias a different entity within one run.
package handle

import (
	"errors"

	"github.com/elliotchance/orderedmap/v2"
)

var ErrStaleHandle = errors.New("stale or missing handle")

type slot[T any] struct {
	live bool
	data T
}

// Registry stores entity data of type T keyed by handles of type H.
// Iteration follows insertion order.
type Registry[H ~uint32, T any] struct {
	slots []slot[T]
	order *orderedmap.OrderedMap[H, struct{}]
}

// New creates an empty registry.
func New[H ~uint32, T any]() *Registry[H, T] {
	return &Registry[H, T]{
		order: orderedmap.NewOrderedMap[H, struct{}](),
	}
}

// Insert stores data and returns its new handle.
func (r *Registry[H, T]) Insert(data T) H {
	r.slots = append(r.slots, slot[T]{live: true, data: data})
	h := H(len(r.slots))
	r.order.Set(h, struct{}{})
	return h
}

// Remove invalidates h and returns the data it held.
// Removing an unknown or already removed handle reports false.
func (r *Registry[H, T]) Remove(h H) (T, bool) {
	var zero T
	s := r.slot(h)
	if s == nil {
		return zero, false
	}
	data := s.data
	s.live = false
	s.data = zero
	r.order.Delete(h)
	return data, true
}

// Contains reports whether h refers to a live entry.
func (r *Registry[H, T]) Contains(h H) bool {
	return r.slot(h) != nil
}

// Get returns a pointer to the data behind h. The pointer is only valid until
// the next Insert.
func (r *Registry[H, T]) Get(h H) (*T, error) {
	s := r.slot(h)
	if s == nil {
		return nil, ErrStaleHandle
	}
	return &s.data, nil
}

// Len returns the number of live entries.
func (r *Registry[H, T]) Len() int {
	return r.order.Len()
}

// Handles returns a frozen copy of the live handles in insertion order.
// Callers may insert or remove while walking the returned slice.
func (r *Registry[H, T]) Handles() []H {
	return r.order.Keys()
}

// Each calls fn for every handle live at the time of the call, in insertion
// order, skipping entries removed by earlier callbacks. Returning false stops.
func (r *Registry[H, T]) Each(fn func(H, *T) bool) {
	for _, h := range r.Handles() {
		s := r.slot(h)
		if s == nil {
			continue
		}
		if !fn(h, &s.data) {
			return
		}
	}
}

// Issued returns how many handles have been handed out in total.
func (r *Registry[H, T]) Issued() int {
	return len(r.slots)
}

func (r *Registry[H, T]) slot(h H) *slot[T] {
	if h == 0 || int(h) > len(r.slots) {
		return nil
	}
	s := &r.slots[int(h)-1]
	if !s.live {
		return nil
	}
	return s
}
