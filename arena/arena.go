// Package arena provides a generational-index arena. Cross-references
// between game objects (a bot's target, a weapon's owner, a projectile's
// shooter) are stored as handles, so removing an object safely invalidates
// every reference to it without scanning.
package arena

// Handle identifies one slot in an arena. The generation disambiguates a
// reused slot from the object that previously occupied it.
type Handle struct {
	Index uint32
	Gen   uint32
}

// None is the zero handle; it never resolves.
var None = Handle{}

// IsSome reports whether the handle was ever issued by an arena.
func (h Handle) IsSome() bool { return h.Gen != 0 }

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// Arena is a slot-based owning collection addressed by Handle.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// Insert stores a value and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.live = true
		s.value = v
		return Handle{Index: idx, Gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{gen: 1, live: true, value: v})
	return Handle{Index: uint32(len(a.slots) - 1), Gen: 1}
}

// Get returns a pointer to the value for h, or nil if h is stale or was
// never issued.
func (a *Arena[T]) Get(h Handle) *T {
	if !a.Alive(h) {
		return nil
	}
	return &a.slots[h.Index].value
}

// Alive reports whether h still refers to a live value.
func (a *Arena[T]) Alive(h Handle) bool {
	if h.Gen == 0 || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	return s.live && s.gen == h.Gen
}

// Remove deletes the value for h and bumps the slot generation so stale
// handles stop resolving.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !a.Alive(h) {
		return zero, false
	}
	s := &a.slots[h.Index]
	v := s.value
	s.value = zero
	s.live = false
	s.gen++
	a.free = append(a.free, h.Index)
	a.count--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.count }

// ForEach visits every live value in slot order. Removing the visited
// value inside fn is allowed; inserting during iteration is not.
func (a *Arena[T]) ForEach(fn func(Handle, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{Index: uint32(i), Gen: s.gen}, &s.value)
		}
	}
}

// Handles returns the handles of all live values in slot order.
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, a.count)
	for i := range a.slots {
		if a.slots[i].live {
			out = append(out, Handle{Index: uint32(i), Gen: a.slots[i].gen})
		}
	}
	return out
}
