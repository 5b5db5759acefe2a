// Package deque provides a double-ended queue over a dense index range.
package deque

// Deque is a double-ended queue backed by a slice and a head pointer.
// Push/Pop work at the tail, Shift/Unshift at the head. Shifted slots are
// reclaimed lazily once the dead prefix outgrows the live elements.
//
// A Deque is not safe for concurrent use.
type Deque[T any] struct {
	items []T
	head  int
}

// New creates an empty deque.
func New[T any]() *Deque[T] {
	return &Deque[T]{}
}

// Size returns the number of retained elements.
func (d *Deque[T]) Size() int {
	return len(d.items) - d.head
}

// Push appends an element at the tail.
func (d *Deque[T]) Push(item T) {
	d.items = append(d.items, item)
}

// Pop removes and returns the tail element. The boolean is false when the
// deque is empty.
func (d *Deque[T]) Pop() (T, bool) {
	var zero T
	if d.Size() <= 0 {
		return zero, false
	}
	last := len(d.items) - 1
	item := d.items[last]
	d.items[last] = zero
	d.items = d.items[:last]
	d.resetIfEmpty()
	return item, true
}

// Shift removes and returns the head element. The boolean is false when the
// deque is empty.
func (d *Deque[T]) Shift() (T, bool) {
	var zero T
	if d.Size() <= 0 {
		return zero, false
	}
	item := d.items[d.head]
	d.items[d.head] = zero
	d.head++
	d.resetIfEmpty()
	d.compact()
	return item, true
}

// Unshift inserts an element at the head. With the head pointer already at
// slot 0 every retained element is moved one slot towards the tail.
func (d *Deque[T]) Unshift(item T) {
	if d.Size() <= 0 {
		d.Push(item)
		return
	}
	if d.head > 0 {
		d.head--
		d.items[d.head] = item
		return
	}
	var zero T
	d.items = append(d.items, zero)
	copy(d.items[1:], d.items[:len(d.items)-1])
	d.items[0] = item
}

// Clear drops every element.
func (d *Deque[T]) Clear() {
	d.items = nil
	d.head = 0
}

// Items returns a head-to-tail copy of the retained elements.
func (d *Deque[T]) Items() []T {
	out := make([]T, d.Size())
	copy(out, d.items[d.head:])
	return out
}

// Peek returns the tail element without removing it.
func (d *Deque[T]) Peek() (T, bool) {
	var zero T
	if d.Size() <= 0 {
		return zero, false
	}
	return d.items[len(d.items)-1], true
}

func (d *Deque[T]) resetIfEmpty() {
	if d.Size() == 0 {
		d.items = d.items[:0]
		d.head = 0
	}
}

// compact drops the dead prefix once it is larger than the live part.
func (d *Deque[T]) compact() {
	if d.head < 16 || d.head <= d.Size() {
		return
	}
	n := copy(d.items, d.items[d.head:])
	var zero T
	for i := n; i < len(d.items); i++ {
		d.items[i] = zero
	}
	d.items = d.items[:n]
	d.head = 0
}
