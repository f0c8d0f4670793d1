package cropview

import "sync"

// Document broadcasts pointer releases that happen anywhere, not only over
// a view. Views subscribe to it so a gesture always ends when the pointer
// is released, wherever that happens.
type Document struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func NewDocument() *Document {
	return &Document{subs: make(map[int]func())}
}

// Subscribe registers fn for pointer releases and returns a function that
// removes it again.
func (d *Document) Subscribe(fn func()) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// PointerUp notifies every subscriber of a release.
func (d *Document) PointerUp() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
