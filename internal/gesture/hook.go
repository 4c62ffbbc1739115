package gesture

// Hook is an ordered list of listeners.
type Hook struct {
	next      int
	listeners []listener
}

type listener struct {
	id int
	fn func()
}

// On adds fn and returns a function that removes it.
func (h *Hook) On(fn func()) (off func()) {
	h.next++
	id := h.next
	h.listeners = append(h.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

func (h *Hook) fire() {
	for _, l := range append([]listener(nil), h.listeners...) {
		l.fn()
	}
}
