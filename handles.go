package drape

// CallbackHandle allows removing a registered callback. The zero value is
// valid and Remove on it does nothing.
type CallbackHandle struct {
	id     uint32
	remove func(id uint32)
}

// Remove unregisters the callback so it no longer fires. Calling Remove more
// than once is harmless.
func (h CallbackHandle) Remove() {
	if h.remove == nil {
		return
	}
	h.remove(h.id)
}

type listener[T any] struct {
	id uint32
	fn func(T)
}

// listenerList is an ordered callback registry. Removal shifts the tail down
// so iteration never visits dead slots.
type listenerList[T any] struct {
	entries []listener[T]
	nextID  uint32
}

func (l *listenerList[T]) add(fn func(T)) CallbackHandle {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listener[T]{id: id, fn: fn})
	return CallbackHandle{id: id, remove: l.removeID}
}

func (l *listenerList[T]) removeID(id uint32) {
	for i := range l.entries {
		if l.entries[i].id == id {
			copy(l.entries[i:], l.entries[i+1:])
			l.entries[len(l.entries)-1] = listener[T]{}
			l.entries = l.entries[:len(l.entries)-1]
			return
		}
	}
}

// emit calls every listener in registration order. Listeners removed during
// emission are not called afterwards.
func (l *listenerList[T]) emit(v T) {
	for i := 0; i < len(l.entries); i++ {
		id := l.entries[i].id
		l.entries[i].fn(v)
		if i < len(l.entries) && l.entries[i].id != id {
			i--
		}
	}
}

func (l *listenerList[T]) len() int { return len(l.entries) }
