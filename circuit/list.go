package circuit

// accessList orders the breakers of a registry by their last access, the
// least recently used one first. The links are stored in the breakers.
type accessList struct {
	head, tail *Breaker
}

func (l *accessList) contains(b *Breaker) bool {
	return b.prev != nil || l.head == b
}

func (l *accessList) unlink(b *Breaker) {
	if !l.contains(b) {
		return
	}

	if b.prev == nil {
		l.head = b.next
	} else {
		b.prev.next = b.next
	}

	if b.next == nil {
		l.tail = b.prev
	} else {
		b.next.prev = b.prev
	}

	b.prev, b.next = nil, nil
}

// touch moves the breaker to the end of the list, or appends it when it
// is not in the list yet.
func (l *accessList) touch(b *Breaker) {
	l.unlink(b)
	if l.tail == nil {
		l.head = b
	} else {
		l.tail.next = b
		b.prev = l.tail
	}

	l.tail = b
}

// evict unlinks the breakers from the head of the list as long as they
// are idle, and returns them.
func (l *accessList) evict(idle func(*Breaker) bool) []*Breaker {
	var evicted []*Breaker
	for l.head != nil && idle(l.head) {
		b := l.head
		l.unlink(b)
		evicted = append(evicted, b)
	}

	return evicted
}
