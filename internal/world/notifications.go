package world

// Notification is one ephemeral message with a remaining time-to-live in
// seconds. Entries render in insertion order, oldest lowest in the stack.
type Notification struct {
	Message string
	TTL     float64
}

// Opacity is the render-time alpha for the entry: fully opaque until the
// final second, then linear decay.
func (n Notification) Opacity() float64 {
	if n.TTL > 1 {
		return 1
	}
	return n.TTL
}

// NotificationQueue is a time-decayed message list. Not safe for concurrent
// use; owned by the session goroutine.
type NotificationQueue struct {
	entries []Notification
}

// NewNotificationQueue returns an empty queue.
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{}
}

// Push appends an entry with the given initial ttl in seconds.
func (q *NotificationQueue) Push(message string, ttl float64) {
	q.entries = append(q.entries, Notification{Message: message, TTL: ttl})
}

// Tick decrements every entry's ttl by the elapsed frame delta and discards
// entries whose ttl dropped below zero. Exactly zero is retained.
func (q *NotificationQueue) Tick(deltaSeconds float64) {
	n := 0
	for _, e := range q.entries {
		e.TTL -= deltaSeconds
		if e.TTL >= 0 {
			q.entries[n] = e
			n++
		}
	}
	q.entries = q.entries[:n]
}

// Entries returns the live entries in insertion order.
func (q *NotificationQueue) Entries() []Notification {
	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of live entries.
func (q *NotificationQueue) Len() int { return len(q.entries) }
