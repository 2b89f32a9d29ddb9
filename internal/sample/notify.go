package sample

import "slices"

// Subscriber is notified when the data behind a source changes.
type Subscriber interface {
	Invalidated()
}

// Listener adapts a function to the Subscriber interface. Listeners are
// compared by pointer, so keep the pointer around to unsubscribe.
type Listener struct {
	fn func()
}

// NewListener returns a Listener calling fn on every invalidation.
func NewListener(fn func()) *Listener {
	return &Listener{fn: fn}
}

func (l *Listener) Invalidated() {
	if l.fn != nil {
		l.fn()
	}
}

// Notifier holds the observer list of a node.
type Notifier struct {
	subscribers []Subscriber
}

// Subscribe adds s to the observer list. Adding the same subscriber twice is
// a no-op.
func (n *Notifier) Subscribe(s Subscriber) {
	if s == nil || slices.Contains(n.subscribers, s) {
		return
	}
	n.subscribers = append(n.subscribers, s)
}

func (n *Notifier) Unsubscribe(s Subscriber) {
	n.subscribers = slices.DeleteFunc(n.subscribers, func(x Subscriber) bool {
		return x == s
	})
}

// Subscribers returns the number of registered observers.
func (n *Notifier) Subscribers() int {
	return len(n.subscribers)
}

// Invalidate notifies every subscriber. Subscribers may unsubscribe while
// being notified.
func (n *Notifier) Invalidate() {
	for _, s := range slices.Clone(n.subscribers) {
		s.Invalidated()
	}
}
