package auth

import (
	"sync"
	"time"
)

// StateChange is published whenever a user signs in or out.
type StateChange struct {
	UserID   string
	SignedIn bool
	At       time.Time
}

// Notifier fans out state changes to subscribers synchronously, in
// subscription order.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(StateChange)
	order  []int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(StateChange))}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (n *Notifier) Subscribe(fn func(StateChange)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.order = append(n.order, id)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			for i, v := range n.order {
				if v == id {
					n.order = append(n.order[:i], n.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (n *Notifier) Publish(change StateChange) {
	n.mu.RLock()
	fns := make([]func(StateChange), 0, len(n.order))
	for _, id := range n.order {
		fns = append(fns, n.subs[id])
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}
