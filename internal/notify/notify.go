// Package notify keeps the short-lived notices shown to the user, such as
// a newly set personal record.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindNewPR     Kind = "new_pr"
	KindSyncError Kind = "sync_error"
	KindInfo      Kind = "info"
)

// DefaultCapacity bounds the number of retained notifications.
const DefaultCapacity = 50

type Notification struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Center stores notifications in arrival order. IDs increase strictly
// within one Center and are never reused, including after Dismiss.
type Center struct {
	mu       sync.Mutex
	nextID   int64
	items    []Notification
	capacity int
	now      func() time.Time
}

// NewCenter creates a Center holding at most capacity notifications; the
// oldest is dropped when full. capacity <= 0 uses DefaultCapacity.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Center{
		nextID:   1,
		capacity: capacity,
		now:      time.Now,
	}
}

// Push appends a notification and returns it with its assigned ID.
func (c *Center) Push(kind Kind, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{
		ID:        c.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: c.now(),
	}
	c.nextID++

	if len(c.items) >= c.capacity {
		c.items = append(c.items[:0], c.items[len(c.items)-c.capacity+1:]...)
	}
	c.items = append(c.items, n)
	return n
}

// List returns a copy of the retained notifications, oldest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Dismiss removes the notification with id. It reports whether one was found.
func (c *Center) Dismiss(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}
