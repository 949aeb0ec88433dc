package worker

import (
	"context"
	"sync"
)

// defaultInboxCap bounds how many notices are kept per recipient.
const defaultInboxCap = 50

// Inbox is a Sender that retains delivered notifications in memory,
// newest first, capped per recipient. It backs the notification read API
// for deployments without an external delivery channel.
type Inbox struct {
	mu      sync.RWMutex
	byRecip map[string][]Notification
	cap     int
}

// NewInbox creates an inbox keeping up to perRecipient notices each.
func NewInbox(perRecipient int) *Inbox {
	if perRecipient < 1 {
		perRecipient = defaultInboxCap
	}
	return &Inbox{
		byRecip: make(map[string][]Notification),
		cap:     perRecipient,
	}
}

// Send stores the notification in the recipient's inbox.
func (i *Inbox) Send(_ context.Context, n Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	box := append([]Notification{n}, i.byRecip[n.RecipientID]...)
	if len(box) > i.cap {
		box = box[:i.cap]
	}
	i.byRecip[n.RecipientID] = box
	return nil
}

// Recent returns up to limit notices for the recipient, newest first.
func (i *Inbox) Recent(recipientID string, limit int) []Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	box := i.byRecip[recipientID]
	if limit <= 0 || limit > len(box) {
		limit = len(box)
	}
	out := make([]Notification, limit)
	copy(out, box[:limit])
	return out
}
