package notification

import (
	"fmt"
	"sync"
	"time"

	"forum/pkg/common"
	"forum/pkg/storage"
)

// Slot is the persistence slot holding all notifications.
const Slot = "notification-store"

// Payload is what callers provide; id, read flag and timestamp are owned by
// the store.
type Payload struct {
	RecipientID string `json:"recipientId"`
	ActorID     string `json:"actorId"`
	Type        Type   `json:"type"`
	Message     string `json:"message"`
}

// Store keeps one flat, newest-first list of notifications for all
// recipients; every query is scoped by recipient id. The unread count is
// always derived from the list, there is no counter to drift.
type Store struct {
	mu    sync.Mutex
	items []*Notification
	snaps storage.Snapshotter
	bus   common.Broadcaster[[]Notification]
}

type state struct {
	Notifications []*Notification `json:"notifications"`
}

func NewStore(snaps storage.Snapshotter) (*Store, error) {
	s := &Store{snaps: snaps}

	st := state{}
	found, err := snaps.Load(Slot, &st)
	if err != nil {
		return nil, fmt.Errorf("notification/store: can't load snapshot: %w", err)
	}
	if found {
		s.items = st.Notifications
	}
	return s, nil
}

func (s *Store) Subscribe(fn func([]Notification)) func() {
	return s.bus.Subscribe(fn)
}

// Add prepends an unread notification for the payload's recipient.
func (s *Store) Add(p Payload) (*Notification, error) {
	if p.RecipientID == "" {
		return nil, fmt.Errorf("notification/store: recipient is required: %w", common.ErrValidation)
	}
	if !ValidType(p.Type) {
		return nil, fmt.Errorf("notification/store: unknown type %q: %w", p.Type, common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := &Notification{
		ID:          common.NewID(),
		RecipientID: p.RecipientID,
		ActorID:     p.ActorID,
		Type:        p.Type,
		Message:     p.Message,
		CreatedAt:   time.Now(),
	}
	s.items = append([]*Notification{n}, s.items...)

	if err := s.commit(); err != nil {
		s.items = s.items[1:]
		return nil, err
	}
	out := *n
	return &out, nil
}

// MarkAsRead sets the read flag. Reading is monotonic: there is no way back
// to unread through the store.
func (s *Store) MarkAsRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.lookup(id)
	if n == nil {
		return fmt.Errorf("notification/store: no notification %s: %w", id, common.ErrNotFound)
	}
	if n.Read {
		return nil
	}
	n.Read = true
	if err := s.commit(); err != nil {
		n.Read = false
		return err
	}
	return nil
}

// MarkAllAsRead marks every notification of the recipient as read.
func (s *Store) MarkAllAsRead(recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := []*Notification{}
	for _, n := range s.items {
		if common.SameID(n.RecipientID, recipientID) && !n.Read {
			n.Read = true
			changed = append(changed, n)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.commit(); err != nil {
		for _, n := range changed {
			n.Read = false
		}
		return err
	}
	return nil
}

// Clear removes the notification permanently.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, n := range s.items {
		if common.SameID(n.ID, id) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("notification/store: no notification %s: %w", id, common.ErrNotFound)
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if err := s.commit(); err != nil {
		s.items = append(s.items[:idx], append([]*Notification{removed}, s.items[idx:]...)...)
		return err
	}
	return nil
}

// ForUser lists the recipient's notifications, newest first.
func (s *Store) ForUser(recipientID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Notification{}
	for _, n := range s.items {
		if common.SameID(n.RecipientID, recipientID) {
			out = append(out, *n)
		}
	}
	return out
}

// UnreadCount counts the recipient's unread notifications.
func (s *Store) UnreadCount(recipientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if common.SameID(n.RecipientID, recipientID) && !n.Read {
			count++
		}
	}
	return count
}

func (s *Store) lookup(id string) *Notification {
	for _, n := range s.items {
		if common.SameID(n.ID, id) {
			return n
		}
	}
	return nil
}

func (s *Store) commit() error {
	if err := s.snaps.Save(Slot, state{Notifications: s.items}); err != nil {
		return fmt.Errorf("notification/store: can't persist state: %w", err)
	}
	s.bus.Publish(s.snapshot())
	return nil
}

func (s *Store) snapshot() []Notification {
	out := make([]Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, *n)
	}
	return out
}
