package app

import (
	"sync"

	"ladder-quiz-service/internal/domain"
)

// Updates fans game snapshots out to every connection a player has open.
type Updates struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.GameView]struct{}
}

func NewUpdates() *Updates {
	return &Updates{subscribers: make(map[string]map[chan domain.GameView]struct{})}
}

// Subscribe returns a channel receiving the user's game updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (u *Updates) Subscribe(userID string) (<-chan domain.GameView, func()) {
	ch := make(chan domain.GameView, 8)

	u.mu.Lock()
	subs, ok := u.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.GameView]struct{})
		u.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	u.mu.Unlock()

	cancel := func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		subs := u.subscribers[userID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(u.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish delivers view to the owner's subscribers without blocking.
func (u *Updates) Publish(view domain.GameView) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for ch := range u.subscribers[view.UserID] {
		select {
		case ch <- view:
		default:
			// Slow reader: drop the oldest snapshot, the newest one wins.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

// Subscribers reports how many channels are open for userID.
func (u *Updates) Subscribers(userID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.subscribers[userID])
}
