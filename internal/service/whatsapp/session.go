package whatsapp

import (
	"sync"
	"time"
)

// seenMessages remembers recently handled inbound message ids so a webhook
// redelivered by Meta is processed once.
type seenMessages struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func newSeenMessages(ttl time.Duration) *seenMessages {
	return &seenMessages{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// firstDelivery records id and reports whether it had not been seen within the TTL.
func (s *seenMessages) firstDelivery(id string) bool {
	if id == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, key)
		}
	}

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}
