package turn

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one conversation. Turns on a session run one at a time.
type Session struct {
	ID     string
	UserID string

	mu      sync.Mutex
	started bool
	ended   bool
}

func NewSession(userID string) *Session {
	return &Session{ID: uuid.NewString(), UserID: userID}
}

// Ended reports whether the conversation reached END.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
