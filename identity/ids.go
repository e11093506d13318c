package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator assigns ids to new events.
type IDGenerator interface {
	NewID() string
}

// TimeRandomIDs issues UUIDv7 ids: a millisecond timestamp followed by random
// bits, so ids minted within the same millisecond during a bulk insert differ.
type TimeRandomIDs struct{}

func (TimeRandomIDs) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SequenceIDs issues prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}
