package flash

import (
	"sync"
	"time"
)

// memoryQueue in-process fallback used when Redis is unavailable and
// in tests
type memoryQueue struct {
	mu      sync.Mutex
	pending map[string][]Message
}

// NewMemoryQueue creates an in-memory flash queue
func NewMemoryQueue() Queue {
	return &memoryQueue{pending: make(map[string][]Message)}
}

func (q *memoryQueue) push(userID string, msg Message) {
	if userID == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[userID] = append(q.pending[userID], msg)
}

func (q *memoryQueue) Success(userID, text string) {
	q.push(userID, Message{Level: LevelSuccess, Text: text, At: time.Now()})
}

func (q *memoryQueue) Error(userID, text string) {
	q.push(userID, Message{Level: LevelError, Text: text, At: time.Now()})
}

func (q *memoryQueue) Pending(userID string) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.pending[userID]...)
}

func (q *memoryQueue) ClearPending(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, userID)
}
