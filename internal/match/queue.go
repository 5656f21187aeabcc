// internal/match/queue.go
package match

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rally/internal/pong"
)

// QueueEntry is one player waiting for a ladder opponent, held in strict
// arrival order.
type QueueEntry struct {
	PlayerID uuid.UUID
	Sink     pong.EventSink
}

// Queue is the FIFO ladder matchmaking pool. It is ephemeral: nothing
// survives a process restart.
type Queue struct {
	mu      sync.Mutex
	entries []QueueEntry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an entry at the tail.
func (q *Queue) Enqueue(entry QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
}

// Dequeue removes and returns the oldest entry. The second return is false
// when the queue is empty.
func (q *Queue) Dequeue() (QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueueEntry{}, false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// RemoveByPlayer removes a specific waiting player, reporting whether a
// removal occurred. Used when a queued player cancels or disconnects.
func (q *Queue) RemoveByPlayer(playerID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the player is currently waiting.
func (q *Queue) Contains(playerID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Len returns the number of waiting players.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
