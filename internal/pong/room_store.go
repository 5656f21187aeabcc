// internal/pong/room_store.go
package pong

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore is the authoritative in-memory table of active rooms. It is the
// only place rooms are registered; the coordinator mediates all writes.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewRoomStore returns an empty store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[uuid.UUID]*Room),
	}
}

// AddRoom registers a room.
func (s *RoomStore) AddRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

// GetRoom retrieves a room by id.
func (s *RoomStore) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// DeleteRoom removes a room. Deleting an id that is already gone is a no-op.
func (s *RoomStore) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// GetRoomByPlayer returns the room a player participates in, or nil. This is
// a linear scan over active rooms; concurrent room count stays small enough
// that an index keyed by player is not worth maintaining.
func (s *RoomStore) GetRoomByPlayer(playerID uuid.UUID) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.PlayerByID(playerID) != nil {
			return r
		}
	}
	return nil
}

// IsPlayerInRoom reports whether any active room references the player.
func (s *RoomStore) IsPlayerInRoom(playerID uuid.UUID) bool {
	return s.GetRoomByPlayer(playerID) != nil
}

// Len returns the number of active rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
