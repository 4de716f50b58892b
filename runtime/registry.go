// Package runtime holds the connection/room state machine: the
// connection registry, the room directory, and the orchestrator that
// relays events between paired users. It contains no transport or
// storage logic beyond the injected contracts.
package runtime

import (
	"sync"

	"pairchat/contract"
	"pairchat/domain"

	"github.com/google/uuid"
)

type Set[T comparable] map[T]struct{}

type session struct {
	sink   contract.EventSink
	userID int64
}

// Registry tracks live connections and their broadcast groups.
// It keeps a forward index (room -> connections) for relay fan-out
// and a reverse index (connection -> rooms) so dropping a connection
// never scans the room map.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session
	roomConns map[domain.RoomID]Set[uuid.UUID]
	connRooms map[uuid.UUID]Set[domain.RoomID]
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[uuid.UUID]*session),
		roomConns: make(map[domain.RoomID]Set[uuid.UUID]),
		connRooms: make(map[uuid.UUID]Set[domain.RoomID]),
	}
}

// Register records a freshly accepted connection and its sink.
func (r *Registry) Register(connID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = &session{sink: sink}
}

// BindUser attaches the logical user to a connection. Set once, at
// connection-setup time; later calls with the same user are no-ops.
func (r *Registry) BindUser(connID uuid.UUID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok && s.userID == 0 {
		s.userID = userID
	}
}

// Join subscribes a connection to a room's broadcast group.
func (r *Registry) Join(connID uuid.UUID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connID]; !ok {
		return
	}
	if _, ok := r.roomConns[roomID]; !ok {
		r.roomConns[roomID] = make(Set[uuid.UUID])
	}
	r.roomConns[roomID][connID] = struct{}{}

	if _, ok := r.connRooms[connID]; !ok {
		r.connRooms[connID] = make(Set[domain.RoomID])
	}
	r.connRooms[connID][roomID] = struct{}{}
}

func (r *Registry) IsJoined(connID uuid.UUID, roomID domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roomConns[roomID][connID]
	return ok
}

// Drop removes a connection from the registry and every broadcast
// group it joined. Safe to call for unknown connections: cleanup on
// close must succeed even when setup never completed.
func (r *Registry) Drop(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connID)

	for roomID := range r.connRooms[connID] {
		if conns, ok := r.roomConns[roomID]; ok {
			delete(conns, connID)
			// No empty sets left behind, rooms come and go for the
			// lifetime of the process.
			if len(conns) == 0 {
				delete(r.roomConns, roomID)
			}
		}
	}
	delete(r.connRooms, connID)
}

// SinksForRoom returns the delivery targets of a room's broadcast
// group. Pass uuid.Nil as except to address everyone, or the sender's
// connection id to exclude them.
func (r *Registry) SinksForRoom(roomID domain.RoomID, except uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.roomConns[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range conns {
		if connID == except {
			continue
		}
		if s, exists := r.sessions[connID]; exists {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

// AllSinks returns every live connection's sink, minus except.
// Used for global presence broadcasts.
func (r *Registry) AllSinks(except uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connID, s := range r.sessions {
		if connID == except {
			continue
		}
		sinks = append(sinks, s.sink)
	}
	return sinks
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
