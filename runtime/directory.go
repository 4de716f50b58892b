package runtime

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"pairchat/contract"
	"pairchat/domain"

	"github.com/google/uuid"
)

const (
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	roomIDLength   = 10
)

// Occupancy names one slot a released connection was holding.
type Occupancy struct {
	RoomID domain.RoomID
	UserID int64
}

// Directory is the single source of truth for "who is currently
// reachable as whom": one Room per unordered pair of users, each with
// at most one bound connection per user.
//
// All lookups go through indexes (pair -> room, room id -> room,
// connection -> occupied rooms); nothing ever scans the full room set.
// Every mutation happens under one mutex, so two connects racing for
// the same pair resolve to a single room, and a connect racing a
// disconnect on the same room serializes.
type Directory struct {
	mu        sync.Mutex
	log       *slog.Logger
	byPair    map[domain.PairKey]*domain.Room
	byID      map[domain.RoomID]*domain.Room
	byConn    map[uuid.UUID]Set[domain.RoomID]
	snapshots chan<- domain.Room
}

// NewDirectory loads the persisted directory through the repository
// and indexes it. Slots are cleared on load: connections are
// ephemeral and none of the persisted bindings can still be live
// after a restart. A decode failure is fatal by contract.
func NewDirectory(log *slog.Logger, repository contract.IRoomRepository, snapshots chan<- domain.Room) (*Directory, error) {
	rooms, err := repository.LoadAll()
	if err != nil {
		return nil, err
	}

	d := &Directory{
		log:       log,
		byPair:    make(map[domain.PairKey]*domain.Room),
		byID:      make(map[domain.RoomID]*domain.Room),
		byConn:    make(map[uuid.UUID]Set[domain.RoomID]),
		snapshots: snapshots,
	}
	for i := range rooms {
		room := rooms[i]
		room.Slots = make(map[int64]uuid.UUID)
		d.byPair[room.Pair()] = &room
		d.byID[room.ID] = &room
	}
	return d, nil
}

// Request resolves or creates the room for the unordered pair
// {senderID, receiverID} and binds connID as senderID's current
// connection, overwriting any prior binding (the reconnection path).
// Returns the room id and whether the room was created by this call.
//
// Lookup-or-create and slot binding are atomic with respect to
// concurrent Request and Release calls.
func (d *Directory) Request(senderID, receiverID int64, connID uuid.UUID) (domain.RoomID, bool, error) {
	if senderID == receiverID {
		return "", false, fmt.Errorf("cannot pair user %d with themselves", senderID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pair := domain.NewPairKey(senderID, receiverID)
	room, found := d.byPair[pair]
	if !found {
		id, err := d.newRoomID()
		if err != nil {
			return "", false, err
		}
		room = domain.NewRoom(id, senderID, receiverID)
		d.byPair[pair] = room
		d.byID[room.ID] = room
	}

	if prev, bound := room.Slots[senderID]; bound && prev != connID {
		// Superseded connection stays open: it may hold slots in
		// other rooms and the transport owns its lifetime.
		d.log.Info("slot rebound, previous connection superseded",
			"room_id", room.ID, "user_id", senderID, "prev_conn_id", prev)
		d.unindex(prev, room.ID)
	}
	room.Bind(senderID, connID)

	if _, ok := d.byConn[connID]; !ok {
		d.byConn[connID] = make(Set[domain.RoomID])
	}
	d.byConn[connID][room.ID] = struct{}{}

	d.persist(room)
	return room.ID, !found, nil
}

// Release frees every slot connID occupies and returns the vacated
// occupancies so the reconciler can emit per-room offline and
// typing-cancel events. A connection may represent its user in one
// room per distinct peer; all of them are released.
func (d *Directory) Release(connID uuid.UUID) []Occupancy {
	d.mu.Lock()
	defer d.mu.Unlock()

	var released []Occupancy
	for roomID := range d.byConn[connID] {
		room, ok := d.byID[roomID]
		if !ok {
			continue
		}
		userID, occupied := room.OccupantOf(connID)
		if !occupied {
			continue
		}
		room.Release(userID)
		released = append(released, Occupancy{RoomID: roomID, UserID: userID})
		d.persist(room)
	}
	delete(d.byConn, connID)
	return released
}

// Room returns a copy of the room record, if it exists.
func (d *Directory) Room(id domain.RoomID) (domain.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.byID[id]
	if !ok {
		return domain.Room{}, false
	}
	return room.Snapshot(), true
}

// Len reports the number of rooms in the directory.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}

// unindex drops a single room from a connection's occupancy index.
// Caller holds d.mu.
func (d *Directory) unindex(connID uuid.UUID, roomID domain.RoomID) {
	if rooms, ok := d.byConn[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(d.byConn, connID)
		}
	}
}

// persist hands a snapshot to the flush worker. Ordered after the
// in-memory mutation it reflects; fire-and-forget beyond that. Caller
// holds d.mu.
func (d *Directory) persist(room *domain.Room) {
	snapshot := room.Snapshot()
	select {
	case d.snapshots <- snapshot:
	default:
		d.log.Warn("snapshot channel full, directory flush dropped", "room_id", room.ID)
	}
}

// newRoomID draws a fresh 10-character alphanumeric id. Collision
// probability is non-zero over the directory's lifetime, so taken ids
// are retried. Caller holds d.mu.
func (d *Directory) newRoomID() (domain.RoomID, error) {
	for {
		id, err := randomRoomID()
		if err != nil {
			return "", err
		}
		if _, taken := d.byID[id]; !taken {
			return id, nil
		}
		d.log.Warn("room id collision, retrying", "room_id", id)
	}
}

func randomRoomID() (domain.RoomID, error) {
	max := big.NewInt(int64(len(roomIDAlphabet)))
	buf := make([]byte, roomIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("room id entropy: %w", err)
		}
		buf[i] = roomIDAlphabet[n.Int64()]
	}
	return domain.RoomID(buf), nil
}
