package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

// RoomRepository persists the room directory in BadgerDB.
// Keys are formatted as "room:{roomId}" with JSON values. The whole
// prefix is loaded once at startup and rewritten room by room on
// every mutation.
type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

func roomKey(id domain.RoomID) []byte {
	return []byte("room:" + string(id))
}

// LoadAll reads every persisted room. An undecodable record means the
// directory is corrupt: the caller must refuse to start serving.
func (r *RoomRepository) LoadAll() ([]domain.Room, error) {
	var rooms []domain.Room
	prefix := []byte("room:")
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var room domain.Room
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &room)
			}); err != nil {
				return fmt.Errorf("%w: key %s: %v", errors.ErrDirectoryCorrupt, item.Key(), err)
			}
			if room.ID == "" {
				return fmt.Errorf("%w: key %s: empty room id", errors.ErrDirectoryCorrupt, item.Key())
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info(fmt.Sprintf("%d rooms loaded from directory", len(rooms)))
	return rooms, nil
}

// Save rewrites a single room record.
func (r *RoomRepository) Save(room domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.ID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), data)
	})
}
