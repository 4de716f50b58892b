package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

const userSequenceKey = "seq:user"

// UserRepository is the BadgerDB-backed user directory.
// Keys are formatted as "user:{id}" with JSON values.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewUserRepository(db *badger.DB, log *slog.Logger) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte(userSequenceKey), 64)
	if err != nil {
		return nil, fmt.Errorf("user id sequence: %w", err)
	}
	return &UserRepository{db: db, log: log, seq: seq}, nil
}

// Release hands unused sequence ids back to Badger. Call on shutdown.
func (u *UserRepository) Release() error {
	return u.seq.Release()
}

func userKey(id int64) []byte {
	return []byte(fmt.Sprintf("user:%d", id))
}

// Create assigns the next user id and persists the record.
func (u *UserRepository) Create(user domain.User) (int64, error) {
	next, err := u.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	// Sequences start at 0; ids start at 1 like the relational
	// schema this directory mirrors.
	user.ID = int64(next) + 1

	data, err := json.Marshal(user)
	if err != nil {
		return 0, fmt.Errorf("marshal user: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
	return user.ID, err
}

// FindByID resolves a user or reports ErrUnknownUser.
func (u *UserRepository) FindByID(id int64) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("%w: id %d", errors.ErrUnknownUser, id)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SetOnline flips the stored online flag with a read-modify-write
// inside a single transaction.
func (u *UserRepository) SetOnline(id int64, online bool) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: id %d", errors.ErrUnknownUser, id)
		}
		if err != nil {
			return err
		}
		var user domain.User
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}
		user.IsOnline = online
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
}
