package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pairchat/domain"

	"github.com/dgraph-io/badger/v4"
)

const chatSequenceKey = "seq:chat"

// MessageRepository persists chat messages in BadgerDB.
// The key is formatted as "msg:{lo}:{hi}:{id_padded}" where lo/hi is
// the normalized unordered pair, to:
//  1. Group both directions of a conversation under one prefix.
//  2. Keep messages in id order using 19-digit zero padding
//     (lexicographical order), so a seen-up-to scan can stop early.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(chatSequenceKey), 64)
	if err != nil {
		return nil, fmt.Errorf("chat id sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, seq: seq}, nil
}

// Release hands unused sequence ids back to Badger. Call on shutdown.
func (m *MessageRepository) Release() error {
	return m.seq.Release()
}

func messagePrefix(a, b int64) []byte {
	pair := domain.NewPairKey(a, b)
	return []byte(fmt.Sprintf("msg:%d:%d:", pair.Lo, pair.Hi))
}

func messageKey(a, b int64, id uint64) []byte {
	return append(messagePrefix(a, b), []byte(fmt.Sprintf("%019d", id))...)
}

// Append assigns the next message id and persists the record.
// The generated id is returned to the caller so the relayed payload
// can carry it as chatId.
func (m *MessageRepository) Append(message domain.Message) (uint64, error) {
	next, err := m.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next chat id: %w", err)
	}
	message.ID = next + 1
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("marshal message: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.SenderID, message.ReceiverID, message.ID), data)
	})
	if err != nil {
		return 0, err
	}
	return message.ID, nil
}

// MarkSeenUpTo stamps seenAt on every unseen message sent by senderID
// to receiverID with id <= maxID. The filter is directional: only the
// given sender/receiver orientation is touched, the reply direction
// keeps its own receipts.
func (m *MessageRepository) MarkSeenUpTo(senderID, receiverID int64, maxID uint64, at time.Time) error {
	prefix := messagePrefix(senderID, receiverID)
	return m.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			id, err := messageIDFromKey(key)
			if err != nil {
				return err
			}
			// Keys are id-ordered, everything past maxID is younger.
			if id > maxID {
				break
			}

			var message domain.Message
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			if message.SenderID != senderID || message.ReceiverID != receiverID {
				continue
			}
			if message.SeenAt != nil {
				continue
			}
			message.SeenAt = &at
			data, err := json.Marshal(message)
			if err != nil {
				return err
			}
			if err = txn.Set(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListBetween returns every message exchanged between the pair, both
// directions, in id order.
func (m *MessageRepository) ListBetween(a, b int64) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := messagePrefix(a, b)
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

func messageIDFromKey(key []byte) (uint64, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("malformed message key %q", key)
	}
	return strconv.ParseUint(parts[3], 10, 64)
}
