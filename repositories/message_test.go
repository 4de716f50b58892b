package repositories

import (
	"log/slog"
	"testing"
	"time"

	"pairchat/domain"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Append_Assigns_Increasing_Ids(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Release()

	first, err := repository.Append(domain.Message{SenderID: 1, ReceiverID: 2, Body: "hi"})
	req.NoError(err)
	second, err := repository.Append(domain.Message{SenderID: 2, ReceiverID: 1, Body: "hello"})
	req.NoError(err)

	req.Greater(second, first)
}

func Test_ListBetween_Both_Directions_In_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Release()

	// Given a conversation with replies
	_, err = repository.Append(domain.Message{SenderID: 1, ReceiverID: 2, Body: "hi"})
	req.NoError(err)
	_, err = repository.Append(domain.Message{SenderID: 2, ReceiverID: 1, Body: "hello"})
	req.NoError(err)
	_, err = repository.Append(domain.Message{SenderID: 1, ReceiverID: 2, Body: "how are you"})
	req.NoError(err)
	// And an unrelated pair
	_, err = repository.Append(domain.Message{SenderID: 3, ReceiverID: 4, Body: "elsewhere"})
	req.NoError(err)

	// When listing the pair, in either order
	messages, err := repository.ListBetween(2, 1)
	req.NoError(err)

	// Then both directions appear, id-ordered, nothing leaks across pairs
	req.Len(messages, 3)
	bodies := lo.Map(messages, func(m domain.Message, _ int) string { return m.Body })
	req.Equal([]string{"hi", "hello", "how are you"}, bodies)
}

func Test_MarkSeenUpTo_Stamps_Only_Older_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Release()

	var ids []uint64
	for _, body := range []string{"one", "two", "three"} {
		id, err := repository.Append(domain.Message{SenderID: 1, ReceiverID: 2, Body: body})
		req.NoError(err)
		ids = append(ids, id)
	}

	// When marking seen up to the second message
	at := time.Now().UTC()
	req.NoError(repository.MarkSeenUpTo(1, 2, ids[1], at))

	// Then messages with id <= N carry the timestamp, younger ones don't
	messages, err := repository.ListBetween(1, 2)
	req.NoError(err)
	req.Len(messages, 3)
	req.NotNil(messages[0].SeenAt)
	req.NotNil(messages[1].SeenAt)
	req.Nil(messages[2].SeenAt)
}

func Test_MarkSeenUpTo_Is_Directional(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Release()

	// Given one message in each direction
	sentID, err := repository.Append(domain.Message{SenderID: 1, ReceiverID: 2, Body: "hi"})
	req.NoError(err)
	replyID, err := repository.Append(domain.Message{SenderID: 2, ReceiverID: 1, Body: "hello"})
	req.NoError(err)

	// When marking the 1->2 direction seen up to the reply's id
	req.NoError(repository.MarkSeenUpTo(1, 2, replyID, time.Now().UTC()))

	// Then only the 1->2 message is stamped
	messages, err := repository.ListBetween(1, 2)
	req.NoError(err)
	byID := lo.KeyBy(messages, func(m domain.Message) uint64 { return m.ID })
	req.NotNil(byID[sentID].SeenAt)
	req.Nil(byID[replyID].SeenAt)
}
