package workers

import (
	"context"
	"log/slog"

	"pairchat/contract"
	"pairchat/domain"
)

// DirectoryFlushWorker is the single writer of room-directory
// persistence. The directory publishes a snapshot after every
// mutation; consuming them from one goroutine keeps writes ordered
// with the mutations they reflect. A failed write is logged and
// dropped, matching the fire-and-forget durability contract.
type DirectoryFlushWorker struct {
	log        *slog.Logger
	repository contract.IRoomRepository
	snapshots  <-chan domain.Room
}

func NewDirectoryFlushWorker(log *slog.Logger, repository contract.IRoomRepository, snapshots <-chan domain.Room) *DirectoryFlushWorker {
	return &DirectoryFlushWorker{log: log, repository: repository, snapshots: snapshots}
}

func (w *DirectoryFlushWorker) Run(ctx context.Context) error {
	for {
		select {
		case room := <-w.snapshots:
			if err := w.repository.Save(room); err != nil {
				w.log.Warn("directory flush failed", "room_id", room.ID, "error", err)
			}
		case <-ctx.Done():
			w.drain()
			return nil
		}
	}
}

// drain flushes whatever snapshots are still buffered at shutdown.
func (w *DirectoryFlushWorker) drain() {
	for {
		select {
		case room := <-w.snapshots:
			if err := w.repository.Save(room); err != nil {
				w.log.Warn("directory flush failed during drain", "room_id", room.ID, "error", err)
			}
		default:
			return
		}
	}
}
