package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/crooner-app/crooner/internal/domain"
	"github.com/crooner-app/crooner/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Acknowledgment messages sent back to the requester. The exact strings are
// part of the wire contract with existing clients; do not reword them.
var (
	ErrRoomNotOpen   = errors.New("Room is no longer open")
	ErrSongNotFound  = errors.New("Song not found")
	ErrAddFailed     = errors.New("Could not add song to queue")
	ErrItemNotFound  = errors.New("Item not found")
	ErrItemWrongRoom = errors.New("Item is not in your room")
	ErrItemNotOwned  = errors.New("Item is NOT YOURS")
	ErrRemoveFailed  = errors.New("Could not remove queue item")
	ErrUnavailable   = errors.New("Could not complete request")
)

// Identity is the verified {user, room} context a request is executed under,
// derived from the connection's authenticated session.
type Identity struct {
	UserID int64
	RoomID int64
}

// Command is the closed set of queue mutations a client can request.
type Command interface {
	isCommand()
}

// Add requests that a song be appended to the caller's room queue.
type Add struct {
	SongID int64
}

// Remove requests deletion of one of the caller's own pending entries.
type Remove struct {
	QueueID int64
}

func (Add) isCommand()    {}
func (Remove) isCommand() {}

// AckFunc delivers the synchronous acknowledgment to the requester. A nil
// error means the mutation was accepted and persisted.
type AckFunc func(error)

// Broadcaster fans a canonical snapshot out to every connection joined to a
// room's channel, including the requester's.
type Broadcaster interface {
	BroadcastQueue(roomID int64, snap domain.QueueSnapshot)
}

// Store is the persistence surface the handler mutates and reads.
type Store interface {
	domain.QueueRepository
	domain.SongRepository
}

type store struct {
	domain.QueueRepository
	domain.SongRepository
}

// NewStore combines the queue table with the read-only song catalog.
func NewStore(queues domain.QueueRepository, songs domain.SongRepository) Store {
	return store{queues, songs}
}

// Handler validates, persists and broadcasts queue mutations. All
// collaborators are explicit; nothing is read from ambient state.
type Handler struct {
	store     Store
	gate      *Gate
	broadcast Broadcaster
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger

	locks *roomLocks
}

func NewHandler(store Store, gate *Gate, broadcast Broadcaster, m *metrics.Metrics, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		store:     store,
		gate:      gate,
		broadcast: broadcast,
		metrics:   m,
		logger:    logger,
		locks:     newRoomLocks(),
	}
}

// Dispatch runs one command under the caller's identity. The requester is
// always acknowledged exactly once; on success the room's canonical queue is
// broadcast after the acknowledgment. Failures are terminal for the request,
// never retried and never broadcast.
func (h *Handler) Dispatch(ctx context.Context, id Identity, cmd Command, ack AckFunc) {
	if ack == nil {
		ack = func(error) {}
	}

	unlock := h.locks.lock(id.RoomID)
	defer unlock()

	var err error
	var kind string
	switch c := cmd.(type) {
	case Add:
		kind = "add"
		err = h.add(ctx, id, c)
	case Remove:
		kind = "remove"
		err = h.remove(ctx, id, c)
	default:
		kind = "unknown"
		err = fmt.Errorf("%w: unknown command %T", ErrUnavailable, cmd)
	}

	if err != nil {
		h.metrics.QueueRejections.WithLabelValues(kind).Inc()
		ack(err)
		return
	}

	h.metrics.QueueMutations.WithLabelValues(kind).Inc()
	ack(nil)

	// Broadcast strictly after confirmed persistence, inside the room lock,
	// so every client observes snapshots in the same relative order.
	snap, err := h.store.Snapshot(ctx, id.RoomID)
	if err != nil {
		h.logger.Errorw("canonical queue read failed after mutation",
			"roomId", id.RoomID, "error", err)
		return
	}

	h.broadcast.BroadcastQueue(id.RoomID, snap)
	h.metrics.Broadcasts.Inc()
}

func (h *Handler) add(ctx context.Context, id Identity, cmd Add) error {
	open, err := h.gate.IsOpen(ctx, id.RoomID)
	if err != nil {
		h.logger.Errorw("room lookup failed", "roomId", id.RoomID, "error", err)
		return ErrUnavailable
	}
	if !open {
		return ErrRoomNotOpen
	}

	exists, err := h.store.SongExists(ctx, cmd.SongID)
	if err != nil {
		h.logger.Errorw("song lookup failed", "songId", cmd.SongID, "error", err)
		return ErrUnavailable
	}
	if !exists {
		return ErrSongNotFound
	}

	changes, err := h.store.Insert(ctx, id.RoomID, cmd.SongID, id.UserID)
	if err != nil {
		h.logger.Errorw("queue insert failed", "roomId", id.RoomID,
			"songId", cmd.SongID, "error", err)
		return ErrUnavailable
	}
	if changes != 1 {
		h.logger.Errorw("queue insert affected no rows", "roomId", id.RoomID,
			"songId", cmd.SongID)
		return ErrAddFailed
	}

	return nil
}

func (h *Handler) remove(ctx context.Context, id Identity, cmd Remove) error {
	open, err := h.gate.IsOpen(ctx, id.RoomID)
	if err != nil {
		h.logger.Errorw("room lookup failed", "roomId", id.RoomID, "error", err)
		return ErrUnavailable
	}
	if !open {
		return ErrRoomNotOpen
	}

	// Checks short-circuit in a fixed order (existence → room → ownership)
	// so a caller never learns ownership details about entries outside
	// their room.
	entry, err := h.store.Entry(ctx, cmd.QueueID)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		h.logger.Errorw("queue entry lookup failed", "queueId", cmd.QueueID, "error", err)
		return ErrUnavailable
	}

	if entry.RoomID != id.RoomID {
		return ErrItemWrongRoom
	}

	if entry.UserID != id.UserID {
		return ErrItemNotOwned
	}

	changes, err := h.store.Delete(ctx, cmd.QueueID)
	if err != nil {
		h.logger.Errorw("queue delete failed", "queueId", cmd.QueueID, "error", err)
		return ErrUnavailable
	}
	if changes != 1 {
		h.logger.Errorw("queue delete affected no rows", "queueId", cmd.QueueID)
		return ErrRemoveFailed
	}

	return nil
}
