package ws

import (
	"context"

	"github.com/crooner-app/crooner/internal/domain"
	"github.com/crooner-app/crooner/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// SnapshotReader supplies the canonical queue pushed to freshly joined
// clients.
type SnapshotReader interface {
	Snapshot(ctx context.Context, roomID int64) (domain.QueueSnapshot, error)
}

// Core owns the register/unregister/broadcast loop for all rooms.
type Core struct {
	roomMgr    *RoomManager
	register   chan *Client
	unregister chan *Client
	broadcast  chan *WSMessage
	snapshots  SnapshotReader
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
}

func NewCore(roomMgr *RoomManager, snapshots SnapshotReader, m *metrics.Metrics, logger *zap.SugaredLogger) *Core {
	return &Core{
		roomMgr:    roomMgr,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *WSMessage, 256),
		snapshots:  snapshots,
		metrics:    m,
		logger:     logger,
	}
}

// Run consumes the three channels until the context is cancelled. Broadcasts
// are fanned out by this single goroutine, preserving the per-room snapshot
// order established by the command handler.
func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case cl := <-c.register:
			c.roomMgr.AddClient(cl)
			c.metrics.ConnectedClients.Inc()

			// Push the current canonical queue so a mid-sequence joiner
			// doesn't have to wait for the next mutation's broadcast. The
			// read happens on this goroutine, before any queued broadcast
			// is fanned out, so the joiner can never receive a fresher
			// snapshot first and then be wound back by a stale one.
			snap, err := c.snapshots.Snapshot(ctx, cl.RoomID)
			if err != nil {
				c.logger.Errorw("initial snapshot read failed",
					"roomId", cl.RoomID, "error", err)
				continue
			}
			cl.send(NewQueueChanged(cl.RoomID, snap))

		case cl := <-c.unregister:
			c.roomMgr.RemoveClient(cl)
			c.metrics.ConnectedClients.Dec()

		case msg := <-c.broadcast:
			if err := c.roomMgr.BroadcastToRoom(msg); err != nil {
				c.logger.Debugw("broadcast skipped", "roomId", msg.RoomID, "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

// BroadcastQueue implements the command handler's Broadcaster contract.
func (c *Core) BroadcastQueue(roomID int64, snap domain.QueueSnapshot) {
	c.broadcast <- NewQueueChanged(roomID, snap)
}
