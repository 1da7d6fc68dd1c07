package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/crooner-app/crooner/internal/queue"
	"github.com/gorilla/websocket"
)

// Client is one connection joined to a room's channel.
type Client struct {
	conn     *connWrapper
	Message  chan *WSMessage
	done     chan struct{}
	doneOnce sync.Once
	ID       string `json:"id"`
	RoomID   int64  `json:"roomId"`
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

func NewClient(conn *websocket.Conn, id string, roomID, userID int64, userName string) *Client {
	return &Client{
		conn:     newConnWrapper(conn),
		Message:  make(chan *WSMessage, 64), // buffered to avoid dead-locks on slow clients
		done:     make(chan struct{}),
		ID:       id,
		RoomID:   roomID,
		UserID:   userID,
		UserName: userName,
	}
}

// shutdown releases the write pump. The Message channel is never closed, so
// a racing broadcast can never panic; its message is simply dropped.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// ReadMessage pumps commands off the wire and into the command handler.
// Commands are handled one at a time per connection; the acknowledgment is
// queued on this client's send channel before the handler broadcasts.
func (c *Client) ReadMessage(core *Core, commands *queue.Handler) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	identity := queue.Identity{UserID: c.UserID, RoomID: c.RoomID}

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.logger.Warnw("ws read error", "clientId", c.ID, "error", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// Malformed payloads are a connection-level concern; the
			// mutation pipeline never sees them.
			core.logger.Debugw("dropping malformed frame", "clientId", c.ID, "error", err)
			continue
		}

		cmd, ok := c.decodeCommand(core, env)
		if !ok {
			continue
		}

		ack := func(err error) {
			c.send(NewQueueAck(c.RoomID, env.RequestID, err))
		}

		commands.Dispatch(context.Background(), identity, cmd, ack)
	}
}

func (c *Client) decodeCommand(core *Core, env Envelope) (queue.Command, bool) {
	switch env.Type {
	case QueueAddCmd:
		var p AddPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			core.logger.Debugw("dropping malformed add payload", "clientId", c.ID, "error", err)
			return nil, false
		}
		return queue.Add{SongID: p.SongID}, true

	case QueueRemoveCmd:
		var p RemovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			core.logger.Debugw("dropping malformed remove payload", "clientId", c.ID, "error", err)
			return nil, false
		}
		return queue.Remove{QueueID: p.QueueID}, true

	default:
		core.logger.Debugw("dropping unknown command type", "clientId", c.ID, "type", env.Type)
		return nil, false
	}
}

// send queues a message for this client only, dropping it if the client's
// buffer is full.
func (c *Client) send(msg *WSMessage) {
	select {
	case c.Message <- msg:
	default:
	}
}

// WriteMessage pumps queued messages out to the wire until the client is
// shut down or the connection fails.
func (c *Client) WriteMessage() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.Message:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
