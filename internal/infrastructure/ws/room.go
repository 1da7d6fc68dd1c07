package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrRoomNotFound = errors.New("room has no connected clients")

// wsRoom is the set of connections currently joined to one room's channel.
type wsRoom struct {
	ID      int64
	Clients map[string]*Client
}

// RoomManager tracks which connections are joined to which room channel.
type RoomManager struct {
	rooms    map[int64]*wsRoom // roomID → wsRoom
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewRoomManager(logger *zap.SugaredLogger) *RoomManager {
	return &RoomManager{
		rooms:  make(map[int64]*wsRoom),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS middleware upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (rm *RoomManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return rm.upgrader.Upgrade(w, r, nil)
}

func (rm *RoomManager) AddClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[cl.RoomID]
	if !ok {
		room = &wsRoom{
			ID:      cl.RoomID,
			Clients: make(map[string]*Client),
		}
		rm.rooms[cl.RoomID] = room
	}

	if _, exists := room.Clients[cl.ID]; !exists {
		room.Clients[cl.ID] = cl
	}
}

func (rm *RoomManager) RemoveClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[cl.RoomID]; ok {
		if _, ok := room.Clients[cl.ID]; ok {
			delete(room.Clients, cl.ID)
			cl.shutdown()

			if len(room.Clients) == 0 {
				delete(rm.rooms, cl.RoomID)
			}
		}
	}
}

// ClientCount returns the number of connections joined to a room's channel.
func (rm *RoomManager) ClientCount(roomID int64) int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, ok := rm.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.Clients)
}

// BroadcastToRoom delivers msg to every client joined to the room's channel.
// Delivery is best effort: there is no fairness guarantee beyond the
// membership list at broadcast time, and a slow consumer's message is
// dropped rather than blocking the room.
func (rm *RoomManager) BroadcastToRoom(msg *WSMessage) error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, ok := rm.rooms[msg.RoomID]
	if !ok {
		return ErrRoomNotFound
	}

	// Sends are non-blocking, so the room never stalls on one consumer.
	for _, cl := range room.Clients {
		select {
		case cl.Message <- msg:
		default:
			rm.logger.Warnw("client buffer full, dropping message",
				"clientId", cl.ID, "roomId", msg.RoomID, "type", msg.Type)
		}
	}
	return nil
}
