package rooms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crooner-app/crooner/internal/domain"
	"github.com/crooner-app/crooner/internal/infrastructure/json"
	"github.com/crooner-app/crooner/internal/infrastructure/ws"
	"github.com/crooner-app/crooner/internal/queue"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	rooms       domain.RoomRepository
	users       domain.UserRepository
	snapshots   ws.SnapshotReader
	roomManager *ws.RoomManager
	core        *ws.Core
	commands    *queue.Handler
	logger      *zap.SugaredLogger
}

func NewHandler(
	rooms domain.RoomRepository,
	users domain.UserRepository,
	snapshots ws.SnapshotReader,
	roomManager *ws.RoomManager,
	core *ws.Core,
	commands *queue.Handler,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{
		rooms:       rooms,
		users:       users,
		snapshots:   snapshots,
		roomManager: roomManager,
		core:        core,
		commands:    commands,
		logger:      logger,
	}
}

// JoinRoomHandler upgrades the connection to a websocket and joins it to the
// room's channel. Identity comes from the session layer; here that is the
// verified userId lookup against the user store.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, errors.New("invalid room ID"))
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		json.WriteValidationError(w, errors.New("userId query parameter is required"))
		return
	}

	conn, err := h.roomManager.Upgrade(w, r)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "roomId", roomID, "error", err)
		return
	}

	room, err := h.rooms.FindRoom(r.Context(), roomID)
	if err != nil {
		msg := "Failed to load room"
		if errors.Is(err, domain.ErrNotFound) {
			msg = "Room not found"
		}
		_ = conn.WriteJSON(ws.NewJoinFailed(roomID, msg))
		_ = conn.Close()
		return
	}

	user, err := h.users.FindUser(r.Context(), userID)
	if err != nil {
		msg := "Failed to load user"
		if errors.Is(err, domain.ErrNotFound) {
			msg = "Unknown user"
		}
		_ = conn.WriteJSON(ws.NewJoinFailed(roomID, msg))
		_ = conn.Close()
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), room.RoomID, user.UserID, user.Name)
	h.core.Register() <- client

	go client.WriteMessage()
	go client.ReadMessage(h.core, h.commands)

	h.logger.Infow("user joined room channel",
		"userId", user.UserID, "userName", user.Name, "roomId", room.RoomID)
}

// GetQueueHandler serves the initial canonical snapshot over plain HTTP for
// clients that fetch state before (or instead of) joining the channel.
func (h *Handler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, errors.New("invalid room ID"))
		return
	}

	if _, err := h.rooms.FindRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		h.logger.Errorw("room lookup failed", "roomId", roomID, "error", err)
		json.WriteInternalError(w)
		return
	}

	snap, err := h.snapshots.Snapshot(r.Context(), roomID)
	if err != nil {
		h.logger.Errorw("queue snapshot read failed", "roomId", roomID, "error", err)
		json.WriteInternalError(w)
		return
	}

	json.Write(w, http.StatusOK, snap)
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
