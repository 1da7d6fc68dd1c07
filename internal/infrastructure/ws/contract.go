package ws

import (
	"encoding/json"

	"github.com/crooner-app/crooner/internal/domain"
)

// WSMessage is the server→client event shape.
type WSMessage struct {
	Type   string `json:"type"`
	RoomID int64  `json:"roomId"`
	Data   any    `json:"data"`
}

// Envelope is the client→server command shape. RequestID correlates the
// acknowledgment with the request that produced it.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
}

// Payload structs
type AddPayload struct {
	SongID int64 `json:"songId"`
}

type RemovePayload struct {
	QueueID int64 `json:"queueId"`
}

type AckPayload struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewQueueChanged(roomID int64, snap domain.QueueSnapshot) *WSMessage {
	return &WSMessage{
		Type:   QueueChanged,
		RoomID: roomID,
		Data:   snap,
	}
}

func NewQueueAck(roomID int64, requestID string, err error) *WSMessage {
	payload := AckPayload{RequestID: requestID}
	if err != nil {
		payload.Error = err.Error()
	}

	return &WSMessage{
		Type:   QueueAck,
		RoomID: roomID,
		Data:   payload,
	}
}

func NewError(roomID int64, message string) *WSMessage {
	return &WSMessage{
		Type:   ErrorEvent,
		RoomID: roomID,
		Data: ErrorPayload{
			Message: message,
		},
	}
}

func NewJoinFailed(roomID int64, reason string) *WSMessage {
	return &WSMessage{
		Type:   JoinFailed,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
			Retry:   true,
		},
	}
}
