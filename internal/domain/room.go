package domain

import "context"

const (
	RoomStatusOpen   = "open"
	RoomStatusClosed = "closed"
)

type Room struct {
	RoomID int64  `json:"roomId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// IsOpen reports whether the room is currently accepting new queue entries.
func (r *Room) IsOpen() bool {
	return r != nil && r.Status == RoomStatusOpen
}

// RoomRepository is a read-only lookup; room lifecycle is managed elsewhere.
type RoomRepository interface {
	// FindRoom returns ErrNotFound when no such room exists.
	FindRoom(ctx context.Context, roomID int64) (*Room, error)
}
