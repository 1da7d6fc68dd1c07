package queue

import (
	"context"
	"errors"

	"github.com/crooner-app/crooner/internal/domain"
)

// Gate answers whether a room is currently accepting queue mutations.
type Gate struct {
	rooms domain.RoomRepository
}

func NewGate(rooms domain.RoomRepository) *Gate {
	return &Gate{rooms: rooms}
}

// IsOpen reports whether the room exists and its status is "open". A room
// that is missing or closed is not an error; a failed lookup is, so callers
// can tell a refused mutation from an unanswerable one.
func (g *Gate) IsOpen(ctx context.Context, roomID int64) (bool, error) {
	room, err := g.rooms.FindRoom(ctx, roomID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return room.IsOpen(), nil
}
