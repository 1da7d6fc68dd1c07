package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// QueueEntry is one song pending playback in one room. Entries are never
// mutated in place: they are created on a validated add and deleted on a
// validated remove.
type QueueEntry struct {
	QueueID  int64  `json:"queueId"`
	RoomID   int64  `json:"roomId"`
	SongID   int64  `json:"songId"`
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`

	// IsOptimistic marks client-local speculative entries that have not
	// been confirmed by the server yet. Never set on persisted entries.
	IsOptimistic bool `json:"isOptimistic,omitempty"`
}

// QueueSnapshot is the full authoritative queue for a room: an ordered
// sequence of queue IDs plus the entry data keyed by ID. It is always sent
// as a complete replacement, never as a delta.
type QueueSnapshot struct {
	Result   []int64              `json:"result"`
	Entities map[int64]QueueEntry `json:"entities"`
}

// EmptySnapshot returns a snapshot with non-nil (but empty) fields so it
// serializes as {"result":[],"entities":{}} rather than nulls.
func EmptySnapshot() QueueSnapshot {
	return QueueSnapshot{
		Result:   []int64{},
		Entities: map[int64]QueueEntry{},
	}
}

// QueueRepository is the persistence contract for the queue table. Mutations
// report the number of rows affected so callers can detect writes that
// silently did nothing.
type QueueRepository interface {
	// Insert persists a new pending entry and returns the rows-affected count.
	Insert(ctx context.Context, roomID, songID, userID int64) (int64, error)

	// Delete removes an entry by ID and returns the rows-affected count.
	Delete(ctx context.Context, queueID int64) (int64, error)

	// Entry fetches a single entry by ID. Returns ErrNotFound if absent.
	Entry(ctx context.Context, queueID int64) (*QueueEntry, error)

	// Snapshot reads all entries for a room joined with the submitter's
	// display name, ordered by queue ID ascending.
	Snapshot(ctx context.Context, roomID int64) (QueueSnapshot, error)
}
