package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crooner-app/crooner/internal/domain"
)

type queueRepository struct {
	db *DB
}

func NewQueueRepository(db *DB) domain.QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Insert(ctx context.Context, roomID, songID, userID int64) (int64, error) {
	if roomID <= 0 || songID <= 0 || userID <= 0 {
		return 0, domain.ErrInvalidInput
	}

	res, err := r.db.db.ExecContext(ctx,
		`INSERT INTO queue (room_id, song_id, user_id) VALUES (?, ?, ?)`,
		roomID, songID, userID)
	if err != nil {
		return 0, fmt.Errorf("insert queue entry: %w", err)
	}
	return res.RowsAffected()
}

func (r *queueRepository) Delete(ctx context.Context, queueID int64) (int64, error) {
	if queueID <= 0 {
		return 0, domain.ErrInvalidInput
	}

	res, err := r.db.db.ExecContext(ctx,
		`DELETE FROM queue WHERE queue_id = ?`, queueID)
	if err != nil {
		return 0, fmt.Errorf("delete queue entry: %w", err)
	}
	return res.RowsAffected()
}

func (r *queueRepository) Entry(ctx context.Context, queueID int64) (*domain.QueueEntry, error) {
	var entry domain.QueueEntry
	err := r.db.db.QueryRowContext(ctx,
		`SELECT queue_id, room_id, song_id, user_id FROM queue WHERE queue_id = ?`,
		queueID).Scan(&entry.QueueID, &entry.RoomID, &entry.SongID, &entry.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch queue entry: %w", err)
	}
	return &entry, nil
}

// Snapshot produces the canonical queue for a room: every pending entry
// joined with the submitter's display name, ordered by queue_id ascending.
func (r *queueRepository) Snapshot(ctx context.Context, roomID int64) (domain.QueueSnapshot, error) {
	snap := domain.EmptySnapshot()

	rows, err := r.db.db.QueryContext(ctx, `
		SELECT q.queue_id, q.room_id, q.song_id, q.user_id, u.name
		FROM queue q
		JOIN users u ON u.user_id = q.user_id
		WHERE q.room_id = ?
		ORDER BY q.queue_id`,
		roomID)
	if err != nil {
		return snap, fmt.Errorf("read queue: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.QueueEntry
		if err := rows.Scan(&entry.QueueID, &entry.RoomID, &entry.SongID,
			&entry.UserID, &entry.UserName); err != nil {
			return snap, fmt.Errorf("scan queue entry: %w", err)
		}
		snap.Result = append(snap.Result, entry.QueueID)
		snap.Entities[entry.QueueID] = entry
	}

	return snap, rows.Err()
}
