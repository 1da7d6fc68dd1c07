package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crooner-app/crooner/internal/domain"
)

// lookupRepository serves the read-only room/song/user lookups the queue
// collaborators need. Writes to these tables happen out of band (room and
// catalog management), except for the seeding helpers below.
type lookupRepository struct {
	db *DB
}

func NewLookupRepository(db *DB) *lookupRepository {
	return &lookupRepository{db: db}
}

var (
	_ domain.RoomRepository = (*lookupRepository)(nil)
	_ domain.SongRepository = (*lookupRepository)(nil)
	_ domain.UserRepository = (*lookupRepository)(nil)
)

func (r *lookupRepository) FindRoom(ctx context.Context, roomID int64) (*domain.Room, error) {
	var room domain.Room
	err := r.db.db.QueryRowContext(ctx,
		`SELECT room_id, name, status FROM rooms WHERE room_id = ?`,
		roomID).Scan(&room.RoomID, &room.Name, &room.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch room: %w", err)
	}
	return &room, nil
}

func (r *lookupRepository) SongExists(ctx context.Context, songID int64) (bool, error) {
	var one int
	err := r.db.db.QueryRowContext(ctx,
		`SELECT 1 FROM songs WHERE song_id = ?`, songID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch song: %w", err)
	}
	return true, nil
}

func (r *lookupRepository) FindUser(ctx context.Context, userID int64) (*domain.User, error) {
	var user domain.User
	err := r.db.db.QueryRowContext(ctx,
		`SELECT user_id, name FROM users WHERE user_id = ?`,
		userID).Scan(&user.UserID, &user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &user, nil
}

// CreateRoom inserts a room and returns its assigned ID.
func (r *lookupRepository) CreateRoom(ctx context.Context, name, status string) (int64, error) {
	res, err := r.db.db.ExecContext(ctx,
		`INSERT INTO rooms (name, status) VALUES (?, ?)`, name, status)
	if err != nil {
		return 0, fmt.Errorf("insert room: %w", err)
	}
	return res.LastInsertId()
}

// CreateUser inserts a user and returns its assigned ID.
func (r *lookupRepository) CreateUser(ctx context.Context, name string) (int64, error) {
	res, err := r.db.db.ExecContext(ctx,
		`INSERT INTO users (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// CreateSong inserts a song and returns its assigned ID.
func (r *lookupRepository) CreateSong(ctx context.Context, artist, title string, duration int) (int64, error) {
	res, err := r.db.db.ExecContext(ctx,
		`INSERT INTO songs (artist, title, duration) VALUES (?, ?, ?)`,
		artist, title, duration)
	if err != nil {
		return 0, fmt.Errorf("insert song: %w", err)
	}
	return res.LastInsertId()
}
