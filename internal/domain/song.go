package domain

import "context"

type Song struct {
	SongID   int64  `json:"songId"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// SongRepository is a read-only view onto the song catalog.
type SongRepository interface {
	SongExists(ctx context.Context, songID int64) (bool, error)
}
