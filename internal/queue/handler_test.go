package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/crooner-app/crooner/internal/domain"
	"github.com/crooner-app/crooner/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu          sync.Mutex
	entries     map[int64]domain.QueueEntry
	order       []int64
	nextID      int64
	songs       map[int64]bool
	users       map[int64]string
	insertNoRow bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[int64]domain.QueueEntry),
		songs:   make(map[int64]bool),
		users:   make(map[int64]string),
	}
}

func (s *fakeStore) Insert(_ context.Context, roomID, songID, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertNoRow {
		return 0, nil
	}

	s.nextID++
	s.entries[s.nextID] = domain.QueueEntry{
		QueueID: s.nextID,
		RoomID:  roomID,
		SongID:  songID,
		UserID:  userID,
	}
	s.order = append(s.order, s.nextID)
	return 1, nil
}

func (s *fakeStore) Delete(_ context.Context, queueID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[queueID]; !ok {
		return 0, nil
	}
	delete(s.entries, queueID)
	for i, id := range s.order {
		if id == queueID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *fakeStore) Entry(_ context.Context, queueID int64) (*domain.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[queueID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (s *fakeStore) Snapshot(_ context.Context, roomID int64) (domain.QueueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.EmptySnapshot()
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.RoomID != roomID {
			continue
		}
		entry.UserName = s.users[entry.UserID]
		snap.Result = append(snap.Result, id)
		snap.Entities[id] = entry
	}
	return snap, nil
}

func (s *fakeStore) SongExists(_ context.Context, songID int64) (bool, error) {
	return s.songs[songID], nil
}

func (s *fakeStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type fakeRooms struct {
	rooms     map[int64]*domain.Room
	lookupErr error
}

func (r *fakeRooms) FindRoom(_ context.Context, roomID int64) (*domain.Room, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return room, nil
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	rooms []int64
	snaps []domain.QueueSnapshot
}

func (b *fakeBroadcaster) BroadcastQueue(roomID int64, snap domain.QueueSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms = append(b.rooms, roomID)
	b.snaps = append(b.snaps, snap)
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snaps)
}

type fixture struct {
	store     *fakeStore
	rooms     *fakeRooms
	broadcast *fakeBroadcaster
	handler   *Handler
}

func newFixture() *fixture {
	store := newFakeStore()
	rooms := &fakeRooms{rooms: map[int64]*domain.Room{
		1: {RoomID: 1, Name: "R1", Status: domain.RoomStatusOpen},
		2: {RoomID: 2, Name: "R2", Status: domain.RoomStatusOpen},
		3: {RoomID: 3, Name: "closed", Status: domain.RoomStatusClosed},
	}}
	broadcast := &fakeBroadcaster{}

	handler := NewHandler(
		store,
		NewGate(rooms),
		broadcast,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop().Sugar(),
	)

	return &fixture{store: store, rooms: rooms, broadcast: broadcast, handler: handler}
}

func dispatch(t *testing.T, f *fixture, id Identity, cmd Command) error {
	t.Helper()

	var ackErr error
	acked := false
	f.handler.Dispatch(context.Background(), id, cmd, func(err error) {
		ackErr = err
		acked = true
	})

	if !acked {
		t.Fatal("requester was never acknowledged")
	}
	return ackErr
}

func TestAdd_Success(t *testing.T) {
	f := newFixture()
	f.store.songs[42] = true
	f.store.users[10] = "U1"

	err := dispatch(t, f, Identity{UserID: 10, RoomID: 1}, Add{SongID: 42})
	if err != nil {
		t.Fatalf("unexpected ack error: %v", err)
	}

	if got := f.broadcast.count(); got != 1 {
		t.Fatalf("broadcast count = %d, want 1", got)
	}

	snap := f.broadcast.snaps[0]
	if len(snap.Result) != 1 {
		t.Fatalf("snapshot result = %v, want one entry", snap.Result)
	}
	entry := snap.Entities[snap.Result[0]]
	if entry.SongID != 42 || entry.UserID != 10 || entry.UserName != "U1" {
		t.Errorf("broadcast entry = %+v", entry)
	}
}

func TestAdd_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		roomID  int64
		songID  int64
		noRow   bool
		wantErr error
	}{
		{
			name:    "closed room rejected regardless of song validity",
			roomID:  3,
			songID:  42,
			wantErr: ErrRoomNotOpen,
		},
		{
			name:    "unknown room rejected",
			roomID:  99,
			songID:  42,
			wantErr: ErrRoomNotOpen,
		},
		{
			name:    "unknown song rejected",
			roomID:  1,
			songID:  404,
			wantErr: ErrSongNotFound,
		},
		{
			name:    "zero rows affected reported",
			roomID:  1,
			songID:  42,
			noRow:   true,
			wantErr: ErrAddFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.songs[42] = true
			f.store.insertNoRow = tt.noRow

			err := dispatch(t, f, Identity{UserID: 10, RoomID: tt.roomID}, Add{SongID: tt.songID})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ack error = %v, want %v", err, tt.wantErr)
			}

			if got := f.store.entryCount(); got != 0 {
				t.Errorf("entries persisted = %d, want 0", got)
			}
			if got := f.broadcast.count(); got != 0 {
				t.Errorf("broadcast count = %d, want 0", got)
			}
		})
	}
}

func TestRemove_ChecksInFixedOrder(t *testing.T) {
	tests := []struct {
		name    string
		caller  Identity
		queueID int64
		wantErr error
	}{
		{
			name:    "missing entry",
			caller:  Identity{UserID: 10, RoomID: 1},
			queueID: 404,
			wantErr: ErrItemNotFound,
		},
		{
			// The entry belongs to another user AND another room; the
			// room check fires first so ownership is never disclosed.
			name:    "other room wins over ownership",
			caller:  Identity{UserID: 10, RoomID: 1},
			queueID: 2,
			wantErr: ErrItemWrongRoom,
		},
		{
			name:    "someone else's entry in own room",
			caller:  Identity{UserID: 10, RoomID: 1},
			queueID: 3,
			wantErr: ErrItemNotOwned,
		},
		{
			name:    "closed room short-circuits everything",
			caller:  Identity{UserID: 10, RoomID: 3},
			queueID: 1,
			wantErr: ErrRoomNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.songs[42] = true

			// queueId 1: caller's own entry in room 1
			// queueId 2: another user's entry in room 2
			// queueId 3: another user's entry in room 1
			mustAdd(t, f, Identity{UserID: 10, RoomID: 1})
			mustAdd(t, f, Identity{UserID: 20, RoomID: 2})
			mustAdd(t, f, Identity{UserID: 20, RoomID: 1})
			before := f.store.entryCount()
			broadcasts := f.broadcast.count()

			err := dispatch(t, f, tt.caller, Remove{QueueID: tt.queueID})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ack error = %v, want %v", err, tt.wantErr)
			}

			if got := f.store.entryCount(); got != before {
				t.Errorf("store changed: %d entries, want %d", got, before)
			}
			if got := f.broadcast.count(); got != broadcasts {
				t.Errorf("failure broadcast something: %d, want %d", got, broadcasts)
			}
		})
	}
}

func TestRoomLookupFailureAcksUnavailable(t *testing.T) {
	// An infrastructure failure during the room lookup is not a closed
	// room; the requester must see the generic failure string, not
	// "Room is no longer open".
	for _, cmd := range []Command{Add{SongID: 42}, Remove{QueueID: 1}} {
		f := newFixture()
		f.store.songs[42] = true
		f.rooms.lookupErr = errors.New("disk I/O error")

		err := dispatch(t, f, Identity{UserID: 10, RoomID: 1}, cmd)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("%T ack error = %v, want %v", cmd, err, ErrUnavailable)
		}
		if errors.Is(err, ErrRoomNotOpen) {
			t.Errorf("%T lookup failure reported as closed room", cmd)
		}

		if got := f.store.entryCount(); got != 0 {
			t.Errorf("%T persisted %d entries on failure", cmd, got)
		}
		if got := f.broadcast.count(); got != 0 {
			t.Errorf("%T broadcast %d messages on failure", cmd, got)
		}
	}
}

func TestRemove_Success(t *testing.T) {
	f := newFixture()
	f.store.songs[42] = true

	mustAdd(t, f, Identity{UserID: 10, RoomID: 1})
	mustAdd(t, f, Identity{UserID: 10, RoomID: 1})

	err := dispatch(t, f, Identity{UserID: 10, RoomID: 1}, Remove{QueueID: 1})
	if err != nil {
		t.Fatalf("unexpected ack error: %v", err)
	}

	snap := f.broadcast.snaps[f.broadcast.count()-1]
	if len(snap.Result) != 1 || snap.Result[0] != 2 {
		t.Errorf("post-remove snapshot result = %v, want [2]", snap.Result)
	}
}

func TestBroadcastIDsStrictlyIncrease(t *testing.T) {
	f := newFixture()
	f.store.songs[42] = true

	var lastMax int64 = -1
	for i := 0; i < 3; i++ {
		if err := dispatch(t, f, Identity{UserID: 10, RoomID: 1}, Add{SongID: 42}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}

		snap := f.broadcast.snaps[f.broadcast.count()-1]
		newID := snap.Result[len(snap.Result)-1]
		if newID <= lastMax {
			t.Fatalf("broadcast %d: new id %d not greater than previous max %d", i, newID, lastMax)
		}
		lastMax = newID
	}
}

func TestEndToEnd_AddThenForeignRemove(t *testing.T) {
	f := newFixture()
	f.store.songs[42] = true
	f.store.users[10] = "U1"

	// U1 queues a song in R1.
	if err := dispatch(t, f, Identity{UserID: 10, RoomID: 1}, Add{SongID: 42}); err != nil {
		t.Fatalf("add: %v", err)
	}

	snap := f.broadcast.snaps[0]
	if len(snap.Result) != 1 || snap.Result[0] != 1 {
		t.Fatalf("broadcast result = %v, want [1]", snap.Result)
	}
	want := domain.QueueEntry{QueueID: 1, RoomID: 1, SongID: 42, UserID: 10, UserName: "U1"}
	if snap.Entities[1] != want {
		t.Errorf("broadcast entity = %+v, want %+v", snap.Entities[1], want)
	}

	// U2, also in R1, tries to remove U1's entry.
	err := dispatch(t, f, Identity{UserID: 20, RoomID: 1}, Remove{QueueID: 1})
	if !errors.Is(err, ErrItemNotOwned) {
		t.Fatalf("ack error = %v, want %v", err, ErrItemNotOwned)
	}

	if got := f.store.entryCount(); got != 1 {
		t.Errorf("store changed by rejected remove: %d entries, want 1", got)
	}
	if got := f.broadcast.count(); got != 1 {
		t.Errorf("rejected remove broadcast something: %d, want 1", got)
	}
}

func TestDispatch_NilAckIsSafe(t *testing.T) {
	f := newFixture()
	f.store.songs[42] = true

	f.handler.Dispatch(context.Background(), Identity{UserID: 10, RoomID: 1}, Add{SongID: 42}, nil)

	if got := f.store.entryCount(); got != 1 {
		t.Errorf("entries persisted = %d, want 1", got)
	}
}

func mustAdd(t *testing.T, f *fixture, id Identity) {
	t.Helper()
	if err := dispatch(t, f, id, Add{SongID: 42}); err != nil {
		t.Fatalf("seed add for %+v: %v", id, err)
	}
}
