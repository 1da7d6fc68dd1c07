package ws

import (
	"context"
	"testing"
	"time"

	"github.com/crooner-app/crooner/internal/domain"
	"github.com/crooner-app/crooner/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// slowReader serves the canonical snapshot only once released, modeling a
// store read that is still in flight while mutations land.
type slowReader struct {
	release chan struct{}
	snap    domain.QueueSnapshot
}

func (r *slowReader) Snapshot(_ context.Context, _ int64) (domain.QueueSnapshot, error) {
	<-r.release
	return r.snap, nil
}

func snapshotWith(ids ...int64) domain.QueueSnapshot {
	snap := domain.EmptySnapshot()
	for _, id := range ids {
		snap.Result = append(snap.Result, id)
		snap.Entities[id] = domain.QueueEntry{QueueID: id, RoomID: 1, SongID: 42, UserID: 10}
	}
	return snap
}

func receiveMessage(t *testing.T, cl *Client) *WSMessage {
	t.Helper()
	select {
	case msg := <-cl.Message:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

// A client joining while a mutation commits must still observe snapshots
// oldest-first: the join-time snapshot is pushed before any queued broadcast
// is fanned out, never after.
func TestRun_JoinSnapshotPrecedesQueuedBroadcasts(t *testing.T) {
	reader := &slowReader{release: make(chan struct{}), snap: snapshotWith()}
	core := NewCore(
		NewRoomManager(zap.NewNop().Sugar()),
		reader,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop().Sugar(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	cl := NewClient(nil, "c1", 1, 10, "alice")
	core.Register() <- cl

	// The join-time read is still blocked; a mutation's broadcast lands now.
	core.BroadcastQueue(1, snapshotWith(1))
	close(reader.release)

	first := receiveMessage(t, cl)
	second := receiveMessage(t, cl)

	if len(first.Data.(domain.QueueSnapshot).Result) != 0 {
		t.Fatalf("first message result = %v, want the empty join-time snapshot",
			first.Data.(domain.QueueSnapshot).Result)
	}
	got := second.Data.(domain.QueueSnapshot).Result
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("second message result = %v, want [1]", got)
	}
}

func TestRun_RegisterPushesCurrentQueue(t *testing.T) {
	reader := &slowReader{release: make(chan struct{}), snap: snapshotWith(3, 5)}
	close(reader.release)

	core := NewCore(
		NewRoomManager(zap.NewNop().Sugar()),
		reader,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop().Sugar(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	cl := NewClient(nil, "c1", 1, 10, "alice")
	core.Register() <- cl

	msg := receiveMessage(t, cl)
	if msg.Type != QueueChanged {
		t.Fatalf("message type = %q, want %q", msg.Type, QueueChanged)
	}
	if got := msg.Data.(domain.QueueSnapshot).Result; len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Errorf("snapshot result = %v, want [3 5]", got)
	}
}
