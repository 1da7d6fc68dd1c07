// Package optimistic maintains a client's local view of a room's song queue:
// a confirmed snapshot (the last canonical queue received from the server)
// plus an ordered list of pending speculative deltas applied ahead of server
// confirmation. State transitions are pure; callers keep the returned State.
package optimistic

import (
	"github.com/crooner-app/crooner/internal/domain"
)

// Action is the closed set of reducer inputs.
type Action interface {
	isAction()
}

// AddIntent speculatively appends a song before the server confirms it.
// OpID correlates the intent with a later RequestFailed rollback; use the
// same ID as the wire request.
type AddIntent struct {
	OpID     string
	SongID   int64
	UserID   int64
	UserName string
}

// RemoveIntent speculatively retracts an entry from the visible order. The
// entry data itself is kept; only its position disappears.
type RemoveIntent struct {
	OpID    string
	QueueID int64
}

// QueueChanged carries the canonical snapshot broadcast by the server. This
// is the only action that resolves speculation.
type QueueChanged struct {
	Snapshot domain.QueueSnapshot
}

// RequestFailed rolls back the speculative delta whose request the server
// rejected.
type RequestFailed struct {
	OpID string
}

// LoggedIn signals a (re-)authentication. A session without a room has no
// queue, so the state resets to empty.
type LoggedIn struct {
	RoomID *int64
}

func (AddIntent) isAction()     {}
func (RemoveIntent) isAction()  {}
func (QueueChanged) isAction()  {}
func (RequestFailed) isAction() {}
func (LoggedIn) isAction()      {}

type deltaKind int

const (
	deltaAdd deltaKind = iota
	deltaRemove
)

type delta struct {
	kind        deltaKind
	opID        string
	placeholder int64             // deltaAdd: locally synthesized queue ID
	entry       domain.QueueEntry // deltaAdd
	target      int64             // deltaRemove
}

// State is the two-layer queue projection: last reconciled snapshot plus
// pending speculative deltas in application order.
type State struct {
	confirmed domain.QueueSnapshot
	pending   []delta
}

func NewState() State {
	return State{confirmed: domain.EmptySnapshot()}
}

// HasPending reports whether any speculative mutation is still unresolved.
func (s State) HasPending() bool {
	return len(s.pending) > 0
}

// View materializes the queue the UI should render: the confirmed snapshot
// with every pending delta applied on top.
func (s State) View() domain.QueueSnapshot {
	snap := domain.QueueSnapshot{
		Result:   make([]int64, len(s.confirmed.Result)),
		Entities: make(map[int64]domain.QueueEntry, len(s.confirmed.Entities)+len(s.pending)),
	}
	copy(snap.Result, s.confirmed.Result)
	for id, entry := range s.confirmed.Entities {
		snap.Entities[id] = entry
	}

	for _, d := range s.pending {
		switch d.kind {
		case deltaAdd:
			snap.Result = append(snap.Result, d.placeholder)
			snap.Entities[d.placeholder] = d.entry
		case deltaRemove:
			for i, id := range snap.Result {
				if id == d.target {
					snap.Result = append(snap.Result[:i], snap.Result[i+1:]...)
					break
				}
			}
		}
	}

	return snap
}

// Apply runs one state transition and returns the resulting state. The input
// state is never mutated.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case AddIntent:
		return s.addIntent(a)
	case RemoveIntent:
		return s.removeIntent(a)
	case QueueChanged:
		return s.reconcile(a.Snapshot)
	case RequestFailed:
		return s.rollback(a.OpID)
	case LoggedIn:
		if a.RoomID == nil {
			return NewState()
		}
		return s
	default:
		return s
	}
}

func (s State) addIntent(a AddIntent) State {
	// The placeholder must be distinct from every identifier already known
	// locally, including earlier placeholders and entries hidden by a
	// pending remove: max known + 1, or 0 when nothing is known.
	view := s.View()
	placeholder := int64(0)
	for id := range view.Entities {
		if id >= placeholder {
			placeholder = id + 1
		}
	}

	next := s.clonePending()
	next.pending = append(next.pending, delta{
		kind:        deltaAdd,
		opID:        a.OpID,
		placeholder: placeholder,
		entry: domain.QueueEntry{
			QueueID:      placeholder,
			SongID:       a.SongID,
			UserID:       a.UserID,
			UserName:     a.UserName,
			IsOptimistic: true,
		},
	})
	return next
}

func (s State) removeIntent(a RemoveIntent) State {
	next := s.clonePending()
	next.pending = append(next.pending, delta{
		kind:   deltaRemove,
		opID:   a.OpID,
		target: a.QueueID,
	})
	return next
}

// reconcile replaces the confirmed layer wholesale with the server snapshot
// and drops every pending delta whose identifier is absent from it: all add
// placeholders (the server snapshot carries the real entry under its
// assigned ID) and any remove whose target the server already deleted.
// Applying the same snapshot twice is a no-op the second time.
func (s State) reconcile(snap domain.QueueSnapshot) State {
	confirmed := domain.QueueSnapshot{
		Result:   make([]int64, len(snap.Result)),
		Entities: make(map[int64]domain.QueueEntry, len(snap.Entities)),
	}
	copy(confirmed.Result, snap.Result)
	for id, entry := range snap.Entities {
		confirmed.Entities[id] = entry
	}

	var pending []delta
	for _, d := range s.pending {
		if d.kind == deltaRemove {
			if _, present := confirmed.Entities[d.target]; present {
				// Still in flight: the server has not processed this
				// removal yet, keep hiding the entry.
				pending = append(pending, d)
			}
		}
	}

	return State{confirmed: confirmed, pending: pending}
}

func (s State) rollback(opID string) State {
	next := State{confirmed: s.confirmed}
	for _, d := range s.pending {
		if d.opID != opID {
			next.pending = append(next.pending, d)
		}
	}
	return next
}

func (s State) clonePending() State {
	next := State{confirmed: s.confirmed}
	next.pending = make([]delta, len(s.pending), len(s.pending)+1)
	copy(next.pending, s.pending)
	return next
}
