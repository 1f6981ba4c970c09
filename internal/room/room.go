// Package room runs one goroutine per active room. Every mutating operation
// goes through the room's inbox, so at most one command is deciding at a
// time; the decision and its rows are committed to the store before the
// in-memory state advances.
package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/duskfall/mafia-backend/internal/engine"
	"github.com/duskfall/mafia-backend/internal/store"
)

type Msg interface{ isRoomMsg() }

// Do carries one engine command and the channel its result goes back on.
type Do struct {
	Cmd   engine.Command
	Reply chan Result
}

// Join registers a client outbox for snapshot fan-out. ClientID is the
// player id the snapshots are redacted for.
type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

type Leave struct{ ClientID string }

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Do) isRoomMsg()       {}
func (Join) isRoomMsg()     {}
func (Leave) isRoomMsg()    {}
func (GetState) isRoomMsg() {}
func (Shutdown) isRoomMsg() {}

// Result is the synchronous answer to one command.
type Result struct {
	State  engine.State
	Events []engine.Event
	Err    error
}

// Snapshot is what clients receive after each applied command. State is
// already redacted for the receiving client and Events filtered of other
// players' private events.
type Snapshot struct {
	Version int            `json:"version"`
	State   engine.State   `json:"state"`
	Events  []engine.Event `json:"events,omitempty"`
}

// View reflects internal state for tests without data races.
type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Room struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot
	store   store.Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.State, st store.Store, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan Snapshot),
		store:   st,
		log:     log.With(zap.String("room_id", initial.RoomID)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Do sends a command and waits for the outcome. If the inbox is saturated
// the call is rejected immediately with ErrRoomBusy rather than queueing
// unboundedly behind a stuck room.
func (r *Room) Do(ctx context.Context, cmd engine.Command) Result {
	reply := make(chan Result, 1)
	select {
	case r.inbox <- Do{Cmd: cmd, Reply: reply}:
	default:
		return Result{State: engine.State{}, Err: engine.ErrRoomBusy}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-r.ctx.Done():
		return Result{Err: engine.ErrRoomNotFound}
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				if old := r.clients[msg.ClientID]; old != nil {
					close(old)
				}
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- r.snapshotFor(msg.ClientID, nil)

			case Leave:
				if ch := r.clients[msg.ClientID]; ch != nil {
					close(ch)
					delete(r.clients, msg.ClientID)
				}

			case Do:
				msg.Reply <- r.apply(msg.Cmd)

			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// apply runs one command to completion: decide, persist, then adopt. A
// store failure leaves the in-memory state exactly as it was; the caller
// gets the error and no client sees a half-applied resolution.
func (r *Room) apply(cmd engine.Command) Result {
	events, next, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command rejected",
			zap.String("reason", err.Error()),
			zap.String("kind", string(engine.KindOf(err))))
		return Result{State: r.state, Err: err}
	}

	up := buildUpdate(next, cmd, events)
	if err := r.store.Commit(r.ctx, up); err != nil {
		r.log.Error("store commit failed", zap.Error(err))
		return Result{State: r.state, Err: err}
	}

	r.state = next
	r.version++
	if next.Phase != "" {
		r.log.Info("command applied",
			zap.String("phase", string(next.Phase)),
			zap.Int("day", next.DayNumber),
			zap.Int("version", r.version))
	}
	r.broadcast(events)
	return Result{State: r.state, Events: events}
}

func (r *Room) broadcast(events []engine.Event) {
	for id, ch := range r.clients {
		select {
		case ch <- r.snapshotFor(id, events):
			// ok
		default:
			// Slow or wedged client: drop it.
			close(ch)
			delete(r.clients, id)
		}
	}
}

// snapshotFor redacts the state for one viewer and strips private events
// addressed to anyone else.
func (r *Room) snapshotFor(clientID string, events []engine.Event) Snapshot {
	visible := make([]engine.Event, 0, len(events))
	for _, ev := range events {
		// Audit entries stay server-side; they name secret targets.
		if ev.Type == engine.EvtActionRecorded {
			continue
		}
		if ev.Private() && ev.RecipientID != clientID {
			continue
		}
		visible = append(visible, ev)
	}
	return Snapshot{
		Version: r.version,
		State:   r.state.Redacted(clientID),
		Events:  visible,
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}
