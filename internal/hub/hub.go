// Package hub owns the room map. Rooms never share state; the hub only
// routes by room id and creates or tears down room actors.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/duskfall/mafia-backend/internal/engine"
	"github.com/duskfall/mafia-backend/internal/room"
	"github.com/duskfall/mafia-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	State engine.State
	Reply chan *room.Room
}

type GetRoom struct {
	RoomID string
	Reply  chan *room.Room
}

type RemoveRoom struct {
	RoomID string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	store  store.Store
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		store:  st,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Room is the synchronous lookup helper the HTTP layer uses. Nil means the
// room does not exist.
func (h *Hub) Room(roomID string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.inbox <- GetRoom{RoomID: roomID, Reply: reply}
	return <-reply
}

// Create registers a new room actor for the given initial state. If the id
// is already taken, the existing room is returned.
func (h *Hub) Create(state engine.State) *room.Room {
	reply := make(chan *room.Room, 1)
	h.inbox <- CreateRoom{State: state, Reply: reply}
	return <-reply
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if r := h.rooms[msg.State.RoomID]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.New(h.ctx, msg.State, h.store, h.log)
				h.rooms[msg.State.RoomID] = r
				h.log.Info("room created", zap.String("room_id", msg.State.RoomID))
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.RoomID] // may be nil

			case RemoveRoom:
				if r := h.rooms[msg.RoomID]; r != nil {
					r.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.RoomID)
				}

			case ShutdownHub:
				for _, r := range h.rooms {
					r.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}
