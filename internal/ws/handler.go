package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/duskfall/mafia-backend/internal/engine"
	"github.com/duskfall/mafia-backend/internal/hub"
	"github.com/duskfall/mafia-backend/internal/room"
	"github.com/duskfall/mafia-backend/internal/types"
)

// Handler upgrades a client connection and bridges it to the room actor:
// snapshots out (already redacted for this player), commands in. The player
// id arrives pre-verified by the authenticating proxy in front of us.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		playerID := r.URL.Query().Get("player")
		if roomID == "" || playerID == "" {
			http.Error(w, "missing room or player", http.StatusBadRequest)
			return
		}

		rm := h.Room(roomID)
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Snapshot, 8)
		rm.Inbox() <- room.Join{ClientID: playerID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: playerID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "snapshot", Snapshot: &snap}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeErr(r.Context(), conn, "bad json", engine.KindValidation)
				continue
			}

			cmd, ok := toCommand(playerID, cm)
			if !ok {
				writeErr(r.Context(), conn, "unknown type", engine.KindValidation)
				continue
			}

			if res := rm.Do(r.Context(), cmd); res.Err != nil {
				log.Debug("ws command rejected",
					zap.String("room_id", roomID),
					zap.String("player_id", playerID),
					zap.Error(res.Err))
				writeErr(r.Context(), conn, res.Err.Error(), engine.KindOf(res.Err))
			}
		}
	}
}

func toCommand(playerID string, m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "submit_action":
		action, ok := engine.ParseAction(m.Action)
		if !ok {
			return nil, false
		}
		return engine.SubmitNightAction{ActorID: playerID, TargetID: m.TargetID, Action: action}, true
	case "submit_vote":
		return engine.SubmitVote{VoterID: playerID, TargetID: m.TargetID}, true
	case "advance_phase":
		return engine.AdvancePhase{CallerID: playerID, Force: m.Force}, true
	default:
		return nil, false
	}
}

func writeErr(ctx context.Context, conn *websocket.Conn, msg string, kind engine.Kind) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "error", Error: msg, Kind: string(kind)})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
