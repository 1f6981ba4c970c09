package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duskfall/mafia-backend/internal/config"
	"github.com/duskfall/mafia-backend/internal/engine"
	"github.com/duskfall/mafia-backend/internal/hub"
	"github.com/duskfall/mafia-backend/internal/room"
	"github.com/duskfall/mafia-backend/internal/store"
)

// API wires the hub and store to the JSON surface. Caller identity arrives
// pre-verified (player_id in the body); authentication itself is an external
// collaborator.
type API struct {
	Hub      *hub.Hub
	Store    store.Store
	Defaults config.GameDefaults
	Log      *zap.Logger
}

type createRoomRequest struct {
	HostID  string          `json:"host_id"`
	Players []engine.Player `json:"players"`
	Config  *engine.Config  `json:"config,omitempty"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id,omitempty"`
	Action   string `json:"action,omitempty"`
	Force    bool   `json:"force,omitempty"`
	Winner   string `json:"winner,omitempty"`
}

// CreateRoom registers a room actor for a roster snapshot handed over by
// the lobby layer.
func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", engine.KindValidation)
		return
	}
	if req.HostID == "" || len(req.Players) == 0 {
		writeError(w, http.StatusBadRequest, "missing host or roster", engine.KindValidation)
		return
	}

	cfg := a.defaultConfig(len(req.Players))
	if req.Config != nil {
		cfg = *req.Config
	}
	if cfg.Roles.Mafia < 1 {
		cfg.Roles.Mafia = engine.RecommendedMafiaCount(len(req.Players))
	}

	state := engine.NewState(uuid.NewString(), req.HostID, req.Players, cfg)
	a.Hub.Create(state)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"room_id": state.RoomID})
}

func (a *API) defaultConfig(playerCount int) engine.Config {
	return engine.Config{
		MinPlayers: a.Defaults.MinPlayers,
		MaxPlayers: a.Defaults.MaxPlayers,
		Roles: engine.RoleConfig{
			Mafia:     a.Defaults.MafiaCount,
			Doctor:    a.Defaults.DoctorCount,
			Detective: a.Defaults.DetectiveCount,
		},
		RevealRolesOnDeath: a.Defaults.RevealRolesOnDeath,
		ShowVoteCounts:     a.Defaults.ShowVoteCounts,
	}
}

// GetRoom returns the state redacted for the requesting viewer.
func (a *API) GetRoom(w http.ResponseWriter, r *http.Request) {
	rm := a.roomOr404(w, r)
	if rm == nil {
		return
	}
	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: reply}
	view := <-reply

	writeJSON(w, http.StatusOK, room.Snapshot{
		Version: view.Version,
		State:   view.State.Redacted(r.URL.Query().Get("viewer_id")),
	})
}

func (a *API) StartGame(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, func(req playerRequest) engine.Command {
		return engine.StartGame{CallerID: req.PlayerID}
	})
}

func (a *API) SubmitNightAction(w http.ResponseWriter, r *http.Request) {
	rm := a.roomOr404(w, r)
	if rm == nil {
		return
	}
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", engine.KindValidation)
		return
	}
	action, ok := engine.ParseAction(req.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown action", engine.KindValidation)
		return
	}
	a.reply(w, rm.Do(r.Context(), engine.SubmitNightAction{
		ActorID:  req.PlayerID,
		TargetID: req.TargetID,
		Action:   action,
	}))
}

func (a *API) SubmitVote(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, func(req playerRequest) engine.Command {
		return engine.SubmitVote{VoterID: req.PlayerID, TargetID: req.TargetID}
	})
}

func (a *API) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, func(req playerRequest) engine.Command {
		return engine.AdvancePhase{CallerID: req.PlayerID, Force: req.Force}
	})
}

func (a *API) EndGame(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, func(req playerRequest) engine.Command {
		return engine.EndGame{CallerID: req.PlayerID, Winner: engine.Faction(req.Winner)}
	})
}

func (a *API) RestartGame(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, func(req playerRequest) engine.Command {
		return engine.RestartGame{CallerID: req.PlayerID}
	})
}

func (a *API) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	rm := a.roomOr404(w, r)
	if rm == nil {
		return
	}
	a.reply(w, rm.Do(r.Context(), engine.RemovePlayer{
		PlayerID: chi.URLParam(r, "playerID"),
	}))
}

// Messages serves the room's system chat history from the store.
func (a *API) Messages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	msgs, err := a.Store.RoomMessages(r.Context(), roomID, 100)
	if err != nil {
		a.Log.Error("load messages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// do is the common decode-command-reply path for body-only endpoints.
func (a *API) do(w http.ResponseWriter, r *http.Request, build func(playerRequest) engine.Command) {
	rm := a.roomOr404(w, r)
	if rm == nil {
		return
	}
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", engine.KindValidation)
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "missing player_id", engine.KindValidation)
		return
	}
	a.reply(w, rm.Do(r.Context(), build(req)))
}

func (a *API) roomOr404(w http.ResponseWriter, r *http.Request) *room.Room {
	rm := a.Hub.Room(chi.URLParam(r, "roomID"))
	if rm == nil {
		writeError(w, http.StatusNotFound, "room not found", engine.KindNotFound)
	}
	return rm
}

func (a *API) reply(w http.ResponseWriter, res room.Result) {
	if res.Err != nil {
		writeError(w, statusFor(res.Err), res.Err.Error(), engine.KindOf(res.Err))
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK     bool           `json:"ok"`
		Phase  engine.Phase   `json:"phase"`
		Day    int            `json:"day_number"`
		Winner engine.Faction `json:"winner,omitempty"`
		Events []engine.Event `json:"events,omitempty"`
	}{true, res.State.Phase, res.State.DayNumber, res.State.Winner, publicOnly(res.Events)})
}

// publicOnly strips private events from synchronous HTTP responses; the
// recipient gets theirs over their own websocket.
func publicOnly(events []engine.Event) []engine.Event {
	out := make([]engine.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Private() {
			out = append(out, ev)
		}
	}
	return out
}

func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindPrecondition:
		return http.StatusConflict
	case engine.KindAuthorization:
		return http.StatusForbidden
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindConcurrency:
		return http.StatusTooManyRequests
	default:
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, kind engine.Kind) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": string(kind)})
}
