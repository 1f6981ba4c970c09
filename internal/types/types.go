// Package types holds the wire DTOs shared by the HTTP and websocket
// layers. The engine's own types never cross the network unredacted; see
// room.Snapshot for what clients actually receive.
package types

import "github.com/duskfall/mafia-backend/internal/room"

// ClientMessage is what a connected client may send over the websocket.
//
//	submit_action: actor's night action; action is kill|protect|investigate
//	submit_vote:   day ballot; empty target_id abstains
//	advance_phase: resolve the current phase (force is host-only)
type ClientMessage struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id,omitempty"`
	Action   string `json:"action,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

// ServerMessage is the envelope pushed to websocket clients: either a state
// snapshot (with the events that produced it) or an error for the sender.
type ServerMessage struct {
	Type     string         `json:"type"` // "snapshot" | "error"
	Snapshot *room.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     string         `json:"kind,omitempty"`
}
