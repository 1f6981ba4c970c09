package engine

// EventType names the narrative facts the engine emits. Events carry data
// only; turning them into chat lines or UI is the transport layer's job.
type EventType string

const (
	EvtRolesAssigned       EventType = "RolesAssigned"
	EvtPhaseChanged        EventType = "PhaseChanged"
	EvtNightResolved       EventType = "NightResolved"
	EvtVoteResolved        EventType = "VoteResolved"
	EvtInvestigationResult EventType = "InvestigationResult"
	EvtGameEnded           EventType = "GameEnded"
	EvtActionRecorded      EventType = "ActionRecorded"
)

// Event is a flat record; which fields are meaningful depends on Type.
// RecipientID != "" marks a private event addressed to a single player.
type Event struct {
	Type  EventType `json:"type"`
	Phase Phase     `json:"phase,omitempty"`
	Day   int       `json:"day,omitempty"`

	// NightResolved / VoteResolved
	VictimID        string  `json:"victim_id,omitempty"`
	VictimName      string  `json:"victim_name,omitempty"`
	RevealedFaction Faction `json:"revealed_faction,omitempty"`
	Saved           bool    `json:"saved,omitempty"`
	Peaceful        bool    `json:"peaceful,omitempty"`
	Tie             bool    `json:"tie,omitempty"`
	Inconclusive    bool    `json:"inconclusive,omitempty"`

	// GameEnded
	Winner Faction `json:"winner,omitempty"`

	// InvestigationResult (private)
	RecipientID string              `json:"recipient_id,omitempty"`
	Result      InvestigationResult `json:"result,omitempty"`

	// ActionRecorded (audit)
	ActorID  string `json:"actor_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Private reports whether the event is addressed to one player only.
func (e Event) Private() bool { return e.RecipientID != "" }

func phaseChanged(phase Phase, day int) Event {
	return Event{Type: EvtPhaseChanged, Phase: phase, Day: day}
}
