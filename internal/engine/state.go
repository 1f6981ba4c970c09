package engine

type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseNight     Phase = "night"
	PhaseDayVoting Phase = "day_voting"
	PhaseGameOver  Phase = "game_over"
)

// InvestigationResult is the detective's private answer for the night.
type InvestigationResult string

const (
	ResultMafia    InvestigationResult = "mafia"
	ResultNotMafia InvestigationResult = "not_mafia"
)

// Player is one roster entry. Membership is owned by the lobby layer; the
// engine only consumes the snapshot and flips Alive/Role.
type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Role     Role   `json:"role,omitempty"`
	Alive    bool   `json:"alive"`
	Ready    bool   `json:"ready"`
}

// Config is the room configuration, read-only to the engine.
type Config struct {
	MinPlayers         int        `json:"min_players"`
	MaxPlayers         int        `json:"max_players"`
	Roles              RoleConfig `json:"roles"`
	RevealRolesOnDeath bool       `json:"reveal_roles_on_death"`
	ShowVoteCounts     bool       `json:"show_vote_counts"`
}

// Ballot is one row of the day's vote. TargetID == "" is an abstention; it
// still counts toward "everyone has voted" but toward no candidate.
type Ballot struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id,omitempty"`
}

// State is the authoritative game state for one room. Values are copied on
// Apply; the maps and slice are cloned before mutation so callers can hold a
// snapshot without racing the next command.
type State struct {
	RoomID    string   `json:"room_id"`
	HostID    string   `json:"host_id"`
	Phase     Phase    `json:"phase"`
	DayNumber int      `json:"day_number"`
	Players   []Player `json:"players"`
	Config    Config   `json:"config"`

	MafiaTargetID     string              `json:"mafia_target_id,omitempty"`
	DoctorTargetID    string              `json:"doctor_target_id,omitempty"`
	DetectiveTargetID string              `json:"detective_target_id,omitempty"`
	DetectiveResult   InvestigationResult `json:"detective_result,omitempty"`

	Winner Faction `json:"winner,omitempty"`

	// Spectator recap for eliminated players; captured at submit time and
	// cleared at the day_voting -> night transition.
	LastMafiaTargetName     string `json:"last_mafia_target_name,omitempty"`
	LastDoctorTargetName    string `json:"last_doctor_target_name,omitempty"`
	LastDetectiveTargetName string `json:"last_detective_target_name,omitempty"`

	// Votes by day, then voter. Only the current day is ever tallied; prior
	// days are kept as history.
	Votes map[int]map[string]Ballot `json:"votes,omitempty"`
}

// NewState is the lobby-phase state for a fresh roster snapshot.
func NewState(roomID, hostID string, players []Player, cfg Config) State {
	roster := make([]Player, len(players))
	copy(roster, players)
	for i := range roster {
		roster[i].Alive = true
		roster[i].Role = ""
	}
	return State{
		RoomID:  roomID,
		HostID:  hostID,
		Phase:   PhaseLobby,
		Players: roster,
		Config:  cfg,
		Votes:   map[int]map[string]Ballot{},
	}
}

func (s *State) player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) alive() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for i := range s.Players {
		if s.Players[i].Alive {
			out = append(out, &s.Players[i])
		}
	}
	return out
}

func (s *State) aliveWithRole(role Role) bool {
	for i := range s.Players {
		if s.Players[i].Alive && s.Players[i].Role == role {
			return true
		}
	}
	return false
}

func (s *State) dayBallots() map[string]Ballot {
	return s.Votes[s.DayNumber]
}

// clone deep-copies the parts Apply mutates.
func (s State) clone() State {
	next := s
	next.Players = make([]Player, len(s.Players))
	copy(next.Players, s.Players)
	next.Votes = make(map[int]map[string]Ballot, len(s.Votes))
	for day, ballots := range s.Votes {
		m := make(map[string]Ballot, len(ballots))
		for voter, b := range ballots {
			m[voter] = b
		}
		next.Votes[day] = m
	}
	return next
}

// clearNightTargets runs exactly once, at the night -> day_voting boundary.
func (s *State) clearNightTargets() {
	s.MafiaTargetID = ""
	s.DoctorTargetID = ""
	s.DetectiveTargetID = ""
	s.DetectiveResult = ""
}

// Redacted returns the state as the given viewer may see it: other players'
// roles are hidden unless the viewer is dead-and-revealed by config, the
// subject is dead with reveal enabled, or the game is over. The detective's
// private result is visible only to the detective.
func (s State) Redacted(viewerID string) State {
	view := s.clone()
	viewer := view.player(viewerID)
	over := view.Phase == PhaseGameOver
	for i := range view.Players {
		p := &view.Players[i]
		if p.ID == viewerID || over {
			continue
		}
		if !p.Alive && view.Config.RevealRolesOnDeath {
			continue
		}
		// Mafia see each other.
		if viewer != nil && viewer.Role == RoleMafia && p.Role == RoleMafia {
			continue
		}
		p.Role = ""
	}
	if viewer == nil || viewer.Role != RoleDetective {
		view.DetectiveResult = ""
		view.DetectiveTargetID = ""
	}
	if viewer == nil || viewer.Role != RoleMafia {
		view.MafiaTargetID = ""
	}
	if viewer == nil || viewer.Role != RoleDoctor {
		view.DoctorTargetID = ""
	}
	// Per-ballot detail stays server-side unless the room shows counts.
	if !view.Config.ShowVoteCounts && !over {
		view.Votes = map[int]map[string]Ballot{}
	}
	// Spectator recap is for the dead and for finished games.
	if viewer != nil && viewer.Alive && !over {
		view.LastMafiaTargetName = ""
		view.LastDoctorTargetName = ""
		view.LastDetectiveTargetName = ""
	}
	return view
}
