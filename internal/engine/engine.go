package engine

// Command is the union of mutating operations a room accepts. Apply is pure:
// it never touches the input state and returns either the successor state
// with its events, or the original state with a typed rejection.
type Command interface{ isCommand() }

// StartGame transitions lobby -> night, assigning secret roles.
type StartGame struct {
	CallerID string
	Shuffle  Shuffler // nil means crypto-strong shuffle
}

// SubmitNightAction records one role's night action. TargetID must be an
// alive room member; the action variant implies the required actor role.
type SubmitNightAction struct {
	ActorID  string
	TargetID string
	Action   Action
}

// SubmitVote upserts the voter's ballot for the current day. An empty
// TargetID is an abstention.
type SubmitVote struct {
	VoterID  string
	TargetID string
}

// AdvancePhase resolves the current phase if its preconditions hold, or
// unconditionally when the host forces it.
type AdvancePhase struct {
	CallerID string
	Force    bool
}

// EndGame is the host's escape hatch: straight to game_over, optionally
// declaring a winner.
type EndGame struct {
	CallerID string
	Winner   Faction
}

// RestartGame resets the room back to the lobby.
type RestartGame struct {
	CallerID string
}

// RemovePlayer applies an externally-decided roster removal (kick, abandon).
// During play the player is marked dead and the win condition re-checked.
type RemovePlayer struct {
	PlayerID string
}

func (StartGame) isCommand()         {}
func (SubmitNightAction) isCommand() {}
func (SubmitVote) isCommand()        {}
func (AdvancePhase) isCommand()      {}
func (EndGame) isCommand()           {}
func (RestartGame) isCommand()       {}
func (RemovePlayer) isCommand()      {}

func Apply(s State, cmd Command) ([]Event, State, error) {
	next := s.clone()

	var events []Event
	var err error

	switch c := cmd.(type) {
	case StartGame:
		events, err = start(&next, c)
	case SubmitNightAction:
		events, err = submitNightAction(&next, c.ActorID, c.TargetID, c.Action)
	case SubmitVote:
		err = castVote(&next, c.VoterID, c.TargetID)
	case AdvancePhase:
		events, err = advance(&next, c)
	case EndGame:
		events, err = endGame(&next, c)
	case RestartGame:
		events, err = restart(&next, c)
	case RemovePlayer:
		events, err = removePlayer(&next, c)
	default:
		err = ErrUnsupportedAction
	}

	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

func start(s *State, c StartGame) ([]Event, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrGameInProgress
	}
	if c.CallerID != s.HostID {
		return nil, ErrNotHost
	}
	if len(s.Players) < s.Config.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	for _, p := range s.Players {
		if p.ID != s.HostID && !p.Ready {
			return nil, ErrNotAllReady
		}
	}

	roles := AssignRoles(len(s.Players), s.Config.Roles, c.Shuffle)
	for i := range s.Players {
		s.Players[i].Role = roles[i]
		s.Players[i].Alive = true
	}

	s.Phase = PhaseNight
	s.DayNumber = 1

	return []Event{
		{Type: EvtRolesAssigned, Day: 1},
		phaseChanged(PhaseNight, 1),
	}, nil
}

func advance(s *State, c AdvancePhase) ([]Event, error) {
	if s.player(c.CallerID) == nil {
		return nil, ErrPlayerNotFound
	}
	if c.Force && c.CallerID != s.HostID {
		return nil, ErrNotHost
	}

	switch s.Phase {
	case PhaseNight:
		if !c.Force && !s.nightComplete() {
			return nil, ErrNightNotComplete
		}
		return resolveNight(s), nil
	case PhaseDayVoting:
		if !c.Force && !s.allVoted() {
			return nil, ErrVotesNotComplete
		}
		return resolveVoting(s), nil
	default:
		return nil, ErrWrongPhase
	}
}

// nightComplete holds when every power role that still has a living holder
// has acted. A role with no living holder has vacuously acted.
func (s *State) nightComplete() bool {
	mafiaActed := !s.aliveWithRole(RoleMafia) || s.MafiaTargetID != ""
	doctorActed := !s.aliveWithRole(RoleDoctor) || s.DoctorTargetID != ""
	detectiveActed := !s.aliveWithRole(RoleDetective) || s.DetectiveTargetID != ""
	return mafiaActed && doctorActed && detectiveActed
}

func (s *State) allVoted() bool {
	ballots := s.dayBallots()
	for _, p := range s.alive() {
		if _, ok := ballots[p.ID]; !ok {
			return false
		}
	}
	return true
}

// resolveNight applies the accumulated night actions, clears the target
// slots, and either ends the game or opens day voting on the same day.
func resolveNight(s *State) []Event {
	var events []Event

	switch {
	case s.MafiaTargetID != "" && s.MafiaTargetID != s.DoctorTargetID:
		victim := s.player(s.MafiaTargetID)
		victim.Alive = false
		ev := Event{
			Type:     EvtNightResolved,
			VictimID: victim.ID, VictimName: victim.Nickname,
			Day: s.DayNumber,
		}
		if s.Config.RevealRolesOnDeath {
			ev.RevealedFaction = victim.Role.Faction()
		}
		events = append(events, ev)
	case s.MafiaTargetID != "":
		// Doctor picked the same target: attack happened, nobody died.
		events = append(events, Event{Type: EvtNightResolved, Saved: true, Day: s.DayNumber})
	default:
		events = append(events, Event{Type: EvtNightResolved, Peaceful: true, Day: s.DayNumber})
	}

	s.clearNightTargets()

	if won := s.finishIfDecided(); won != nil {
		return append(events, won...)
	}

	s.Phase = PhaseDayVoting
	return append(events, phaseChanged(PhaseDayVoting, s.DayNumber))
}

// resolveVoting tallies the day's ballots, applies the elimination if any,
// and either ends the game or falls to the next night.
func resolveVoting(s *State) []Event {
	res := Tally(s.dayBallots())

	ev := Event{Type: EvtVoteResolved, Day: s.DayNumber, Tie: res.Tie, Inconclusive: res.Inconclusive}
	if res.EliminatedID != "" {
		victim := s.player(res.EliminatedID)
		victim.Alive = false
		ev.VictimID = victim.ID
		ev.VictimName = victim.Nickname
		if s.Config.RevealRolesOnDeath {
			ev.RevealedFaction = victim.Role.Faction()
		}
	}
	events := []Event{ev}

	if won := s.finishIfDecided(); won != nil {
		return append(events, won...)
	}

	s.Phase = PhaseNight
	s.DayNumber++
	s.LastMafiaTargetName = ""
	s.LastDoctorTargetName = ""
	s.LastDetectiveTargetName = ""
	return append(events, phaseChanged(PhaseNight, s.DayNumber))
}

// finishIfDecided re-reads the post-resolution roster and, if a faction has
// won, moves to game_over. Returns nil while the game is ongoing.
func (s *State) finishIfDecided() []Event {
	winner, decided := EvaluateWin(s.Players)
	if !decided {
		return nil
	}
	s.Phase = PhaseGameOver
	s.Winner = winner
	return []Event{
		{Type: EvtGameEnded, Winner: winner, Day: s.DayNumber},
		phaseChanged(PhaseGameOver, s.DayNumber),
	}
}

func endGame(s *State, c EndGame) ([]Event, error) {
	if c.CallerID != s.HostID {
		return nil, ErrNotHost
	}
	if s.Phase == PhaseLobby || s.Phase == PhaseGameOver {
		return nil, ErrWrongPhase
	}
	s.Phase = PhaseGameOver
	s.Winner = c.Winner
	return []Event{
		{Type: EvtGameEnded, Winner: c.Winner, Day: s.DayNumber},
		phaseChanged(PhaseGameOver, s.DayNumber),
	}, nil
}

func restart(s *State, c RestartGame) ([]Event, error) {
	if c.CallerID != s.HostID {
		return nil, ErrNotHost
	}
	s.Phase = PhaseLobby
	s.DayNumber = 0
	s.Winner = ""
	s.clearNightTargets()
	s.LastMafiaTargetName = ""
	s.LastDoctorTargetName = ""
	s.LastDetectiveTargetName = ""
	s.Votes = map[int]map[string]Ballot{}
	for i := range s.Players {
		s.Players[i].Alive = true
		s.Players[i].Role = ""
		s.Players[i].Ready = false
	}
	return []Event{phaseChanged(PhaseLobby, 0)}, nil
}

func removePlayer(s *State, c RemovePlayer) ([]Event, error) {
	p := s.player(c.PlayerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}

	if s.Phase == PhaseLobby {
		for i := range s.Players {
			if s.Players[i].ID == c.PlayerID {
				s.Players = append(s.Players[:i], s.Players[i+1:]...)
				break
			}
		}
		return nil, nil
	}

	p.Alive = false
	if s.Phase == PhaseNight || s.Phase == PhaseDayVoting {
		if won := s.finishIfDecided(); won != nil {
			return won, nil
		}
	}
	return nil, nil
}
