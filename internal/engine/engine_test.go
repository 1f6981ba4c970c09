package engine

import (
	"errors"
	"testing"
)

// identityShuffle keeps roster order so tests know who got which role.
func identityShuffle(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// nightState builds a 6-player mid-game state: p1 mafia, p2 doctor,
// p3 detective, p4-p6 civilians, host p1, night 1.
func nightState() State {
	s := State{
		RoomID:    "room1",
		HostID:    "p1",
		Phase:     PhaseNight,
		DayNumber: 1,
		Config: Config{
			MinPlayers:         4,
			MaxPlayers:         10,
			Roles:              RoleConfig{Mafia: 1, Doctor: 1, Detective: 1},
			RevealRolesOnDeath: true,
		},
		Votes: map[int]map[string]Ballot{},
	}
	roles := []Role{RoleMafia, RoleDoctor, RoleDetective, RoleCivilian, RoleCivilian, RoleCivilian}
	for i, role := range roles {
		s.Players = append(s.Players, Player{
			ID:       "p" + string(rune('1'+i)),
			Nickname: "Player" + string(rune('1'+i)),
			Role:     role,
			Alive:    true,
		})
	}
	return s
}

func containsEvent(events []Event, eventType EventType) bool {
	for _, ev := range events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

func findEvent(t *testing.T, events []Event, eventType EventType) Event {
	t.Helper()
	for _, ev := range events {
		if ev.Type == eventType {
			return ev
		}
	}
	t.Fatalf("expected %s event, got %+v", eventType, events)
	return Event{}
}

func TestNightActionValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*State)
		cmd     SubmitNightAction
		wantErr error
	}{
		{
			name:    "kill by the mafia is accepted",
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: nil,
		},
		{
			name:    "kill by a civilian is rejected",
			cmd:     SubmitNightAction{ActorID: "p4", TargetID: "p5", Action: Kill{}},
			wantErr: ErrWrongRole,
		},
		{
			name:    "protect by the mafia is rejected",
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Protect{}},
			wantErr: ErrWrongRole,
		},
		{
			name:    "dead actor cannot act",
			mutate:  func(s *State) { s.player("p1").Alive = false },
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: ErrActorDead,
		},
		{
			name:    "second act for a filled slot is rejected",
			mutate:  func(s *State) { s.MafiaTargetID = "p5" },
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: ErrAlreadyActed,
		},
		{
			name:    "dead target is rejected",
			mutate:  func(s *State) { s.player("p4").Alive = false },
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: ErrTargetDead,
		},
		{
			name:    "unknown target is rejected",
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p9", Action: Kill{}},
			wantErr: ErrTargetNotFound,
		},
		{
			name:    "mafia cannot kill mafia",
			mutate:  func(s *State) { s.player("p4").Role = RoleMafia },
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: ErrFriendlyFire,
		},
		{
			name:    "doctor may protect themselves",
			cmd:     SubmitNightAction{ActorID: "p2", TargetID: "p2", Action: Protect{}},
			wantErr: nil,
		},
		{
			name:    "detective may not investigate themselves",
			cmd:     SubmitNightAction{ActorID: "p3", TargetID: "p3", Action: Investigate{}},
			wantErr: ErrSelfInvestigate,
		},
		{
			name:    "wrong phase is rejected",
			mutate:  func(s *State) { s.Phase = PhaseDayVoting },
			cmd:     SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			wantErr: ErrWrongPhase,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := nightState()
			if tc.mutate != nil {
				tc.mutate(&s)
			}
			_, _, err := Apply(s, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got err %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestFirstTargetNeverOverwritten(t *testing.T) {
	s := nightState()
	_, s2, err := Apply(s, SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}})
	if err != nil {
		t.Fatalf("first kill: %v", err)
	}
	_, s3, err := Apply(s2, SubmitNightAction{ActorID: "p1", TargetID: "p5", Action: Kill{}})
	if !errors.Is(err, ErrAlreadyActed) {
		t.Fatalf("expected ErrAlreadyActed, got %v", err)
	}
	if s3.MafiaTargetID != "p4" {
		t.Fatalf("target overwritten: %q", s3.MafiaTargetID)
	}
}

func TestDetectiveGetsInstantPrivateResult(t *testing.T) {
	s := nightState()
	events, s2, err := Apply(s, SubmitNightAction{ActorID: "p3", TargetID: "p1", Action: Investigate{}})
	if err != nil {
		t.Fatalf("investigate: %v", err)
	}
	if s2.DetectiveResult != ResultMafia {
		t.Fatalf("result stored at submit time, got %q", s2.DetectiveResult)
	}
	ev := findEvent(t, events, EvtInvestigationResult)
	if ev.RecipientID != "p3" || !ev.Private() {
		t.Fatalf("investigation result must be private to the detective: %+v", ev)
	}

	// Not-mafia direction.
	events, s2, err = Apply(s, SubmitNightAction{ActorID: "p3", TargetID: "p4", Action: Investigate{}})
	if err != nil {
		t.Fatalf("investigate: %v", err)
	}
	if s2.DetectiveResult != ResultNotMafia {
		t.Fatalf("got %q, want not_mafia", s2.DetectiveResult)
	}
	if findEvent(t, events, EvtInvestigationResult).Result != ResultNotMafia {
		t.Fatal("event carries wrong result")
	}
}

func applyAll(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, cmd := range cmds {
		var err error
		_, s, err = Apply(s, cmd)
		if err != nil {
			t.Fatalf("apply %T: %v", cmd, err)
		}
	}
	return s
}

func TestNightResolutionKillAndSave(t *testing.T) {
	t.Run("doctor saves the mafia target", func(t *testing.T) {
		s := applyAll(t, nightState(),
			SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			SubmitNightAction{ActorID: "p2", TargetID: "p4", Action: Protect{}},
			SubmitNightAction{ActorID: "p3", TargetID: "p1", Action: Investigate{}},
		)
		events, next, err := Apply(s, AdvancePhase{CallerID: "p5"})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !findEvent(t, events, EvtNightResolved).Saved {
			t.Fatal("expected a save")
		}
		if !next.player("p4").Alive {
			t.Fatal("saved target must stay alive")
		}
		if next.Phase != PhaseDayVoting || next.DayNumber != 1 {
			t.Fatalf("want day_voting day 1, got %s day %d", next.Phase, next.DayNumber)
		}
		if next.MafiaTargetID != "" || next.DoctorTargetID != "" || next.DetectiveTargetID != "" || next.DetectiveResult != "" {
			t.Fatal("targets must be cleared at the night boundary")
		}
	})

	t.Run("doctor elsewhere, target dies", func(t *testing.T) {
		s := applyAll(t, nightState(),
			SubmitNightAction{ActorID: "p1", TargetID: "p4", Action: Kill{}},
			SubmitNightAction{ActorID: "p2", TargetID: "p5", Action: Protect{}},
			SubmitNightAction{ActorID: "p3", TargetID: "p5", Action: Investigate{}},
		)
		events, next, err := Apply(s, AdvancePhase{CallerID: "p5"})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		ev := findEvent(t, events, EvtNightResolved)
		if ev.VictimID != "p4" || ev.RevealedFaction != FactionCivilians {
			t.Fatalf("wrong death event: %+v", ev)
		}
		if next.player("p4").Alive {
			t.Fatal("victim must be dead")
		}
	})

	t.Run("no mafia target means a peaceful night", func(t *testing.T) {
		s := nightState()
		events, next, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !findEvent(t, events, EvtNightResolved).Peaceful {
			t.Fatal("expected peaceful night")
		}
		for _, p := range next.Players {
			if !p.Alive {
				t.Fatal("nobody should die")
			}
		}
	})
}

func TestAdvancePreconditions(t *testing.T) {
	s := nightState()

	if _, _, err := Apply(s, AdvancePhase{CallerID: "p4"}); !errors.Is(err, ErrNightNotComplete) {
		t.Fatalf("incomplete night must reject, got %v", err)
	}
	if _, _, err := Apply(s, AdvancePhase{CallerID: "p4", Force: true}); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host force must reject, got %v", err)
	}
	if _, _, err := Apply(s, AdvancePhase{CallerID: "ghost"}); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("unknown caller must reject, got %v", err)
	}

	// A power role with no living holder has vacuously acted.
	s2 := nightState()
	s2.player("p2").Alive = false // doctor dead
	s2.player("p3").Alive = false // detective dead
	s2.MafiaTargetID = "p4"
	if _, _, err := Apply(s2, AdvancePhase{CallerID: "p4"}); err != nil {
		t.Fatalf("dead power roles should not block the night: %v", err)
	}
}

// dayState advances a fresh night peacefully so voting can start.
func dayState(t *testing.T) State {
	t.Helper()
	_, s, err := Apply(nightState(), AdvancePhase{CallerID: "p1", Force: true})
	if err != nil {
		t.Fatalf("open voting: %v", err)
	}
	return s
}

func TestVoteUpsertIsIdempotent(t *testing.T) {
	s := applyAll(t, dayState(t),
		SubmitVote{VoterID: "p4", TargetID: "p1"},
		SubmitVote{VoterID: "p4", TargetID: "p2"},
		SubmitVote{VoterID: "p4", TargetID: "p1"},
	)
	ballots := s.dayBallots()
	if len(ballots) != 1 {
		t.Fatalf("want 1 ballot, got %d", len(ballots))
	}
	if ballots["p4"].TargetID != "p1" {
		t.Fatalf("last write must win, got %q", ballots["p4"].TargetID)
	}
}

func TestVoteValidation(t *testing.T) {
	s := dayState(t)

	if _, _, err := Apply(s, SubmitVote{VoterID: "ghost", TargetID: "p1"}); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, _, err := Apply(s, SubmitVote{VoterID: "p4", TargetID: "ghost"}); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("got %v", err)
	}

	s.player("p5").Alive = false
	if _, _, err := Apply(s, SubmitVote{VoterID: "p5", TargetID: "p1"}); !errors.Is(err, ErrActorDead) {
		t.Fatalf("dead voter must reject, got %v", err)
	}
	if _, _, err := Apply(s, SubmitVote{VoterID: "p4", TargetID: "p5"}); !errors.Is(err, ErrTargetDead) {
		t.Fatalf("dead target must reject, got %v", err)
	}

	// Abstention is a legal ballot.
	if _, _, err := Apply(s, SubmitVote{VoterID: "p4"}); err != nil {
		t.Fatalf("abstain: %v", err)
	}
}

func TestVoteResolution(t *testing.T) {
	t.Run("plurality eliminates and reveals", func(t *testing.T) {
		s := applyAll(t, dayState(t),
			SubmitVote{VoterID: "p2", TargetID: "p4"},
			SubmitVote{VoterID: "p3", TargetID: "p4"},
			SubmitVote{VoterID: "p5", TargetID: "p4"},
			SubmitVote{VoterID: "p1", TargetID: "p5"},
		)
		events, next, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		ev := findEvent(t, events, EvtVoteResolved)
		if ev.VictimID != "p4" || ev.RevealedFaction != FactionCivilians {
			t.Fatalf("wrong elimination: %+v", ev)
		}
		if next.player("p4").Alive {
			t.Fatal("eliminated player must be dead")
		}
		if next.Phase != PhaseNight || next.DayNumber != 2 {
			t.Fatalf("want night day 2, got %s day %d", next.Phase, next.DayNumber)
		}
	})

	t.Run("tie means nobody is eliminated", func(t *testing.T) {
		s := applyAll(t, dayState(t),
			SubmitVote{VoterID: "p1", TargetID: "p4"},
			SubmitVote{VoterID: "p2", TargetID: "p4"},
			SubmitVote{VoterID: "p3", TargetID: "p5"},
			SubmitVote{VoterID: "p4", TargetID: "p5"},
		)
		events, next, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !findEvent(t, events, EvtVoteResolved).Tie {
			t.Fatal("expected tie")
		}
		for _, p := range next.Players {
			if !p.Alive {
				t.Fatal("tie must not eliminate anyone")
			}
		}
	})

	t.Run("all abstain is inconclusive", func(t *testing.T) {
		s := dayState(t)
		events, _, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !findEvent(t, events, EvtVoteResolved).Inconclusive {
			t.Fatal("expected inconclusive vote")
		}
	})

	t.Run("all-voted precondition without force", func(t *testing.T) {
		s := applyAll(t, dayState(t), SubmitVote{VoterID: "p1", TargetID: "p4"})
		if _, _, err := Apply(s, AdvancePhase{CallerID: "p1"}); !errors.Is(err, ErrVotesNotComplete) {
			t.Fatalf("got %v", err)
		}

		// Every alive player voting (abstains included) satisfies it.
		s = applyAll(t, s,
			SubmitVote{VoterID: "p2"},
			SubmitVote{VoterID: "p3"},
			SubmitVote{VoterID: "p4"},
			SubmitVote{VoterID: "p5"},
			SubmitVote{VoterID: "p6"},
		)
		if _, _, err := Apply(s, AdvancePhase{CallerID: "p4"}); err != nil {
			t.Fatalf("all voted, advance should pass: %v", err)
		}
	})
}

func TestDayCounterMonotonicity(t *testing.T) {
	s := nightState()

	_, s, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
	if err != nil {
		t.Fatalf("night advance: %v", err)
	}
	if s.DayNumber != 1 {
		t.Fatalf("night->day must keep the day, got %d", s.DayNumber)
	}

	_, s, err = Apply(s, AdvancePhase{CallerID: "p1", Force: true})
	if err != nil {
		t.Fatalf("day advance: %v", err)
	}
	if s.DayNumber != 2 {
		t.Fatalf("day->night must add exactly 1, got %d", s.DayNumber)
	}
}

func TestWinEvaluation(t *testing.T) {
	t.Run("civilians win the moment no mafia is alive", func(t *testing.T) {
		players := []Player{
			{ID: "a", Role: RoleMafia, Alive: false},
			{ID: "b", Role: RoleCivilian, Alive: true},
		}
		winner, decided := EvaluateWin(players)
		if !decided || winner != FactionCivilians {
			t.Fatalf("got %q decided=%v", winner, decided)
		}
	})

	t.Run("mafia win on parity", func(t *testing.T) {
		players := []Player{
			{ID: "a", Role: RoleMafia, Alive: true},
			{ID: "b", Role: RoleMafia, Alive: true},
			{ID: "c", Role: RoleDoctor, Alive: true},
			{ID: "d", Role: RoleCivilian, Alive: true},
		}
		winner, decided := EvaluateWin(players)
		if !decided || winner != FactionMafia {
			t.Fatalf("got %q decided=%v", winner, decided)
		}
	})

	t.Run("ongoing while town outnumbers mafia", func(t *testing.T) {
		players := []Player{
			{ID: "a", Role: RoleMafia, Alive: true},
			{ID: "b", Role: RoleCivilian, Alive: true},
			{ID: "c", Role: RoleCivilian, Alive: true},
		}
		if _, decided := EvaluateWin(players); decided {
			t.Fatal("should be ongoing")
		}
	})

	t.Run("kill reaching parity ends the game at resolution", func(t *testing.T) {
		s := nightState()
		// Shrink to 1 mafia vs 2 town so one night kill hits parity.
		s.Players = s.Players[:3] // p1 mafia, p2 doctor, p3 detective
		s = applyAll(t, s, SubmitNightAction{ActorID: "p1", TargetID: "p2", Action: Kill{}})
		events, next, err := Apply(s, AdvancePhase{CallerID: "p1", Force: true})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if next.Phase != PhaseGameOver || next.Winner != FactionMafia {
			t.Fatalf("want mafia win, got %s winner %q", next.Phase, next.Winner)
		}
		if !containsEvent(events, EvtGameEnded) {
			t.Fatal("missing GameEnded event")
		}
	})
}

func TestStartGame(t *testing.T) {
	lobby := NewState("room1", "p1", []Player{
		{ID: "p1", Nickname: "Host"},
		{ID: "p2", Nickname: "Two", Ready: true},
		{ID: "p3", Nickname: "Three", Ready: true},
		{ID: "p4", Nickname: "Four", Ready: true},
	}, Config{MinPlayers: 4, Roles: RoleConfig{Mafia: 1, Doctor: 1, Detective: 1}})

	t.Run("non-host cannot start", func(t *testing.T) {
		if _, _, err := Apply(lobby, StartGame{CallerID: "p2"}); !errors.Is(err, ErrNotHost) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("unready roster cannot start", func(t *testing.T) {
		s := lobby.clone()
		s.player("p3").Ready = false
		if _, _, err := Apply(s, StartGame{CallerID: "p1"}); !errors.Is(err, ErrNotAllReady) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("short roster cannot start", func(t *testing.T) {
		s := lobby.clone()
		s.Players = s.Players[:3]
		if _, _, err := Apply(s, StartGame{CallerID: "p1"}); !errors.Is(err, ErrNotEnoughPlayers) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("start assigns roles and opens night 1", func(t *testing.T) {
		events, s, err := Apply(lobby, StartGame{CallerID: "p1", Shuffle: identityShuffle})
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if s.Phase != PhaseNight || s.DayNumber != 1 {
			t.Fatalf("want night day 1, got %s day %d", s.Phase, s.DayNumber)
		}
		if !containsEvent(events, EvtRolesAssigned) || !containsEvent(events, EvtPhaseChanged) {
			t.Fatalf("missing start events: %+v", events)
		}
		for _, p := range s.Players {
			if p.Role == "" || !p.Alive {
				t.Fatalf("player %s not initialized: %+v", p.ID, p)
			}
		}
		// Identity shuffle deals the composition in order.
		if s.Players[0].Role != RoleMafia || s.Players[1].Role != RoleDoctor {
			t.Fatalf("unexpected deal: %+v", s.Players)
		}
		// Starting twice is rejected.
		if _, _, err := Apply(s, StartGame{CallerID: "p1"}); !errors.Is(err, ErrGameInProgress) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestEndAndRestart(t *testing.T) {
	s := nightState()

	if _, _, err := Apply(s, EndGame{CallerID: "p2"}); !errors.Is(err, ErrNotHost) {
		t.Fatalf("got %v", err)
	}

	_, over, err := Apply(s, EndGame{CallerID: "p1"})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if over.Phase != PhaseGameOver || over.Winner != "" {
		t.Fatalf("administrative end must leave no winner, got %q", over.Winner)
	}

	_, back, err := Apply(over, RestartGame{CallerID: "p1"})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if back.Phase != PhaseLobby || back.DayNumber != 0 || back.Winner != "" {
		t.Fatalf("restart state wrong: %+v", back)
	}
	for _, p := range back.Players {
		if p.Role != "" || !p.Alive || p.Ready {
			t.Fatalf("player not reset: %+v", p)
		}
	}
	if len(back.Votes) != 0 {
		t.Fatal("votes must be cleared on restart")
	}
}

func TestRemovePlayerTriggersWinCheck(t *testing.T) {
	s := nightState()
	s.Players = s.Players[:3] // 1 mafia vs 2 town

	_, next, err := Apply(s, RemovePlayer{PlayerID: "p2"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if next.Phase != PhaseGameOver || next.Winner != FactionMafia {
		t.Fatalf("removal reaching parity must end the game, got %s %q", next.Phase, next.Winner)
	}
}

// TestScenarioSixPlayers is the end-to-end flow: saved night, then the town
// votes the mafia out.
func TestScenarioSixPlayers(t *testing.T) {
	s := nightState()

	// Night 1: mafia targets p3, doctor protects p3.
	s = applyAll(t, s,
		SubmitNightAction{ActorID: "p1", TargetID: "p3", Action: Kill{}},
		SubmitNightAction{ActorID: "p2", TargetID: "p3", Action: Protect{}},
		SubmitNightAction{ActorID: "p3", TargetID: "p5", Action: Investigate{}},
	)
	events, s, err := Apply(s, AdvancePhase{CallerID: "p4"})
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if !findEvent(t, events, EvtNightResolved).Saved {
		t.Fatal("p3 should have been saved")
	}
	if s.Phase != PhaseDayVoting || s.DayNumber != 1 {
		t.Fatalf("want day_voting day 1, got %s day %d", s.Phase, s.DayNumber)
	}

	// Day 1: three votes against the mafia, rest abstain.
	s = applyAll(t, s,
		SubmitVote{VoterID: "p3", TargetID: "p1"},
		SubmitVote{VoterID: "p4", TargetID: "p1"},
		SubmitVote{VoterID: "p5", TargetID: "p1"},
		SubmitVote{VoterID: "p1"},
		SubmitVote{VoterID: "p2"},
		SubmitVote{VoterID: "p6"},
	)
	events, s, err = Apply(s, AdvancePhase{CallerID: "p4"})
	if err != nil {
		t.Fatalf("resolve vote: %v", err)
	}

	ev := findEvent(t, events, EvtVoteResolved)
	if ev.VictimID != "p1" || ev.RevealedFaction != FactionMafia {
		t.Fatalf("p1 should be eliminated as mafia: %+v", ev)
	}
	if s.Phase != PhaseGameOver || s.Winner != FactionCivilians {
		t.Fatalf("civilians should win, got %s winner %q", s.Phase, s.Winner)
	}
	if !containsEvent(events, EvtGameEnded) {
		t.Fatal("missing GameEnded")
	}
}
