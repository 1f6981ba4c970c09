package engine

// Action is the tagged union of night abilities. Each variant carries the
// role allowed to perform it, so the role check is a method call rather than
// a lookup table keyed by strings.
type Action interface {
	ActorRole() Role
	Name() string
	isAction()
}

type Kill struct{}

func (Kill) ActorRole() Role { return RoleMafia }
func (Kill) Name() string    { return "kill" }
func (Kill) isAction()       {}

type Protect struct{}

func (Protect) ActorRole() Role { return RoleDoctor }
func (Protect) Name() string    { return "protect" }
func (Protect) isAction()       {}

type Investigate struct{}

func (Investigate) ActorRole() Role { return RoleDetective }
func (Investigate) Name() string    { return "investigate" }
func (Investigate) isAction()       {}

// ParseAction maps the wire names to action values.
func ParseAction(name string) (Action, bool) {
	switch name {
	case "kill":
		return Kill{}, true
	case "protect":
		return Protect{}, true
	case "investigate":
		return Investigate{}, true
	default:
		return nil, false
	}
}

// submitNightAction validates and records one night action on the state.
// Validation order matters: phase, actor liveness, role match, slot free,
// target checks, then action-specific rules.
func submitNightAction(s *State, actorID, targetID string, action Action) ([]Event, error) {
	if s.Phase != PhaseNight {
		return nil, ErrWrongPhase
	}

	actor := s.player(actorID)
	if actor == nil {
		return nil, ErrPlayerNotFound
	}
	if !actor.Alive {
		return nil, ErrActorDead
	}
	if actor.Role != action.ActorRole() {
		return nil, ErrWrongRole
	}
	if s.targetFor(action) != "" {
		return nil, ErrAlreadyActed
	}

	target := s.player(targetID)
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if !target.Alive {
		return nil, ErrTargetDead
	}

	events := []Event{{
		Type:    EvtActionRecorded,
		ActorID: actorID, TargetID: targetID,
		Action: action.Name(),
		Day:    s.DayNumber, Phase: s.Phase,
	}}

	switch action.(type) {
	case Kill:
		if target.Role == RoleMafia {
			return nil, ErrFriendlyFire
		}
		s.MafiaTargetID = targetID
		s.LastMafiaTargetName = target.Nickname
	case Protect:
		// Self-save is allowed.
		s.DoctorTargetID = targetID
		s.LastDoctorTargetName = target.Nickname
	case Investigate:
		if targetID == actorID {
			return nil, ErrSelfInvestigate
		}
		s.DetectiveTargetID = targetID
		s.LastDetectiveTargetName = target.Nickname
		// The detective learns the result immediately rather than at dawn.
		if target.Role == RoleMafia {
			s.DetectiveResult = ResultMafia
		} else {
			s.DetectiveResult = ResultNotMafia
		}
		events = append(events, Event{
			Type:        EvtInvestigationResult,
			RecipientID: actorID,
			TargetID:    targetID,
			VictimName:  target.Nickname,
			Result:      s.DetectiveResult,
			Day:         s.DayNumber,
		})
	default:
		return nil, ErrUnsupportedAction
	}

	return events, nil
}

// targetFor reads the slot an action writes to; "" means the role has not
// acted this night.
func (s *State) targetFor(action Action) string {
	switch action.(type) {
	case Kill:
		return s.MafiaTargetID
	case Protect:
		return s.DoctorTargetID
	case Investigate:
		return s.DetectiveTargetID
	default:
		return ""
	}
}
