package room

import (
	"encoding/json"
	"fmt"

	"github.com/duskfall/mafia-backend/internal/engine"
	"github.com/duskfall/mafia-backend/internal/store"
)

// buildUpdate translates an applied command into the store rows it implies.
// The game row is always written; votes, audit entries, and system messages
// follow from the command and its events.
func buildUpdate(next engine.State, cmd engine.Command, events []engine.Event) store.Update {
	up := store.Update{Game: gameRow(next)}

	if v, ok := cmd.(engine.SubmitVote); ok {
		row := store.VoteRow{
			RoomID:    next.RoomID,
			VoterID:   v.VoterID,
			DayNumber: next.DayNumber,
		}
		if v.TargetID != "" {
			t := v.TargetID
			row.TargetID = &t
		}
		up.Votes = append(up.Votes, row)
	}
	if _, ok := cmd.(engine.RestartGame); ok {
		up.ClearRoom = true
	}

	for _, ev := range events {
		if ev.Type == engine.EvtActionRecorded {
			up.Audits = append(up.Audits, store.AuditRow{
				RoomID:     next.RoomID,
				ActorID:    ev.ActorID,
				ActionType: ev.Action,
				TargetID:   ev.TargetID,
				DayNumber:  ev.Day,
				Phase:      string(ev.Phase),
			})
		}
		if msg, ok := messageFor(ev); ok {
			msg.RoomID = next.RoomID
			up.Messages = append(up.Messages, msg)
		}
	}
	return up
}

func gameRow(s engine.State) *store.GameRow {
	snapshot, _ := json.Marshal(s)
	return &store.GameRow{
		RoomID:                  s.RoomID,
		Status:                  roomStatus(s.Phase),
		Phase:                   string(s.Phase),
		DayNumber:               s.DayNumber,
		MafiaTargetID:           s.MafiaTargetID,
		DoctorTargetID:          s.DoctorTargetID,
		DetectiveTargetID:       s.DetectiveTargetID,
		DetectiveResult:         string(s.DetectiveResult),
		Winner:                  string(s.Winner),
		LastMafiaTargetName:     s.LastMafiaTargetName,
		LastDoctorTargetName:    s.LastDoctorTargetName,
		LastDetectiveTargetName: s.LastDetectiveTargetName,
		Snapshot:                snapshot,
	}
}

func roomStatus(p engine.Phase) string {
	switch p {
	case engine.PhaseLobby:
		return "waiting"
	case engine.PhaseGameOver:
		return "finished"
	default:
		return "playing"
	}
}

// messageFor renders an event into the system chat line the original UI
// shows. The engine stays data-only; wording lives here at the edge.
func messageFor(ev engine.Event) (store.MessageRow, bool) {
	switch ev.Type {
	case engine.EvtRolesAssigned:
		return sysMsg("The game has begun! Night falls upon the town..."), true

	case engine.EvtNightResolved:
		switch {
		case ev.Saved:
			return sysMsg("Someone was attacked last night, but the Doctor saved them!"), true
		case ev.Peaceful:
			return sysMsg("The night passes peacefully. No one was killed."), true
		default:
			return sysMsg(withReveal(
				fmt.Sprintf("%s was found dead this morning.", ev.VictimName),
				ev.RevealedFaction)), true
		}

	case engine.EvtVoteResolved:
		switch {
		case ev.Tie:
			return sysMsg("The vote ended in a tie. No one was eliminated."), true
		case ev.Inconclusive:
			return sysMsg("The vote was inconclusive. No one was eliminated."), true
		default:
			return sysMsg(withReveal(
				fmt.Sprintf("The town has spoken. %s has been eliminated.", ev.VictimName),
				ev.RevealedFaction)), true
		}

	case engine.EvtGameEnded:
		switch ev.Winner {
		case engine.FactionMafia:
			return sysMsg("The Mafia has taken over the town! Mafia wins!"), true
		case engine.FactionCivilians:
			return sysMsg("The town has eliminated all the Mafia! Civilians win!"), true
		default:
			return sysMsg("The game has been ended by the host."), true
		}

	case engine.EvtInvestigationResult:
		msg := store.MessageRow{IsSystem: true, RoleType: "detective"}
		if ev.Result == engine.ResultMafia {
			msg.Content = fmt.Sprintf("Your investigation reveals that %s is MAFIA!", ev.VictimName)
		} else {
			msg.Content = fmt.Sprintf("Your investigation reveals that %s is NOT Mafia.", ev.VictimName)
		}
		return msg, true
	}

	return store.MessageRow{}, false
}

func sysMsg(content string) store.MessageRow {
	return store.MessageRow{Content: content, IsSystem: true}
}

func withReveal(base string, f engine.Faction) string {
	switch f {
	case engine.FactionMafia:
		return base + " They were a Mafia."
	case engine.FactionCivilians:
		return base + " They were a Civilian."
	default:
		return base
	}
}
