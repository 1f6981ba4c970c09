package engine

import "errors"

// Kind buckets rejections so the transport layer can map them to a status
// code without string-matching reasons.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindPrecondition  Kind = "precondition"
	KindAuthorization Kind = "authorization"
	KindConcurrency   Kind = "concurrency"
	KindNotFound      Kind = "not_found"
)

type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

var (
	ErrWrongPhase        = &Error{KindPrecondition, "action not allowed in current phase"}
	ErrGameInProgress    = &Error{KindPrecondition, "game already started"}
	ErrNotEnoughPlayers  = &Error{KindPrecondition, "not enough players to start"}
	ErrNotAllReady       = &Error{KindPrecondition, "not all players are ready"}
	ErrActorDead         = &Error{KindPrecondition, "dead players cannot act"}
	ErrAlreadyActed      = &Error{KindPrecondition, "already acted this night"}
	ErrNightNotComplete  = &Error{KindPrecondition, "not all night actions are complete"}
	ErrVotesNotComplete  = &Error{KindPrecondition, "not all votes are in"}
	ErrWrongRole         = &Error{KindValidation, "action does not match your role"}
	ErrTargetDead        = &Error{KindValidation, "cannot target dead players"}
	ErrFriendlyFire      = &Error{KindValidation, "mafia cannot kill other mafia"}
	ErrSelfInvestigate   = &Error{KindValidation, "cannot investigate yourself"}
	ErrNotHost           = &Error{KindAuthorization, "only the host can do that"}
	ErrPlayerNotFound    = &Error{KindNotFound, "player not in room"}
	ErrTargetNotFound    = &Error{KindNotFound, "target not in room"}
	ErrRoomNotFound      = &Error{KindNotFound, "room not found"}
	ErrRoomBusy          = &Error{KindConcurrency, "another operation is in flight for this room"}
	ErrUnsupportedAction = &Error{KindValidation, "unsupported action"}
)

// KindOf classifies any error surfaced by the engine or room layer. Errors
// that did not originate here (store failures and the like) report the empty
// Kind and should be treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
