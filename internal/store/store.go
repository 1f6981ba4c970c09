// Package store persists room state through a small CRUD contract: one game
// row per room, vote rows keyed (room, voter, day), append-only audit rows,
// and system message rows. The engine never sees this package; the room
// actor commits each decision and its side rows as one atomic unit.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// GameRow mirrors the authoritative game state plus the room status it
// implies. Snapshot carries the full engine state as JSON for recovery.
type GameRow struct {
	RoomID    string `gorm:"primaryKey;size:64"`
	Status    string `gorm:"size:16;not null"` // waiting | playing | finished
	Phase     string `gorm:"size:16;not null"`
	DayNumber int    `gorm:"not null"`

	MafiaTargetID     string `gorm:"size:64"`
	DoctorTargetID    string `gorm:"size:64"`
	DetectiveTargetID string `gorm:"size:64"`
	DetectiveResult   string `gorm:"size:16"`
	Winner            string `gorm:"size:16"`

	LastMafiaTargetName     string
	LastDoctorTargetName    string
	LastDetectiveTargetName string

	Snapshot  []byte `gorm:"type:bytes"`
	UpdatedAt time.Time
	CreatedAt time.Time
}

// VoteRow is one ballot. The unique index gives the (room, voter, day)
// upsert its conflict target; a nil TargetID is an abstention.
type VoteRow struct {
	ID        uint    `gorm:"primaryKey"`
	RoomID    string  `gorm:"size:64;uniqueIndex:idx_votes_room_voter_day;not null"`
	VoterID   string  `gorm:"size:64;uniqueIndex:idx_votes_room_voter_day;not null"`
	DayNumber int     `gorm:"uniqueIndex:idx_votes_room_voter_day;not null"`
	TargetID  *string `gorm:"size:64"`
	CreatedAt time.Time
}

// AuditRow is an append-only record of a night action. Never updated.
type AuditRow struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"size:64;index;not null"`
	ActorID    string `gorm:"size:64"`
	ActionType string `gorm:"size:32;not null"`
	TargetID   string `gorm:"size:64"`
	DayNumber  int
	Phase      string `gorm:"size:16"`
	CreatedAt  time.Time
}

// MessageRow is a system chat line derived from an engine event. RoleType
// limits visibility ("detective" marks the private investigation result).
type MessageRow struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"size:64;index;not null"`
	Content   string `gorm:"not null"`
	IsSystem  bool   `gorm:"not null"`
	RoleType  string `gorm:"size:16"`
	CreatedAt time.Time
}

// Update is one atomic write: everything lands or nothing does. ClearRoom
// wipes the room's vote and audit history first (game restart).
type Update struct {
	Game      *GameRow
	Votes     []VoteRow
	Audits    []AuditRow
	Messages  []MessageRow
	ClearRoom bool
}

type Store interface {
	Commit(ctx context.Context, up Update) error
	LoadGame(ctx context.Context, roomID string) (*GameRow, error)
	VotesForDay(ctx context.Context, roomID string, day int) ([]VoteRow, error)
	AuditTrail(ctx context.Context, roomID string) ([]AuditRow, error)
	RoomMessages(ctx context.Context, roomID string, limit int) ([]MessageRow, error)
}
