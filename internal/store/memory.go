package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is the Store used by tests and DATABASE_URL-less dev runs. Same
// contract as Gorm, guarded by one mutex.
type Memory struct {
	mu       sync.RWMutex
	games    map[string]GameRow
	votes    map[string]map[string]VoteRow // roomID -> voter/day key
	audits   map[string][]AuditRow
	messages map[string][]MessageRow
	nextID   uint

	// FailNext, when set, makes the next Commit return it and leave the
	// store untouched. Tests use it to assert decide-and-persist atomicity.
	FailNext error
}

func NewMemory() *Memory {
	return &Memory{
		games:    map[string]GameRow{},
		votes:    map[string]map[string]VoteRow{},
		audits:   map[string][]AuditRow{},
		messages: map[string][]MessageRow{},
	}
}

func voteKey(voterID string, day int) string {
	return voterID + "/" + strconv.Itoa(day)
}

func (m *Memory) Commit(_ context.Context, up Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	if up.ClearRoom && up.Game != nil {
		delete(m.votes, up.Game.RoomID)
		delete(m.audits, up.Game.RoomID)
	}
	if up.Game != nil {
		row := *up.Game
		row.UpdatedAt = time.Now()
		m.games[row.RoomID] = row
	}
	for _, v := range up.Votes {
		if m.votes[v.RoomID] == nil {
			m.votes[v.RoomID] = map[string]VoteRow{}
		}
		m.nextID++
		v.ID = m.nextID
		m.votes[v.RoomID][voteKey(v.VoterID, v.DayNumber)] = v
	}
	for _, a := range up.Audits {
		m.nextID++
		a.ID = m.nextID
		m.audits[a.RoomID] = append(m.audits[a.RoomID], a)
	}
	for _, msg := range up.Messages {
		m.nextID++
		msg.ID = m.nextID
		m.messages[msg.RoomID] = append(m.messages[msg.RoomID], msg)
	}
	return nil
}

func (m *Memory) LoadGame(_ context.Context, roomID string) (*GameRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.games[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *Memory) VotesForDay(_ context.Context, roomID string, day int) ([]VoteRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []VoteRow
	for _, v := range m.votes[roomID] {
		if v.DayNumber == day {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *Memory) AuditTrail(_ context.Context, roomID string) ([]AuditRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditRow, len(m.audits[roomID]))
	copy(out, m.audits[roomID])
	return out, nil
}

func (m *Memory) RoomMessages(_ context.Context, roomID string, limit int) ([]MessageRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]MessageRow, len(msgs))
	copy(out, msgs)
	return out, nil
}
