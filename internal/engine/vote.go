package engine

// castVote upserts the voter's ballot for the current day. Last write wins;
// changing a vote any number of times during day_voting is legal.
func castVote(s *State, voterID, targetID string) error {
	if s.Phase != PhaseDayVoting {
		return ErrWrongPhase
	}

	voter := s.player(voterID)
	if voter == nil {
		return ErrPlayerNotFound
	}
	if !voter.Alive {
		return ErrActorDead
	}

	if targetID != "" {
		target := s.player(targetID)
		if target == nil {
			return ErrTargetNotFound
		}
		if !target.Alive {
			return ErrTargetDead
		}
	}

	if s.Votes[s.DayNumber] == nil {
		s.Votes[s.DayNumber] = map[string]Ballot{}
	}
	s.Votes[s.DayNumber][voterID] = Ballot{VoterID: voterID, TargetID: targetID}
	return nil
}

// TallyResult is the outcome of one day's vote.
type TallyResult struct {
	EliminatedID string
	Tie          bool
	Inconclusive bool
}

// Tally computes the strict-plurality winner of a ballot set. Abstentions
// count toward nobody. Ties never break: a shared maximum means no
// elimination, and no non-abstain votes at all is inconclusive.
func Tally(ballots map[string]Ballot) TallyResult {
	counts := map[string]int{}
	for _, b := range ballots {
		if b.TargetID != "" {
			counts[b.TargetID]++
		}
	}

	best, bestCount, tied := "", 0, false
	for target, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tied = target, n, false
		case n == bestCount && bestCount > 0:
			tied = true
		}
	}

	if bestCount == 0 {
		return TallyResult{Inconclusive: true}
	}
	if tied {
		return TallyResult{Tie: true}
	}
	return TallyResult{EliminatedID: best}
}
