package engine

// EvaluateWin inspects the roster after a resolution has applied its deaths.
// Mafia win on parity, not just majority: with information asymmetry the
// minority faction takes ties. Civilians win the moment no mafia breathes.
func EvaluateWin(players []Player) (Faction, bool) {
	aliveMafia, aliveTown := 0, 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleMafia {
			aliveMafia++
		} else {
			aliveTown++
		}
	}

	switch {
	case aliveMafia == 0:
		return FactionCivilians, true
	case aliveMafia >= aliveTown:
		return FactionMafia, true
	default:
		return "", false
	}
}
