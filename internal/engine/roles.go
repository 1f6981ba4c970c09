package engine

import (
	"crypto/rand"
	"math/big"
)

type Role string

const (
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleCivilian  Role = "civilian"
)

type Faction string

const (
	FactionMafia     Faction = "mafia"
	FactionCivilians Faction = "civilians"
)

func (r Role) Faction() Faction {
	if r == RoleMafia {
		return FactionMafia
	}
	return FactionCivilians
}

// RoleConfig is the room's requested composition. Civilians are the remainder.
type RoleConfig struct {
	Mafia     int `json:"mafia_count"`
	Doctor    int `json:"doctor_count"`
	Detective int `json:"detective_count"`
}

// Composition clamps the configured counts so the multiset always fits the
// roster: mafia first, then doctor, then detective, civilians fill the rest.
// Total for any playerCount >= 1.
func (cfg RoleConfig) Composition(playerCount int) []Role {
	mafia := min(cfg.Mafia, playerCount-1)
	doctor := min(cfg.Doctor, playerCount-mafia)
	detective := min(cfg.Detective, playerCount-mafia-doctor)

	roles := make([]Role, 0, playerCount)
	for i := 0; i < mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for i := 0; i < detective; i++ {
		roles = append(roles, RoleDetective)
	}
	for len(roles) < playerCount {
		roles = append(roles, RoleCivilian)
	}
	return roles
}

// Shuffler returns a permutation of [0, n). AssignRoles uses it to place the
// role multiset onto the roster; tests inject a fixed one.
type Shuffler func(n int) []int

// CryptoShuffle is a Fisher-Yates permutation backed by crypto/rand. Roles are
// secret identities, so math/rand is not good enough here.
func CryptoShuffle(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken;
			// nothing sensible to do but keep the identity order so far.
			continue
		}
		perm[i], perm[int(j.Int64())] = perm[int(j.Int64())], perm[i]
	}
	return perm
}

// AssignRoles builds the clamped composition and deals it across the
// permutation, so roles[i] belongs to player i of the roster.
func AssignRoles(playerCount int, cfg RoleConfig, shuffle Shuffler) []Role {
	if shuffle == nil {
		shuffle = CryptoShuffle
	}
	comp := cfg.Composition(playerCount)
	perm := shuffle(playerCount)
	roles := make([]Role, playerCount)
	for i, p := range perm {
		roles[p] = comp[i]
	}
	return roles
}

// RecommendedMafiaCount is the lobby default for a given roster size.
func RecommendedMafiaCount(playerCount int) int {
	switch {
	case playerCount <= 7:
		return 1
	case playerCount <= 10:
		return 2
	case playerCount <= 12:
		return 3
	case playerCount <= 15:
		return 4
	default:
		return playerCount / 4
	}
}
