package combat

// VerdictKind classifies how an encounter ended.
type VerdictKind int

const (
	VerdictVictory VerdictKind = iota + 1
	VerdictVictoryWithCasualties
	VerdictPartialDefeat
	VerdictTotalDefeat
)

// String returns a snake_case label suitable for storage.
func (k VerdictKind) String() string {
	switch k {
	case VerdictVictory:
		return "victory"
	case VerdictVictoryWithCasualties:
		return "victory_with_casualties"
	case VerdictPartialDefeat:
		return "partial_defeat"
	case VerdictTotalDefeat:
		return "total_defeat"
	default:
		return "unknown"
	}
}

// ParseVerdictKind is the inverse of VerdictKind.String.
func ParseVerdictKind(s string) (VerdictKind, bool) {
	for k := VerdictVictory; k <= VerdictTotalDefeat; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Verdict is the terminal report of an encounter.
type Verdict struct {
	EncounterID string
	Winner      Side
	Kind        VerdictKind
	// Casualties are players left unconscious or dead. Escaped players are never casualties.
	Casualties []*Combatant
	// Escapees are players that fled. Fled holds monsters that did.
	Escapees []Escapee
	Fled     []Escapee
	Rewards  Rewards
	Turns    int
	Waves    PartyInfo
}

// decide applies the termination rules.
//
// Postcondition: ended is false while at least one player is active and waves
// remain. Defeat takes precedence when the last wave clears in the same
// resolution that downs the last player.
func decide(activePlayers int, wavesExhausted bool, casualties, escapees int) (VerdictKind, bool) {
	switch {
	case activePlayers == 0 && escapees > 0:
		return VerdictPartialDefeat, true
	case activePlayers == 0:
		return VerdictTotalDefeat, true
	case wavesExhausted && casualties > 0:
		return VerdictVictoryWithCasualties, true
	case wavesExhausted:
		return VerdictVictory, true
	default:
		return 0, false
	}
}

// Won reports whether the player side won.
func (v Verdict) Won() bool {
	return v.Winner == SidePlayer
}
