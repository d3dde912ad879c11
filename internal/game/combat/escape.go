package combat

// Escapee records a combatant that disconnected from the encounter.
type Escapee struct {
	Combatant *Combatant
	Turn      int
}

// EscapeTracker is the ordered list of escapes.
type EscapeTracker struct {
	entries []Escapee
}

// Record appends c as escaped on turn.
func (t *EscapeTracker) Record(c *Combatant, turn int) {
	t.entries = append(t.entries, Escapee{Combatant: c, Turn: turn})
}

// List returns a copy of the escapes in the order they happened.
func (t *EscapeTracker) List() []Escapee {
	out := make([]Escapee, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of escapes.
func (t *EscapeTracker) Len() int { return len(t.entries) }

// Has reports whether the combatant with id escaped.
func (t *EscapeTracker) Has(id string) bool {
	for _, e := range t.entries {
		if e.Combatant.ID == id {
			return true
		}
	}
	return false
}

// EscapePolicy decides how likely a flee attempt is to succeed.
type EscapePolicy interface {
	// Chance returns the success percentage in [0, 100].
	Chance(fleer *Combatant, opponents []*Combatant) int
}

// AgilityEscapePolicy compares the fleer's Agility with the quickest active opponent.
type AgilityEscapePolicy struct {
	Base int
	Step int
	Min  int
	Max  int
}

// DefaultEscapePolicy returns the policy used when none is configured.
func DefaultEscapePolicy() AgilityEscapePolicy {
	return AgilityEscapePolicy{Base: 50, Step: 5, Min: 5, Max: 95}
}

// Chance implements EscapePolicy.
//
// Postcondition: Base + (fleer.Agility - max opposing Agility) * Step, clamped to
// [Min, Max] and then to [0, 100]. With no opponents the result is Max.
func (p AgilityEscapePolicy) Chance(fleer *Combatant, opponents []*Combatant) int {
	if len(opponents) == 0 {
		return clampPercent(p.Max)
	}
	best := opponents[0].Agility
	for _, o := range opponents[1:] {
		if o.Agility > best {
			best = o.Agility
		}
	}
	chance := p.Base + (fleer.Agility-best)*p.Step
	if chance < p.Min {
		chance = p.Min
	}
	if chance > p.Max {
		chance = p.Max
	}
	return clampPercent(chance)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
