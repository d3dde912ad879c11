package combat

import "github.com/cory-johannsen/encounter/internal/game/dice"

// Outcome represents the four-tier result of an attack roll.
type Outcome int

const (
	CritSuccess Outcome = iota
	Success
	Failure
	CritFailure
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case CritSuccess:
		return "critical success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case CritFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// Hit reports whether the outcome lands damage.
func (o Outcome) Hit() bool { return o == CritSuccess || o == Success }

// OutcomeFor maps an attack total against an armor class to one of four tiers.
//
// Precondition: none.
// Postcondition: total >= ac+10 is CritSuccess, total >= ac is Success,
// total >= ac-10 is Failure, anything lower is CritFailure.
func OutcomeFor(total, ac int) Outcome {
	switch {
	case total >= ac+10:
		return CritSuccess
	case total >= ac:
		return Success
	case total >= ac-10:
		return Failure
	default:
		return CritFailure
	}
}

// ProficiencyBonus returns the level-based proficiency bonus added to attack rolls.
func ProficiencyBonus(level int) int {
	if level < 1 {
		return 0
	}
	return 2 + (level-1)/4
}

// AttackResult holds the full breakdown of one attack.
type AttackResult struct {
	AttackerID string
	TargetID   string
	Roll       int // raw d20
	Total      int // d20 + attack bonus + proficiency
	TargetAC   int // including any defend bonus
	Outcome    Outcome
	BaseDamage int
	DamageRoll dice.RollResult
}

// EffectiveDamage returns the damage dealt after applying the outcome multiplier.
//
// Postcondition: 0 on a miss, double on a critical success, base damage otherwise.
func (r AttackResult) EffectiveDamage() int {
	switch r.Outcome {
	case CritSuccess:
		return r.BaseDamage * 2
	case Success:
		return r.BaseDamage
	default:
		return 0
	}
}

// ResolveAttack rolls attacker's attack against target.
//
// Precondition: attacker and target must be non-nil; src must be non-nil.
// Postcondition: damage is rolled on every attack so the source advances
// identically on hits and misses; BaseDamage is never negative.
func ResolveAttack(attacker, target *Combatant, acBonus int, src dice.Source) AttackResult {
	d20 := src.Intn(20) + 1
	total := d20 + attacker.AttackBonus + ProficiencyBonus(attacker.Level)
	ac := target.AC + acBonus

	expr, err := dice.Parse(attacker.weapon().DamageDice())
	if err != nil {
		expr = dice.MustParse(Unarmed{}.DamageDice())
	}
	dmg := dice.Roll(expr, src)
	base := dmg.Total() + attacker.AttackBonus
	if base < 0 {
		base = 0
	}

	return AttackResult{
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Roll:       d20,
		Total:      total,
		TargetAC:   ac,
		Outcome:    OutcomeFor(total, ac),
		BaseDamage: base,
		DamageRoll: dmg,
	}
}

// RollInitiative sets Initiative to d20 + DexMod for each combatant.
//
// Precondition: src must be non-nil.
func RollInitiative(combatants []*Combatant, src dice.Source) {
	for _, c := range combatants {
		c.Initiative = src.Intn(20) + 1 + c.DexMod
	}
}
