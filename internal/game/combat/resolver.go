package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// field is the roster view the Resolver works against.
type field interface {
	combatant(id string) (*Combatant, bool)
	activeOn(side Side) []*Combatant
}

// Resolver validates and applies actions. It holds no encounter state of its own.
type Resolver struct {
	Rules  Rules
	Src    dice.Source
	Escape EscapePolicy
	Spells AbilityBook
	Items  AbilityBook
}

// plan is a validated action ready to apply.
type plan struct {
	action  Action
	actor   *Combatant
	targets []*Combatant
	ability Ability
}

// resolution is the applied outcome of a plan.
type resolution struct {
	result Result
	// left lists combatants whose status moved off active during the action.
	left []*Combatant
}

// validate checks a against the field without mutating anything.
//
// Precondition: actor is the current actor and a.ActorID() == actor.ID.
// Postcondition: a non-nil error wraps ErrInvalidTarget or ErrUnknownAbility.
func (r *Resolver) validate(a Action, actor *Combatant, f field) (plan, error) {
	p := plan{action: a, actor: actor}
	switch act := a.(type) {
	case Attack:
		t, err := opposingTarget(actor, act.TargetID, f)
		if err != nil {
			return p, err
		}
		p.targets = []*Combatant{t}
	case Defend, Flee, Pass:
		p.targets = []*Combatant{actor}
	case Cast:
		ab, err := lookupAbility(r.Spells, "spell", act.SpellID)
		if err != nil {
			return p, err
		}
		p.ability = ab
		if p.targets, err = abilityTargets(ab, actor, act.TargetID, f); err != nil {
			return p, err
		}
	case UseItem:
		ab, err := lookupAbility(r.Items, "item", act.ItemID)
		if err != nil {
			return p, err
		}
		p.ability = ab
		if p.targets, err = abilityTargets(ab, actor, act.TargetID, f); err != nil {
			return p, err
		}
	default:
		return p, fmt.Errorf("unsupported action %T: %w", a, ErrInvalidTarget)
	}
	return p, nil
}

// apply resolves a validated plan.
//
// Postcondition: the result is never Rejected; every combatant whose status left
// active is listed in left.
func (r *Resolver) apply(p plan, f field) resolution {
	var res resolution
	res.result.Kind = p.action.Kind()
	res.result.ActorID = p.actor.ID
	for _, t := range p.targets {
		res.result.TargetIDs = append(res.result.TargetIDs, t.ID)
	}

	switch act := p.action.(type) {
	case Attack:
		r.applyAttack(&res, p.actor, p.targets[0])
	case Defend:
		p.actor.defending = true
		res.result.Success = true
		res.result.Message = fmt.Sprintf("%s takes a defensive stance.", p.actor.Name)
	case Cast:
		r.applyAbility(&res, p, "casts")
	case UseItem:
		r.applyAbility(&res, p, "uses")
	case Flee:
		r.applyFlee(&res, p.actor, f.activeOn(p.actor.Side.Opposing()))
	case Pass:
		res.result.Message = fmt.Sprintf("%s hesitates and loses the turn.", p.actor.Name)
	default:
		res.result.Message = fmt.Sprintf("%s does nothing (%T).", p.actor.Name, act)
	}
	return res
}

func (r *Resolver) applyAttack(res *resolution, attacker, target *Combatant) {
	acBonus := 0
	if target.defending {
		acBonus = r.Rules.DefendACBonus
		target.defending = false
	}
	ar := ResolveAttack(attacker, target, acBonus, r.Src)
	dmg := ar.EffectiveDamage()
	res.result.Attack = &ar
	res.result.HasDamage = true
	res.result.Damage = dmg
	res.result.Success = ar.Outcome.Hit()

	weapon := attacker.weapon().Name()
	if !ar.Outcome.Hit() {
		res.result.Message = fmt.Sprintf("%s attacks %s with %s and misses (%d vs AC %d).",
			attacker.Name, target.Name, weapon, ar.Total, ar.TargetAC)
		return
	}
	msg := fmt.Sprintf("%s attacks %s with %s: %s for %d damage.",
		attacker.Name, target.Name, weapon, ar.Outcome, dmg)
	if r.damage(res, target, dmg) {
		msg += " " + downedMessage(target)
	}
	res.result.Message = msg
}

func (r *Resolver) applyAbility(res *resolution, p plan, verb string) {
	impacts := p.ability.Resolve(p.actor, p.targets, r.Src)
	byID := make(map[string]*Combatant, len(p.targets))
	for _, t := range p.targets {
		byID[t.ID] = t
	}

	var parts []string
	for _, im := range impacts {
		t, ok := byID[im.TargetID]
		if !ok || !t.IsActive() {
			continue
		}
		if im.Damage > 0 {
			res.result.HasDamage = true
			res.result.Damage += im.Damage
			part := fmt.Sprintf("%s takes %d damage", t.Name, im.Damage)
			if r.damage(res, t, im.Damage) {
				part += " and " + strings.TrimSuffix(downedMessage(t), ".")
			}
			parts = append(parts, part)
		}
		if im.Healing > 0 && t.IsActive() {
			healed := heal(t, im.Healing)
			res.result.Healing += healed
			parts = append(parts, fmt.Sprintf("%s recovers %d HP", t.Name, healed))
		}
	}

	res.result.Success = true
	msg := fmt.Sprintf("%s %s %s", p.actor.Name, verb, p.ability.Name())
	if p.ability.Targeting().RequiresTarget() {
		msg += " on " + p.targets[0].Name
	}
	if len(parts) == 0 {
		res.result.Message = msg + "."
		return
	}
	res.result.Message = msg + ": " + strings.Join(parts, ", ") + "."
}

func (r *Resolver) applyFlee(res *resolution, fleer *Combatant, opponents []*Combatant) {
	chance := r.Escape.Chance(fleer, opponents)
	if !dice.Percent(r.Src, chance) {
		res.result.Message = fmt.Sprintf("%s tries to flee but cannot get away.", fleer.Name)
		return
	}
	fleer.transition(StatusDisconnected)
	res.left = append(res.left, fleer)
	res.result.Success = true
	res.result.Message = fmt.Sprintf("%s flees the encounter.", fleer.Name)
}

// damage subtracts amount from target without flooring and updates its status.
// It reports whether target left the active state.
func (r *Resolver) damage(res *resolution, target *Combatant, amount int) bool {
	target.CurrentHP -= amount
	next := r.Rules.statusAfterDamage(target)
	if next == StatusActive || !target.transition(next) {
		return false
	}
	res.left = append(res.left, target)
	return true
}

// heal restores up to amount HP, capped at MaxHP, and returns the HP gained.
func heal(target *Combatant, amount int) int {
	before := target.CurrentHP
	target.CurrentHP += amount
	if target.CurrentHP > target.MaxHP {
		target.CurrentHP = target.MaxHP
	}
	if target.CurrentHP < before {
		target.CurrentHP = before
	}
	return target.CurrentHP - before
}

func downedMessage(c *Combatant) string {
	switch c.Status() {
	case StatusDead:
		return fmt.Sprintf("%s is slain.", c.Name)
	case StatusUnconscious:
		return fmt.Sprintf("%s falls unconscious.", c.Name)
	default:
		return ""
	}
}

func lookupAbility(book AbilityBook, kind, id string) (Ability, error) {
	if book == nil {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrUnknownAbility)
	}
	ab, ok := book.Ability(id)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrUnknownAbility)
	}
	return ab, nil
}

func opposingTarget(actor *Combatant, id string, f field) (*Combatant, error) {
	t, err := activeTarget(id, f)
	if err != nil {
		return nil, err
	}
	if t.Side != actor.Side.Opposing() {
		return nil, fmt.Errorf("%s is not an enemy of %s: %w", t.Name, actor.Name, ErrInvalidTarget)
	}
	return t, nil
}

func allyTarget(actor *Combatant, id string, f field) (*Combatant, error) {
	t, err := activeTarget(id, f)
	if err != nil {
		return nil, err
	}
	if t.Side != actor.Side {
		return nil, fmt.Errorf("%s is not an ally of %s: %w", t.Name, actor.Name, ErrInvalidTarget)
	}
	return t, nil
}

func activeTarget(id string, f field) (*Combatant, error) {
	if id == "" {
		return nil, fmt.Errorf("no target given: %w", ErrInvalidTarget)
	}
	t, ok := f.combatant(id)
	if !ok {
		return nil, fmt.Errorf("target %q not found: %w", id, ErrInvalidTarget)
	}
	if !t.IsActive() {
		return nil, fmt.Errorf("%s is %s: %w", t.Name, t.Status(), ErrInvalidTarget)
	}
	return t, nil
}

func abilityTargets(ab Ability, actor *Combatant, id string, f field) ([]*Combatant, error) {
	switch ab.Targeting() {
	case TargetEnemy:
		t, err := opposingTarget(actor, id, f)
		if err != nil {
			return nil, err
		}
		return []*Combatant{t}, nil
	case TargetAlly:
		t, err := allyTarget(actor, id, f)
		if err != nil {
			return nil, err
		}
		return []*Combatant{t}, nil
	case TargetSelf:
		return []*Combatant{actor}, nil
	case TargetAllEnemies:
		ts := f.activeOn(actor.Side.Opposing())
		if len(ts) == 0 {
			return nil, fmt.Errorf("%s has no enemies to target: %w", ab.Name(), ErrInvalidTarget)
		}
		return ts, nil
	case TargetAllAllies:
		return f.activeOn(actor.Side), nil
	default:
		return nil, fmt.Errorf("%s has unsupported targeting %d: %w", ab.Name(), ab.Targeting(), ErrInvalidTarget)
	}
}
