package ai

import (
	"errors"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/scripting"
)

// CombatantState is a planning-time snapshot of one combatant.
type CombatantState struct {
	ID      string
	Name    string
	Side    combat.Side
	HP      int
	MaxHP   int
	AC      int
	Agility int
	// Position is the index in turn order.
	Position int
}

// HPPercent returns HP as a percentage of MaxHP, 0 when MaxHP is 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// WorldState is what the planner sees when choosing for Self.
//
// Invariant: Self is non-nil; Opponents and Party hold only active combatants in
// turn order; Party excludes Self.
type WorldState struct {
	Self      *CombatantState
	Opponents []*CombatantState
	Party     []*CombatantState

	roller *dice.Roller
}

var errNoSource = errors.New("no randomness source")

// Snapshot builds a WorldState for actor from board.
//
// Precondition: actor and board are non-nil.
func Snapshot(actor *combat.Combatant, board combat.Board) *WorldState {
	pos := make(map[string]int)
	for i, c := range board.Order() {
		pos[c.ID] = i
	}
	state := func(c *combat.Combatant) *CombatantState {
		p, ok := pos[c.ID]
		if !ok {
			p = -1
		}
		return &CombatantState{
			ID: c.ID, Name: c.Name, Side: c.Side,
			HP: c.CurrentHP, MaxHP: c.MaxHP, AC: c.AC, Agility: c.Agility,
			Position: p,
		}
	}
	ws := &WorldState{Self: state(actor)}
	if src := board.Source(); src != nil {
		ws.roller = dice.NewLoggedRoller(src, nil)
	}
	for _, c := range board.Opponents(actor) {
		ws.Opponents = append(ws.Opponents, state(c))
	}
	for _, c := range board.Allies(actor) {
		ws.Party = append(ws.Party, state(c))
	}
	return ws
}

// WeakestEnemy returns the enemy with the lowest current HP; ties go to the
// earliest in turn order.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	return lowestHP(ws.Opponents)
}

// StrongestEnemy returns the enemy with the highest current HP; ties go to the
// earliest in turn order.
func (ws *WorldState) StrongestEnemy() *CombatantState {
	var best *CombatantState
	for _, e := range ws.Opponents {
		if best == nil || e.HP > best.HP {
			best = e
		}
	}
	return best
}

// NearestEnemy returns the first enemy to act after Self, wrapping around the
// turn order.
func (ws *WorldState) NearestEnemy() *CombatantState {
	if len(ws.Opponents) == 0 {
		return nil
	}
	for _, e := range ws.Opponents {
		if e.Position > ws.Self.Position {
			return e
		}
	}
	return ws.Opponents[0]
}

// WeakestAlly returns the ally, Self included, with the lowest HP percentage.
func (ws *WorldState) WeakestAlly() *CombatantState {
	weakest := ws.Self
	for _, a := range ws.Party {
		if a.HPPercent() < weakest.HPPercent() {
			weakest = a
		}
	}
	return weakest
}

// ResolveTarget maps an operator target token to a combatant ID.
//
// Postcondition: returns "" when the token resolves to nobody; unknown tokens
// are returned unchanged so domains may name literal IDs.
func (ws *WorldState) ResolveTarget(token string) string {
	var c *CombatantState
	switch token {
	case "":
		return ""
	case "weakest_enemy":
		c = ws.WeakestEnemy()
	case "nearest_enemy":
		c = ws.NearestEnemy()
	case "strongest_enemy":
		c = ws.StrongestEnemy()
	case "weakest_ally":
		c = ws.WeakestAlly()
	case "self":
		c = ws.Self
	default:
		return token
	}
	if c == nil {
		return ""
	}
	return c.ID
}

// Combatant implements scripting.View.
func (ws *WorldState) Combatant(uid string) *scripting.CombatantInfo {
	if c := ws.find(uid); c != nil {
		return c.info()
	}
	return nil
}

// Enemies implements scripting.View.
func (ws *WorldState) Enemies(uid string) []*scripting.CombatantInfo {
	return ws.relative(uid, false)
}

// Allies implements scripting.View.
func (ws *WorldState) Allies(uid string) []*scripting.CombatantInfo {
	return ws.relative(uid, true)
}

// Roll implements scripting.View. It draws from the encounter's source.
func (ws *WorldState) Roll(expr string) (int, error) {
	if ws.roller == nil {
		return 0, errNoSource
	}
	res, err := ws.roller.RollExpr(expr)
	if err != nil {
		return 0, err
	}
	return res.Total(), nil
}

func (ws *WorldState) everyone() []*CombatantState {
	all := make([]*CombatantState, 0, 1+len(ws.Opponents)+len(ws.Party))
	all = append(all, ws.Self)
	all = append(all, ws.Party...)
	return append(all, ws.Opponents...)
}

func (ws *WorldState) find(uid string) *CombatantState {
	for _, c := range ws.everyone() {
		if c.ID == uid {
			return c
		}
	}
	return nil
}

func (ws *WorldState) relative(uid string, sameSide bool) []*scripting.CombatantInfo {
	self := ws.find(uid)
	if self == nil {
		return nil
	}
	var out []*scripting.CombatantInfo
	for _, c := range ws.everyone() {
		if c.ID != uid && (c.Side == self.Side) == sameSide {
			out = append(out, c.info())
		}
	}
	return out
}

func (c *CombatantState) info() *scripting.CombatantInfo {
	return &scripting.CombatantInfo{
		UID: c.ID, Name: c.Name, Side: c.Side.String(),
		HP: c.HP, MaxHP: c.MaxHP, AC: c.AC, Active: true,
	}
}

func lowestHP(cs []*CombatantState) *CombatantState {
	var best *CombatantState
	for _, c := range cs {
		if best == nil || c.HP < best.HP {
			best = c
		}
	}
	return best
}
