package combat

import "github.com/cory-johannsen/encounter/internal/game/dice"

// Share is one player's portion of the rewards.
type Share struct {
	CombatantID string
	Experience  int
	Gold        int
}

// Rewards is the finalized reward pool of an encounter.
type Rewards struct {
	Experience int
	Gold       int
	Loot       []LootItem
	Shares     []Share
}

// rewardPool accumulates bounties as waves are cleared.
type rewardPool struct {
	experience int
	gold       int
	loot       []LootItem
}

// collect adds the bounties of the monsters in wave that died. Monsters that fled
// yield nothing.
func (p *rewardPool) collect(wave Wave, src dice.Source) {
	for _, c := range wave.Combatants {
		if c.Status() != StatusDead {
			continue
		}
		p.experience += c.Bounty.Experience
		p.gold += c.Bounty.Gold
		if c.Bounty.Loot != nil {
			p.loot = append(p.loot, c.Bounty.Loot.RollLoot(src)...)
		}
	}
}

// finalize builds Rewards, splitting experience and gold evenly among recipients.
//
// Postcondition: with no recipients Shares is empty. Remainders go to the
// earliest recipients so shares always sum to the pool.
func (p *rewardPool) finalize(recipients []*Combatant) Rewards {
	r := Rewards{
		Experience: p.experience,
		Gold:       p.gold,
		Loot:       append([]LootItem(nil), p.loot...),
	}
	n := len(recipients)
	if n == 0 {
		return r
	}
	r.Shares = make([]Share, n)
	for i, c := range recipients {
		r.Shares[i] = Share{
			CombatantID: c.ID,
			Experience:  splitShare(p.experience, n, i),
			Gold:        splitShare(p.gold, n, i),
		}
	}
	return r
}

func splitShare(total, n, i int) int {
	s := total / n
	if i < total%n {
		s++
	}
	return s
}
