// Package storage holds the persistence-neutral encounter record shared by the
// postgres and sqlite backends.
package storage

import (
	"time"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// Participant is one combatant's final state in a finished encounter.
type Participant struct {
	CombatantID string
	Name        string
	Side        string
	Fate        string // final combatant status, "disconnected" for escapees
	Experience  int
	Gold        int
}

// EncounterRecord is the persisted summary of a finished encounter.
type EncounterRecord struct {
	ID           string
	Winner       string
	Verdict      string
	Turns        int
	Waves        int
	TotalWaves   int
	Experience   int
	Gold         int
	Participants []Participant
	Loot         []combat.LootItem
	CreatedAt    time.Time
}

// NewEncounterRecord flattens a verdict and the encounter roster.
//
// Precondition: v must be non-nil.
// Postcondition: one Participant per roster entry in roster order, carrying the
// participant's reward share when it has one.
func NewEncounterRecord(v *combat.Verdict, roster []*combat.Combatant) EncounterRecord {
	shares := make(map[string]combat.Share, len(v.Rewards.Shares))
	for _, s := range v.Rewards.Shares {
		shares[s.CombatantID] = s
	}
	rec := EncounterRecord{
		ID:         v.EncounterID,
		Winner:     v.Winner.String(),
		Verdict:    v.Kind.String(),
		Turns:      v.Turns,
		Waves:      v.Waves.CurrentWave,
		TotalWaves: v.Waves.TotalWaves,
		Experience: v.Rewards.Experience,
		Gold:       v.Rewards.Gold,
		Loot:       append([]combat.LootItem(nil), v.Rewards.Loot...),
	}
	for _, c := range roster {
		s := shares[c.ID]
		rec.Participants = append(rec.Participants, Participant{
			CombatantID: c.ID,
			Name:        c.Name,
			Side:        c.Side.String(),
			Fate:        c.Status().String(),
			Experience:  s.Experience,
			Gold:        s.Gold,
		})
	}
	return rec
}
