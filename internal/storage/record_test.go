package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/storage"
)

func TestNewEncounterRecord(t *testing.T) {
	hero := &combat.Combatant{ID: "1", Name: "Hero", Side: combat.SidePlayer}
	orc := &combat.Combatant{ID: "o", Name: "Orc", Side: combat.SideMonster}
	v := &combat.Verdict{
		EncounterID: "enc",
		Winner:      combat.SidePlayer,
		Kind:        combat.VerdictVictory,
		Turns:       7,
		Waves:       combat.PartyInfo{CurrentWave: 2, TotalWaves: 2},
		Rewards: combat.Rewards{
			Experience: 50, Gold: 10,
			Loot:   []combat.LootItem{{ItemID: "tusk", InstanceID: "i1", Quantity: 1}},
			Shares: []combat.Share{{CombatantID: "1", Experience: 50, Gold: 10}},
		},
	}

	rec := storage.NewEncounterRecord(v, []*combat.Combatant{hero, orc})
	assert.Equal(t, "enc", rec.ID)
	assert.Equal(t, "player", rec.Winner)
	assert.Equal(t, "victory", rec.Verdict)
	assert.Equal(t, 2, rec.Waves)
	require.Len(t, rec.Participants, 2)
	assert.Equal(t, storage.Participant{CombatantID: "1", Name: "Hero", Side: "player", Fate: "active", Experience: 50, Gold: 10}, rec.Participants[0])
	assert.Equal(t, "monster", rec.Participants[1].Side)
	assert.Zero(t, rec.Participants[1].Experience)
	require.Len(t, rec.Loot, 1)
}
