package encounterserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/content"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// maxSrc always rolls the highest face.
type maxSrc struct{}

func (maxSrc) Intn(n int) int { return n - 1 }

func testEngine() config.EngineConfig {
	return config.EngineConfig{
		AutoRunAI:             true,
		RollInitiative:        false,
		PlayerDeathThreshold:  -10,
		MonsterDeathThreshold: 0,
		DefendACBonus:         2,
		MaxAIChain:            64,
		EscapeBase:            50,
		EscapeStep:            5,
		EscapeMin:             5,
		EscapeMax:             95,
		SessionRetention:      time.Minute,
	}
}

func testLibrary(t *testing.T) *content.Library {
	t.Helper()
	lib, err := content.NewLibrary(
		[]*content.MonsterTemplate{
			{ID: "dummy", Name: "Dummy", Level: 1, MaxHP: 1, AC: 10, Experience: 10},
			{ID: "wall", Name: "Wall", Level: 1, MaxHP: 500, AC: 30},
		},
		nil,
		[]*content.EncounterDef{
			{ID: "duel", Waves: []content.WaveDef{{Monsters: []content.SpawnDef{{Template: "dummy", Count: 1}}}}},
			{ID: "siege", Waves: []content.WaveDef{{Monsters: []content.SpawnDef{{Template: "wall", Count: 1}}}}},
		},
		[]*content.PartyDef{
			{ID: "solo", Members: []content.MemberDef{{Name: "Solo", HitDie: 10,
				Abilities: character.AbilityScores{Strength: 10, Dexterity: 10, Constitution: 10}}}},
		},
	)
	require.NoError(t, err)
	return lib
}

func hero(id int64) *character.Character {
	return &character.Character{
		ID: id, Name: "Hero", Level: 1, MaxHP: 10, CurrentHP: 10, AC: 10,
		Abilities: character.AbilityScores{Strength: 10, Dexterity: 10},
		Status:    character.StatusActive,
	}
}

type fakeSaver struct {
	mu    sync.Mutex
	saved [][]*character.Character
}

func (f *fakeSaver) SaveOutcome(_ context.Context, chars []*character.Character) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, chars)
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	verdicts []*combat.Verdict
	rosters  [][]*combat.Combatant
}

func (f *fakeSink) Record(_ context.Context, v *combat.Verdict, roster []*combat.Combatant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts = append(f.verdicts, v)
	f.rosters = append(f.rosters, roster)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verdicts)
}

func newManager(t *testing.T, mutate func(*Options)) *SessionManager {
	t.Helper()
	opts := Options{
		Library:   testLibrary(t),
		Engine:    testEngine(),
		NewSource: func() dice.Source { return maxSrc{} },
	}
	if mutate != nil {
		mutate(&opts)
	}
	m := NewSessionManager(opts)
	t.Cleanup(m.Close)
	return m
}

func monsterID(t *testing.T, s *Session) string {
	t.Helper()
	for _, c := range s.Snapshot().Order {
		if c.Side == combat.SideMonster.String() {
			return c.ID
		}
	}
	t.Fatal("no monster in turn order")
	return ""
}

const eventually = 2 * time.Second
