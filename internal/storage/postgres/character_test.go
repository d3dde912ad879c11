package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/storage/postgres"
	"github.com/cory-johannsen/encounter/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makeTestCharacter(name string) *character.Character {
	return &character.Character{
		Name:  name,
		Class: "fighter",
		Level: 1,
		Abilities: character.AbilityScores{
			Strength: 14, Dexterity: 12, Constitution: 10,
			Intelligence: 10, Wisdom: 8, Charisma: 12,
		},
		MaxHP:      10,
		CurrentHP:  10,
		AC:         12,
		WeaponName: "sword",
		WeaponDice: "1d8",
	}
}

func TestCharacterRepository_CreateAndGet(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter("Zara"))
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, character.StatusActive, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zara", got.Name)
	assert.Equal(t, 14, got.Abilities.Strength)
	assert.Equal(t, "1d8", got.WeaponDice)

	_, err = repo.Create(ctx, makeTestCharacter("Zara"))
	assert.ErrorIs(t, err, postgres.ErrCharacterNameTaken)

	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_LoadPartyPreservesOrder(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, makeTestCharacter(uniqueName("a")))
	require.NoError(t, err)
	b, err := repo.Create(ctx, makeTestCharacter(uniqueName("b")))
	require.NoError(t, err)

	party, err := repo.LoadParty(ctx, []int64{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, party, 2)
	assert.Equal(t, b.ID, party[0].ID)
	assert.Equal(t, a.ID, party[1].ID)

	_, err = repo.LoadParty(ctx, []int64{a.ID, 424242})
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_SaveOutcome(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	c, err := repo.Create(ctx, makeTestCharacter(uniqueName("hero")))
	require.NoError(t, err)
	c.Experience = 120
	c.Gold = 7
	c.CurrentHP = 0
	c.Status = character.StatusUnconscious
	require.NoError(t, repo.SaveOutcome(ctx, []*character.Character{c}))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Experience)
	assert.Equal(t, 7, got.Gold)
	assert.Equal(t, 0, got.CurrentHP)
	assert.Equal(t, character.StatusUnconscious, got.Status)
}

func TestCharacterRepository_SaveOutcomeIsAtomic(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	c, err := repo.Create(ctx, makeTestCharacter(uniqueName("hero")))
	require.NoError(t, err)
	c.Gold = 99
	ghost := makeTestCharacter("ghost")
	ghost.ID = 777777

	err = repo.SaveOutcome(ctx, []*character.Character{c, ghost})
	require.ErrorIs(t, err, postgres.ErrCharacterNotFound)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Gold)
}

func TestProperty_CharacterRoundTrip(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		c := makeTestCharacter(uniqueName("p"))
		c.Level = rapid.IntRange(1, 20).Draw(rt, "level")
		c.MaxHP = rapid.IntRange(1, 200).Draw(rt, "maxHP")
		c.CurrentHP = rapid.IntRange(0, c.MaxHP).Draw(rt, "currentHP")
		created, err := repo.Create(ctx, c)
		if err != nil {
			rt.Fatal(err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			rt.Fatal(err)
		}
		if got.Level != c.Level || got.MaxHP != c.MaxHP || got.CurrentHP != c.CurrentHP {
			rt.Fatalf("round trip mismatch: %+v vs %+v", got, c)
		}
	})
}
