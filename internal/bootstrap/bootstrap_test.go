package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/encounter/internal/bootstrap"
	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

func shippedContent() config.ContentConfig {
	root := filepath.Join("..", "..", "content")
	return config.ContentConfig{
		Root:             root,
		AIDomains:        filepath.Join(root, "ai"),
		AIScripts:        filepath.Join(root, "scripts"),
		InstructionLimit: 100000,
	}
}

func TestLoad_ShippedContent(t *testing.T) {
	eng, err := bootstrap.Load(shippedContent(), nil)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	assert.Equal(t, []string{"goblin_ambush", "orc_raid"}, eng.Library.EncounterIDs())
	assert.Equal(t, []string{"brute", "caster"}, eng.Registry.Domains())
	assert.Empty(t, eng.Registry.Unknown(eng.Library.Tactics()))
	assert.True(t, eng.Scripts.HasScope("brute"))
	assert.True(t, eng.Scripts.HasScope("caster"))

	_, ok := eng.Library.Party("heroes")
	assert.True(t, ok)
}

func TestLoad_ShippedEncounterRuns(t *testing.T) {
	src := dice.NewSeededSource(42)
	eng, err := bootstrap.Load(shippedContent(), nil)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	party, ok := eng.Library.Party("heroes")
	require.True(t, ok)
	chars, err := party.Characters()
	require.NoError(t, err)
	var players []*combat.Combatant
	for _, ch := range chars {
		c := ch.Combatant()
		c.Controller = combat.ControllerAI
		players = append(players, c)
	}
	waves, err := eng.Library.BuildWaves("goblin_ambush", src)
	require.NoError(t, err)

	enc, err := combat.New(combat.Options{
		Players:   players,
		Waves:     waves,
		Source:    src,
		Decider:   eng.Decider,
		Spells:    eng.Library.Spells(),
		Items:     eng.Library.Items(),
		AutoRunAI: true,
	})
	require.NoError(t, err)
	ctx := context.Background()
	res := enc.Start(ctx)
	require.True(t, res.Success, res.Message)
	for i := 0; i < 10000 && enc.IsActive(); i++ {
		enc.RunAITurn(ctx)
	}
	v, ended := enc.Verdict()
	require.True(t, ended)
	assert.NotEmpty(t, v.Kind.String())
}

func TestLoad_WithoutAI(t *testing.T) {
	cfg := shippedContent()
	cfg.AIDomains = filepath.Join(t.TempDir(), "missing")
	cfg.AIScripts = ""

	eng, err := bootstrap.Load(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	assert.Equal(t, 0, eng.Registry.Len())
	assert.NotNil(t, eng.Decider)
}

func TestLoad_EmptyRoot(t *testing.T) {
	cfg := shippedContent()
	cfg.Root = t.TempDir()
	eng, err := bootstrap.Load(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	assert.Empty(t, eng.Library.EncounterIDs())
}

func TestLoad_BadScript(t *testing.T) {
	cfg := shippedContent()
	scripts := t.TempDir()
	dir := filepath.Join(scripts, "brute")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte("function ("), 0o644))
	cfg.AIScripts = scripts

	_, err := bootstrap.Load(cfg, nil)
	assert.ErrorContains(t, err, "broken.lua")
}

func TestSessionSources(t *testing.T) {
	next := bootstrap.SessionSources(10)
	first := next().(*dice.SeededSource)
	second := next().(*dice.SeededSource)
	assert.Equal(t, int64(10), first.Seed())
	assert.Equal(t, int64(11), second.Seed())

	assert.NotNil(t, bootstrap.SessionSources(0)())
}
