package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/content"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

const goblinYAML = `
id: goblin
name: Goblin
level: 1
max_hp: 7
ac: 12
attack_bonus: 1
agility: 14
weapon:
  name: rusty knife
  dice: 1d4
ai_domain: brute
experience: 25
loot:
  currency:
    min: 3
    max: 3
  items:
    - item: ear
      chance: 1.0
      min_qty: 2
      max_qty: 2
`

const boltYAML = `
id: bolt
name: Firebolt
kind: spell
target: enemy
damage: 2d6
`

const potionYAML = `
id: potion
name: Healing Potion
kind: item
target: self
healing: 2d4+2
`

const ambushYAML = `
id: ambush
name: Goblin Ambush
waves:
  - label: scouts
    monsters:
      - template: goblin
        count: 2
  - monsters:
      - template: goblin
        count: 1
`

const heroesYAML = `
id: heroes
name: The Heroes
members:
  - name: Aria
    class: fighter
    hit_die: 10
    level: 2
    abilities:
      strength: 16
      dexterity: 12
      constitution: 14
    weapon:
      name: sword
      dice: 1d8
  - name: Bram
    class: cleric
    hit_die: 8
    ac: 16
`

type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func contentRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, content.MonstersDir), "goblin.yaml", goblinYAML)
	writeFile(t, filepath.Join(root, content.AbilitiesDir), "bolt.yaml", boltYAML)
	writeFile(t, filepath.Join(root, content.AbilitiesDir), "potion.yml", potionYAML)
	writeFile(t, filepath.Join(root, content.AbilitiesDir), "README.md", "ignored")
	writeFile(t, filepath.Join(root, content.EncountersDir), "ambush.yaml", ambushYAML)
	writeFile(t, filepath.Join(root, content.PartiesDir), "heroes.yaml", heroesYAML)
	return root
}

func TestLoadDir(t *testing.T) {
	lib, err := content.LoadDir(contentRoot(t))
	require.NoError(t, err)

	m, ok := lib.Monster("goblin")
	require.True(t, ok)
	assert.Equal(t, "Goblin", m.Name)
	_, ok = lib.Encounter("ambush")
	assert.True(t, ok)
	_, ok = lib.Party("heroes")
	assert.True(t, ok)
	assert.Equal(t, []string{"ambush"}, lib.EncounterIDs())
	assert.Equal(t, []string{"brute"}, lib.Tactics())

	_, ok = lib.Spells().Ability("bolt")
	assert.True(t, ok)
	_, ok = lib.Spells().Ability("potion")
	assert.False(t, ok)
	_, ok = lib.Items().Ability("potion")
	assert.True(t, ok)
}

func TestLoadDir_MissingSubdirsAreEmpty(t *testing.T) {
	lib, err := content.LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, lib.EncounterIDs())
}

func TestLoadDir_UnknownTemplate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, content.EncountersDir), "ambush.yaml", ambushYAML)
	_, err := content.LoadDir(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template")
}

func TestLoadDir_InvalidFileNamesPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, content.MonstersDir), "bad.yaml", "id: bad\nname: Bad\nlevel: 0\nmax_hp: 1\nac: 10\n")
	_, err := content.LoadDir(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestNewLibrary_Duplicates(t *testing.T) {
	m := &content.MonsterTemplate{ID: "x"}
	_, err := content.NewLibrary([]*content.MonsterTemplate{m, m}, nil, nil, nil)
	assert.Error(t, err)
}

func TestMonsterTemplate_Validate(t *testing.T) {
	base := func() content.MonsterTemplate {
		return content.MonsterTemplate{ID: "m", Name: "M", Level: 1, MaxHP: 5, AC: 10}
	}
	ok := base()
	require.NoError(t, ok.Validate())

	cases := map[string]func(*content.MonsterTemplate){
		"no id":      func(m *content.MonsterTemplate) { m.ID = "" },
		"no name":    func(m *content.MonsterTemplate) { m.Name = "" },
		"level":      func(m *content.MonsterTemplate) { m.Level = 0 },
		"hp":         func(m *content.MonsterTemplate) { m.MaxHP = 0 },
		"ac":         func(m *content.MonsterTemplate) { m.AC = 9 },
		"experience": func(m *content.MonsterTemplate) { m.Experience = -1 },
		"weapon":     func(m *content.MonsterTemplate) { m.Weapon = &content.WeaponDef{Name: "x", Dice: "d"} },
		"loot": func(m *content.MonsterTemplate) {
			m.Loot = &content.LootTable{Currency: &content.CurrencyDrop{Min: 5, Max: 1}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := base()
			mutate(&m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestLootTable_Validate(t *testing.T) {
	bad := []content.LootTable{
		{Currency: &content.CurrencyDrop{Min: -1, Max: 1}},
		{Items: []content.ItemDrop{{ItemID: "", Chance: 0.5, MinQty: 1, MaxQty: 1}}},
		{Items: []content.ItemDrop{{ItemID: "a", Chance: 0, MinQty: 1, MaxQty: 1}}},
		{Items: []content.ItemDrop{{ItemID: "a", Chance: 1.5, MinQty: 1, MaxQty: 1}}},
		{Items: []content.ItemDrop{{ItemID: "a", Chance: 0.5, MinQty: 0, MaxQty: 1}}},
		{Items: []content.ItemDrop{{ItemID: "a", Chance: 0.5, MinQty: 3, MaxQty: 1}}},
	}
	for i, lt := range bad {
		assert.Error(t, lt.Validate(), "case %d", i)
	}
	empty := content.LootTable{}
	assert.NoError(t, empty.Validate())

	multi := content.LootTable{Items: []content.ItemDrop{
		{ItemID: "ear", Chance: 2, MinQty: 1, MaxQty: 1},
		{ItemID: "tooth", Chance: 0.5, MinQty: 2, MaxQty: 1},
	}}
	err := multi.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drop ear")
	assert.Contains(t, err.Error(), "drop tooth")
}

func TestLootTable_RollLoot(t *testing.T) {
	lt := &content.LootTable{Items: []content.ItemDrop{
		{ItemID: "always", Chance: 1.0, MinQty: 1, MaxQty: 3},
		{ItemID: "rare", Chance: 0.01, MinQty: 1, MaxQty: 1},
	}}
	items := lt.RollLoot(fixedSrc{v: 500})
	require.Len(t, items, 1)
	assert.Equal(t, "always", items[0].ItemID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.NotEmpty(t, items[0].InstanceID)

	items = lt.RollLoot(fixedSrc{v: 0})
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].InstanceID, items[1].InstanceID)
}

func TestProperty_LootQuantityInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minQty := rapid.IntRange(1, 5).Draw(rt, "min")
		maxQty := rapid.IntRange(minQty, 10).Draw(rt, "max")
		lt := &content.LootTable{Items: []content.ItemDrop{{ItemID: "x", Chance: 1.0, MinQty: minQty, MaxQty: maxQty}}}
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		for _, it := range lt.RollLoot(src) {
			if it.Quantity < minQty || it.Quantity > maxQty {
				rt.Fatalf("quantity %d outside [%d,%d]", it.Quantity, minQty, maxQty)
			}
		}
	})
}

func TestSpawn(t *testing.T) {
	lib, err := content.LoadDir(contentRoot(t))
	require.NoError(t, err)
	tmpl, _ := lib.Monster("goblin")

	a := tmpl.Spawn(fixedSrc{})
	b := tmpl.Spawn(fixedSrc{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, combat.SideMonster, a.Side)
	assert.Equal(t, combat.ControllerAI, a.Controller)
	assert.Equal(t, 7, a.CurrentHP)
	assert.Equal(t, 2, a.DexMod)
	assert.Equal(t, "brute", a.Tactics)
	assert.Equal(t, 25, a.Bounty.Experience)
	assert.Equal(t, 3, a.Bounty.Gold)
	require.NotNil(t, a.Bounty.Loot)
	require.NotNil(t, a.Weapon)
	assert.Equal(t, "1d4", a.Weapon.DamageDice())
}

func TestBuildWaves(t *testing.T) {
	lib, err := content.LoadDir(contentRoot(t))
	require.NoError(t, err)

	waves, err := lib.BuildWaves("ambush", fixedSrc{})
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Equal(t, "scouts", waves[0].Label)
	assert.Len(t, waves[0].Combatants, 2)
	assert.Equal(t, "wave 2", waves[1].Label)
	assert.Len(t, waves[1].Combatants, 1)

	_, err = lib.BuildWaves("nope", fixedSrc{})
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestEncounterDef_Validate(t *testing.T) {
	assert.Error(t, (&content.EncounterDef{}).Validate())
	assert.Error(t, (&content.EncounterDef{ID: "e"}).Validate())
	assert.Error(t, (&content.EncounterDef{ID: "e", Waves: []content.WaveDef{{}}}).Validate())
	assert.Error(t, (&content.EncounterDef{ID: "e", Waves: []content.WaveDef{{Monsters: []content.SpawnDef{{Template: "g"}}}}}).Validate())
}

func TestAbilityDef(t *testing.T) {
	bolt, err := content.Parse[content.AbilityDef]([]byte(boltYAML))
	require.NoError(t, err)
	ab := bolt.Ability()
	assert.Equal(t, "bolt", ab.ID())
	assert.Equal(t, "Firebolt", ab.Name())
	assert.Equal(t, combat.TargetEnemy, ab.Targeting())

	targets := []*combat.Combatant{{ID: "a"}, {ID: "b"}}
	impacts := ab.Resolve(&combat.Combatant{ID: "u"}, targets, fixedSrc{v: 5})
	require.Len(t, impacts, 2)
	assert.Equal(t, combat.Impact{TargetID: "a", Damage: 12}, impacts[0])

	potion, err := content.Parse[content.AbilityDef]([]byte(potionYAML))
	require.NoError(t, err)
	impacts = potion.Ability().Resolve(nil, []*combat.Combatant{{ID: "u"}}, fixedSrc{v: 0})
	assert.Equal(t, combat.Impact{TargetID: "u", Healing: 4}, impacts[0])
}

func TestAbilityDef_Validate(t *testing.T) {
	bad := []content.AbilityDef{
		{Name: "x", Kind: "spell", Target: "enemy", Damage: "1d6"},
		{ID: "x", Kind: "spell", Target: "enemy", Damage: "1d6"},
		{ID: "x", Name: "x", Kind: "prayer", Target: "enemy", Damage: "1d6"},
		{ID: "x", Name: "x", Kind: "spell", Target: "everyone", Damage: "1d6"},
		{ID: "x", Name: "x", Kind: "spell", Target: "enemy"},
		{ID: "x", Name: "x", Kind: "spell", Target: "enemy", Healing: "zz"},
	}
	for i, d := range bad {
		assert.Error(t, d.Validate(), "case %d", i)
	}
}

func TestPartyDef(t *testing.T) {
	lib, err := content.LoadDir(contentRoot(t))
	require.NoError(t, err)
	p, _ := lib.Party("heroes")
	chars, err := p.Characters()
	require.NoError(t, err)
	require.Len(t, chars, 2)

	aria := chars[0]
	assert.Equal(t, 2, aria.Level)
	assert.Equal(t, 12, aria.MaxHP)
	assert.Equal(t, 11, aria.AC)
	assert.Equal(t, "1d8", aria.WeaponDice)
	assert.Equal(t, 16, chars[1].AC)

	dup := &content.PartyDef{ID: "d", Members: []content.MemberDef{{Name: "A", HitDie: 6}, {Name: "A", HitDie: 6}}}
	assert.Error(t, dup.Validate())
	assert.Error(t, (&content.PartyDef{ID: "e"}).Validate())
	assert.Error(t, (&content.PartyDef{ID: "h", Members: []content.MemberDef{{Name: "A"}}}).Validate())
}
