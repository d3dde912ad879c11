package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// Subdirectories of a content root read by LoadDir.
const (
	MonstersDir   = "monsters"
	AbilitiesDir  = "abilities"
	EncountersDir = "encounters"
	PartiesDir    = "parties"
)

// ErrNotFound is returned when a content ID is not in the library.
var ErrNotFound = errors.New("content not found")

// Library is an immutable registry of loaded content.
type Library struct {
	monsters   map[string]*MonsterTemplate
	abilities  map[string]*AbilityDef
	encounters map[string]*EncounterDef
	parties    map[string]*PartyDef
}

// NewLibrary indexes the given definitions and cross-checks encounter template
// references.
//
// Precondition: every definition must have passed Validate().
// Postcondition: Returns an error on duplicate IDs or an encounter naming an
// unknown template.
func NewLibrary(monsters []*MonsterTemplate, abilities []*AbilityDef, encounters []*EncounterDef, parties []*PartyDef) (*Library, error) {
	l := &Library{
		monsters:   make(map[string]*MonsterTemplate, len(monsters)),
		abilities:  make(map[string]*AbilityDef, len(abilities)),
		encounters: make(map[string]*EncounterDef, len(encounters)),
		parties:    make(map[string]*PartyDef, len(parties)),
	}
	for _, m := range monsters {
		if _, dup := l.monsters[m.ID]; dup {
			return nil, fmt.Errorf("duplicate monster template %q", m.ID)
		}
		l.monsters[m.ID] = m
	}
	for _, a := range abilities {
		if _, dup := l.abilities[a.ID]; dup {
			return nil, fmt.Errorf("duplicate ability %q", a.ID)
		}
		l.abilities[a.ID] = a
	}
	for _, e := range encounters {
		if _, dup := l.encounters[e.ID]; dup {
			return nil, fmt.Errorf("duplicate encounter %q", e.ID)
		}
		for i, w := range e.Waves {
			for _, s := range w.Monsters {
				if _, ok := l.monsters[s.Template]; !ok {
					return nil, fmt.Errorf("encounter %q: wave[%d] references unknown template %q", e.ID, i, s.Template)
				}
			}
		}
		l.encounters[e.ID] = e
	}
	for _, p := range parties {
		if _, dup := l.parties[p.ID]; dup {
			return nil, fmt.Errorf("duplicate party %q", p.ID)
		}
		l.parties[p.ID] = p
	}
	return l, nil
}

// LoadDir loads all content under root. Missing subdirectories are treated as
// empty.
//
// Precondition: root must be a readable directory.
// Postcondition: Returns the library or the first load, validate or
// cross-reference error.
func LoadDir(root string) (*Library, error) {
	monsters, err := loadAll[MonsterTemplate](filepath.Join(root, MonstersDir))
	if err != nil {
		return nil, err
	}
	abilities, err := loadAll[AbilityDef](filepath.Join(root, AbilitiesDir))
	if err != nil {
		return nil, err
	}
	encounters, err := loadAll[EncounterDef](filepath.Join(root, EncountersDir))
	if err != nil {
		return nil, err
	}
	parties, err := loadAll[PartyDef](filepath.Join(root, PartiesDir))
	if err != nil {
		return nil, err
	}
	return NewLibrary(monsters, abilities, encounters, parties)
}

type validator interface{ Validate() error }

// Parse decodes and validates a single definition from YAML bytes.
func Parse[T any, PT interface {
	*T
	validator
}](data []byte) (*T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := PT(&v).Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func loadAll[T any, PT interface {
	*T
	validator
}](dir string) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}

	var out []*T
	for _, entry := range entries {
		if entry.IsDir() || !(strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		v, err := Parse[T, PT](data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Monster returns the template with id.
func (l *Library) Monster(id string) (*MonsterTemplate, bool) {
	m, ok := l.monsters[id]
	return m, ok
}

// Encounter returns the encounter definition with id.
func (l *Library) Encounter(id string) (*EncounterDef, bool) {
	e, ok := l.encounters[id]
	return e, ok
}

// Party returns the party definition with id.
func (l *Library) Party(id string) (*PartyDef, bool) {
	p, ok := l.parties[id]
	return p, ok
}

// Tactics returns the distinct AI domains named by monster templates, sorted.
func (l *Library) Tactics() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range l.monsters {
		if m.AIDomain != "" && !seen[m.AIDomain] {
			seen[m.AIDomain] = true
			out = append(out, m.AIDomain)
		}
	}
	sort.Strings(out)
	return out
}

// EncounterIDs returns all encounter IDs in sorted order.
func (l *Library) EncounterIDs() []string {
	ids := make([]string, 0, len(l.encounters))
	for id := range l.encounters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Spells returns the spell book as a combat.AbilityBook.
func (l *Library) Spells() combat.AbilityMap { return l.book(KindSpell) }

// Items returns the consumable items as a combat.AbilityBook.
func (l *Library) Items() combat.AbilityMap { return l.book(KindItem) }

func (l *Library) book(kind string) combat.AbilityMap {
	m := combat.AbilityMap{}
	for id, a := range l.abilities {
		if a.Kind == kind {
			m[id] = a.Ability()
		}
	}
	return m
}

// BuildWaves spawns fresh monsters for every wave of the encounter.
//
// Postcondition: Returns one combat.Wave per definition wave in order, or an
// error wrapping ErrNotFound for an unknown encounter.
func (l *Library) BuildWaves(encounterID string, src dice.Source) ([]combat.Wave, error) {
	def, ok := l.encounters[encounterID]
	if !ok {
		return nil, fmt.Errorf("encounter %q: %w", encounterID, ErrNotFound)
	}
	waves := make([]combat.Wave, 0, len(def.Waves))
	for i, w := range def.Waves {
		label := w.Label
		if label == "" {
			label = fmt.Sprintf("wave %d", i+1)
		}
		wave := combat.Wave{Label: label}
		for _, s := range w.Monsters {
			tmpl := l.monsters[s.Template]
			for n := 0; n < s.Count; n++ {
				wave.Combatants = append(wave.Combatants, tmpl.Spawn(src))
			}
		}
		waves = append(waves, wave)
	}
	return waves, nil
}
