package content

import "fmt"

// SpawnDef asks for Count monsters of Template.
type SpawnDef struct {
	Template string `yaml:"template"`
	Count    int    `yaml:"count"`
}

// WaveDef is one wave of an encounter definition.
type WaveDef struct {
	Label    string     `yaml:"label"`
	Monsters []SpawnDef `yaml:"monsters"`
}

// EncounterDef is an ordered list of monster waves.
type EncounterDef struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Waves []WaveDef `yaml:"waves"`
}

// Validate checks the definition's shape. Template references are checked by
// the Library once all monsters are loaded.
func (e *EncounterDef) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("encounter: id must not be empty")
	}
	if len(e.Waves) == 0 {
		return fmt.Errorf("encounter %q: at least one wave is required", e.ID)
	}
	for i, w := range e.Waves {
		if len(w.Monsters) == 0 {
			return fmt.Errorf("encounter %q: wave[%d] has no monsters", e.ID, i)
		}
		for j, s := range w.Monsters {
			if s.Template == "" {
				return fmt.Errorf("encounter %q: wave[%d] monster[%d] template must not be empty", e.ID, i, j)
			}
			if s.Count < 1 {
				return fmt.Errorf("encounter %q: wave[%d] monster[%d] count must be >= 1", e.ID, i, j)
			}
		}
	}
	return nil
}
