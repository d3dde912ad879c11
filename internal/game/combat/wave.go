package combat

// Wave is one group of monsters spawned together.
type Wave struct {
	Label      string
	Combatants []*Combatant
}

// PartyInfo describes wave progress for display. CurrentWave is 1-indexed and
// 0 before the first wave spawns.
type PartyInfo struct {
	CurrentWave int
	TotalWaves  int
}

// WaveManager tracks the ordered monster waves of an encounter.
type WaveManager struct {
	waves   []Wave
	index   int
	spawned bool
}

// NewWaveManager returns a WaveManager over waves.
func NewWaveManager(waves []Wave) *WaveManager {
	return &WaveManager{waves: waves}
}

// Info returns the current wave position.
func (w *WaveManager) Info() PartyInfo {
	info := PartyInfo{TotalWaves: len(w.waves)}
	if w.spawned {
		info.CurrentWave = w.index + 1
	}
	return info
}

// Current returns the active wave.
//
// Postcondition: returns false before the first wave is spawned.
func (w *WaveManager) Current() (Wave, bool) {
	if !w.spawned || len(w.waves) == 0 {
		return Wave{}, false
	}
	return w.waves[w.index], true
}

// Next moves to the following wave and returns it. The first call returns the
// first wave.
//
// Postcondition: returns false once the waves are exhausted; the index never
// exceeds len(waves)-1 and never decreases.
func (w *WaveManager) Next() (Wave, bool) {
	if !w.spawned {
		if len(w.waves) == 0 {
			return Wave{}, false
		}
		w.spawned = true
		return w.waves[0], true
	}
	if w.index+1 >= len(w.waves) {
		return Wave{}, false
	}
	w.index++
	return w.waves[w.index], true
}

// Remaining returns the number of waves not yet spawned.
func (w *WaveManager) Remaining() int {
	if !w.spawned {
		return len(w.waves)
	}
	return len(w.waves) - w.index - 1
}

// Cleared reports whether every monster of the current wave is no longer active.
func (w *WaveManager) Cleared() bool {
	wave, ok := w.Current()
	if !ok {
		return false
	}
	for _, c := range wave.Combatants {
		if c.IsActive() {
			return false
		}
	}
	return true
}
