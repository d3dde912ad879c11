// Package simulate plays encounters to completion with every combatant under AI
// control and summarizes the outcomes.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/content"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// DefaultMaxTurns bounds a single run.
const DefaultMaxTurns = 2000

// ErrUnfinished is returned when a run exceeds its turn budget.
var ErrUnfinished = errors.New("encounter did not finish")

// Recorder stores a finished encounter.
type Recorder interface {
	Record(ctx context.Context, v *combat.Verdict, roster []*combat.Combatant) error
}

// Request selects what to simulate.
type Request struct {
	Encounter string
	Party     string
	Runs      int
	// Seed fixes run i to seed+i; 0 uses the crypto source.
	Seed     int64
	MaxTurns int
}

// RunResult summarizes one run.
type RunResult struct {
	Run          int    `yaml:"run"`
	Seed         int64  `yaml:"seed,omitempty"`
	Verdict      string `yaml:"verdict"`
	Winner       string `yaml:"winner"`
	Turns        int    `yaml:"turns"`
	Waves        int    `yaml:"waves_reached"`
	Experience   int    `yaml:"experience"`
	Gold         int    `yaml:"gold"`
	Loot         int    `yaml:"loot_items"`
	Casualties   int    `yaml:"casualties"`
	Escapees     int    `yaml:"escapees"`
	FledMonsters int    `yaml:"fled_monsters"`
}

// Report aggregates all runs of a Request.
type Report struct {
	Encounter string         `yaml:"encounter"`
	Party     string         `yaml:"party"`
	Runs      []RunResult    `yaml:"runs"`
	Verdicts  map[string]int `yaml:"verdicts"`
	WinRate   float64        `yaml:"win_rate"`
	MeanTurns float64        `yaml:"mean_turns"`
}

// Simulator runs encounters from a content library.
type Simulator struct {
	library  *content.Library
	decider  combat.Decider
	engine   config.EngineConfig
	recorder Recorder
	logger   *zap.Logger
}

// New returns a Simulator. recorder may be nil.
func New(library *content.Library, decider combat.Decider, engine config.EngineConfig, recorder Recorder, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{library: library, decider: decider, engine: engine, recorder: recorder, logger: logger}
}

// Run plays req.Runs encounters sequentially.
//
// Precondition: req.Runs >= 1.
// Postcondition: on error the report holds the runs completed so far.
func (s *Simulator) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", req.Runs)
	}
	if req.MaxTurns <= 0 {
		req.MaxTurns = DefaultMaxTurns
	}
	if _, ok := s.library.Encounter(req.Encounter); !ok {
		return nil, fmt.Errorf("encounter %q: %w", req.Encounter, content.ErrNotFound)
	}
	party, ok := s.library.Party(req.Party)
	if !ok {
		return nil, fmt.Errorf("party %q: %w", req.Party, content.ErrNotFound)
	}

	rep := &Report{Encounter: req.Encounter, Party: req.Party, Verdicts: make(map[string]int)}
	for i := 0; i < req.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		var src dice.Source = dice.NewCryptoSource()
		seed := int64(0)
		if req.Seed != 0 {
			seed = req.Seed + int64(i)
			src = dice.NewSeededSource(seed)
		}
		res, err := s.runOnce(ctx, req, party, src)
		if err != nil {
			return rep, fmt.Errorf("run %d: %w", i, err)
		}
		res.Run, res.Seed = i, seed
		rep.add(res)
	}
	return rep, nil
}

func (s *Simulator) runOnce(ctx context.Context, req Request, party *content.PartyDef, src dice.Source) (RunResult, error) {
	chars, err := party.Characters()
	if err != nil {
		return RunResult{}, err
	}
	var players []*combat.Combatant
	for _, ch := range chars {
		c := ch.Combatant()
		c.Controller = combat.ControllerAI
		players = append(players, c)
	}
	waves, err := s.library.BuildWaves(req.Encounter, src)
	if err != nil {
		return RunResult{}, err
	}

	enc, err := combat.New(combat.Options{
		Players: players,
		Waves:   waves,
		Rules:   s.engine.Rules(),
		Source:  src,
		Escape:  s.engine.Escape(),
		Decider: s.decider,
		Spells:  s.library.Spells(),
		Items:   s.library.Items(),
		Logger:  s.logger,
	})
	if err != nil {
		return RunResult{}, err
	}
	if res := enc.Start(ctx); res.Rejected {
		return RunResult{}, res.Err
	}
	for enc.IsActive() && enc.Turn() < req.MaxTurns {
		if res := enc.RunAITurn(ctx); res.Rejected {
			return RunResult{}, res.Err
		}
	}
	v, ok := enc.Verdict()
	if !ok {
		return RunResult{}, fmt.Errorf("%w after %d turns", ErrUnfinished, enc.Turn())
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, v, enc.Roster()); err != nil {
			s.logger.Warn("recording simulated encounter", zap.String("encounter_id", v.EncounterID), zap.Error(err))
		}
	}
	return RunResult{
		Verdict:      v.Kind.String(),
		Winner:       v.Winner.String(),
		Turns:        v.Turns,
		Waves:        v.Waves.CurrentWave,
		Experience:   v.Rewards.Experience,
		Gold:         v.Rewards.Gold,
		Loot:         len(v.Rewards.Loot),
		Casualties:   len(v.Casualties),
		Escapees:     len(v.Escapees),
		FledMonsters: len(v.Fled),
	}, nil
}

func (r *Report) add(res RunResult) {
	n := float64(len(r.Runs))
	r.Runs = append(r.Runs, res)
	r.Verdicts[res.Verdict]++
	r.MeanTurns = (r.MeanTurns*n + float64(res.Turns)) / (n + 1)

	wins := 0
	for _, run := range r.Runs {
		if run.Winner == combat.SidePlayer.String() {
			wins++
		}
	}
	r.WinRate = float64(wins) / float64(len(r.Runs))
}

// VerdictKinds returns the verdict labels seen, sorted.
func (r *Report) VerdictKinds() []string {
	out := make([]string, 0, len(r.Verdicts))
	for k := range r.Verdicts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
