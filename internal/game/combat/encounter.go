package combat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

const (
	stateNotStarted = "not_started"
	stateActive     = "active"
	stateEnded      = "ended"

	eventStart = "start"
	eventEnd   = "end"
)

// Options configures a new Encounter.
type Options struct {
	// ID identifies the encounter; a UUID is generated when empty.
	ID      string
	Players []*Combatant
	Waves   []Wave
	Rules   Rules
	// Source is the single randomness source for the encounter. Defaults to a crypto source.
	Source  dice.Source
	Escape  EscapePolicy
	Decider Decider
	Spells  AbilityBook
	Items   AbilityBook
	// AutoRunAI resolves AI-controlled turns inside ProcessAction and Start until a
	// human-controlled actor is current or the encounter ends. When false callers
	// drive AI turns with RunAITurn.
	AutoRunAI bool
	Logger    *zap.Logger
}

// Encounter is one combat session. It is single-writer: callers serialize access.
type Encounter struct {
	id       string
	lc       *fsm.FSM
	rules    Rules
	src      dice.Source
	resolver *Resolver
	decider  Decider
	autoAI   bool
	logger   *zap.Logger

	players   []*Combatant
	roster    []*Combatant
	byID      map[string]*Combatant
	seq       *Sequencer
	waves     *WaveManager
	escapes   EscapeTracker
	fled      EscapeTracker
	pool      rewardPool
	observers []Observer
	turn      int
	nextSeq   int
	verdict   *Verdict
}

// New validates opts and returns an encounter in the not-started state.
//
// Precondition: opts.Players non-empty; opts.Waves non-empty with no empty wave;
// combatant IDs unique across players and waves.
// Postcondition: players are forced to SidePlayer and wave combatants to
// SideMonster under AI control; every combatant starts active and undefended,
// even one carried over from an earlier encounter.
func New(opts Options) (*Encounter, error) {
	if len(opts.Players) == 0 {
		return nil, ErrNoPlayers
	}
	if len(opts.Waves) == 0 {
		return nil, ErrNoWaves
	}
	rules := opts.Rules
	if rules == (Rules{}) {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	check := func(c *Combatant) error {
		if c == nil || c.ID == "" {
			return fmt.Errorf("combatant without id: %w", ErrDuplicateCombatant)
		}
		if seen[c.ID] {
			return fmt.Errorf("%q: %w", c.ID, ErrDuplicateCombatant)
		}
		seen[c.ID] = true
		return nil
	}
	for _, p := range opts.Players {
		if err := check(p); err != nil {
			return nil, err
		}
		p.Side = SidePlayer
		p.reset()
	}
	for i, w := range opts.Waves {
		if len(w.Combatants) == 0 {
			return nil, fmt.Errorf("wave %d is empty: %w", i+1, ErrNoWaves)
		}
		for _, m := range w.Combatants {
			if err := check(m); err != nil {
				return nil, err
			}
			m.Side = SideMonster
			m.Controller = ControllerAI
			m.reset()
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := opts.Source
	if src == nil {
		src = dice.NewCryptoSource()
	}
	escape := opts.Escape
	if escape == nil {
		escape = DefaultEscapePolicy()
	}
	decider := opts.Decider
	if decider == nil {
		decider = guardDecider
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger = logger.With(zap.String("encounter", id))

	e := &Encounter{
		id:    id,
		rules: rules,
		src:   src,
		resolver: &Resolver{
			Rules:  rules,
			Src:    src,
			Escape: escape,
			Spells: opts.Spells,
			Items:  opts.Items,
		},
		decider: decider,
		autoAI:  opts.AutoRunAI,
		logger:  logger,
		players: append([]*Combatant(nil), opts.Players...),
		byID:    make(map[string]*Combatant),
		seq:     NewSequencer(),
		waves:   NewWaveManager(opts.Waves),
	}
	e.lc = fsm.NewFSM(
		stateNotStarted,
		fsm.Events{
			{Name: eventStart, Src: []string{stateNotStarted}, Dst: stateActive},
			{Name: eventEnd, Src: []string{stateActive}, Dst: stateEnded},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				e.logger.Debug("encounter state changed",
					zap.String("from", ev.Src),
					zap.String("to", ev.Dst),
				)
			},
		},
	)
	return e, nil
}

// ID returns the encounter identifier.
func (e *Encounter) ID() string { return e.id }

// State returns the lifecycle state: "not_started", "active" or "ended".
func (e *Encounter) State() string { return e.lc.Current() }

// IsActive reports whether actions are currently accepted.
func (e *Encounter) IsActive() bool { return e.lc.Is(stateActive) }

// Turn returns the number of actions resolved so far.
func (e *Encounter) Turn() int { return e.turn }

// Subscribe registers o. Observers are notified synchronously in registration order.
func (e *Encounter) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Start admits the players, spawns the first wave and begins the first turn.
//
// Postcondition: on success the encounter is active (or already ended if the AI
// chain finished it) and the result lists any AI turns that ran.
func (e *Encounter) Start(ctx context.Context) Result {
	if !e.lc.Is(stateNotStarted) {
		return rejected(nil, ErrAlreadyStarted)
	}
	for _, p := range e.players {
		e.admit(p)
	}
	if e.rules.RollInitiative {
		RollInitiative(e.players, e.src)
	}
	e.seq.Insert(e.players...)

	if err := e.lc.Event(ctx, eventStart); err != nil {
		return rejected(nil, fmt.Errorf("starting encounter: %w", err))
	}
	e.logger.Info("encounter started",
		zap.Int("players", len(e.players)),
		zap.Int("waves", e.waves.Info().TotalWaves),
	)
	e.emit(Event{Kind: EventEncounterStarted, Wave: e.waves.Info()})
	wave, _ := e.waves.Next()
	e.spawn(wave)

	res := Result{Success: true, Message: "The encounter begins."}
	e.advance()
	if e.autoAI {
		e.chainAI(ctx, &res)
	}
	return res
}

// ProcessAction validates and resolves a for the current actor.
//
// Postcondition: a rejected result leaves the encounter untouched. Otherwise the
// turn is consumed, termination is evaluated, and with AutoRunAI any following
// AI turns are resolved and reported in AITurns.
func (e *Encounter) ProcessAction(ctx context.Context, a Action) Result {
	res := e.resolveTurn(ctx, a)
	if res.Rejected || res.CombatEnded {
		return res
	}
	if e.autoAI {
		e.chainAI(ctx, &res)
	}
	return res
}

// RunAITurn resolves exactly one turn for the current AI-controlled actor.
func (e *Encounter) RunAITurn(ctx context.Context) Result {
	if !e.IsActive() {
		return rejected(nil, ErrNotActive)
	}
	actor, ok := e.seq.Current()
	if !ok || !actor.IsAIControlled() {
		return rejected(nil, ErrNotAITurn)
	}
	return e.aiTurn(ctx, actor)
}

// CurrentActor returns the combatant whose turn it is.
//
// Postcondition: returns (nil, false) when the encounter is not active.
func (e *Encounter) CurrentActor() (*Combatant, bool) {
	if !e.IsActive() {
		return nil, false
	}
	return e.seq.Current()
}

// CurrentEnemyPartyInfo returns the wave position for display.
func (e *Encounter) CurrentEnemyPartyInfo() PartyInfo {
	return e.waves.Info()
}

// RerollInitiative rolls fresh initiative for every active combatant and re-sorts
// the turn order without taking the turn from the current actor.
func (e *Encounter) RerollInitiative() {
	RollInitiative(e.seq.Order(), e.src)
	e.seq.Resort()
}

// Roster returns every combatant that has entered the encounter, in arrival order.
func (e *Encounter) Roster() []*Combatant {
	return append([]*Combatant(nil), e.roster...)
}

// Escapees returns the players that fled, in order.
func (e *Encounter) Escapees() []Escapee { return e.escapes.List() }

// FledMonsters returns the monsters that fled, in order.
func (e *Encounter) FledMonsters() []Escapee { return e.fled.List() }

// Verdict returns the terminal report once the encounter has ended.
func (e *Encounter) Verdict() (*Verdict, bool) {
	return e.verdict, e.verdict != nil
}

// Opponents implements Board.
func (e *Encounter) Opponents(actor *Combatant) []*Combatant {
	return e.activeOn(actor.Side.Opposing())
}

// Allies implements Board.
func (e *Encounter) Allies(actor *Combatant) []*Combatant {
	var out []*Combatant
	for _, c := range e.activeOn(actor.Side) {
		if c.ID != actor.ID {
			out = append(out, c)
		}
	}
	return out
}

// Order implements Board.
func (e *Encounter) Order() []*Combatant { return e.seq.Order() }

// Spells implements Board.
func (e *Encounter) Spells() AbilityBook { return e.resolver.Spells }

// Source implements Board.
func (e *Encounter) Source() dice.Source { return e.src }

// Validate implements Board.
func (e *Encounter) Validate(a Action) error {
	_, _, err := e.check(a)
	return err
}

func (e *Encounter) combatant(id string) (*Combatant, bool) {
	c, ok := e.byID[id]
	return c, ok
}

func (e *Encounter) activeOn(side Side) []*Combatant {
	var out []*Combatant
	for _, c := range e.seq.order {
		if c.Side == side && c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

// check runs every validation step without mutating state.
func (e *Encounter) check(a Action) (plan, *Combatant, error) {
	if !e.IsActive() {
		return plan{}, nil, ErrNotActive
	}
	if a == nil {
		return plan{}, nil, fmt.Errorf("no action: %w", ErrOutOfTurn)
	}
	actor, ok := e.seq.Current()
	if !ok || actor.ID != a.ActorID() {
		return plan{}, nil, fmt.Errorf("%q cannot act now: %w", a.ActorID(), ErrOutOfTurn)
	}
	p, err := e.resolver.validate(a, actor, e)
	return p, actor, err
}

func (e *Encounter) resolveTurn(ctx context.Context, a Action) Result {
	p, actor, err := e.check(a)
	if err != nil {
		return rejected(a, err)
	}

	out := e.resolver.apply(p, e)
	e.turn++
	for _, c := range out.left {
		e.seq.Remove(c.ID)
		if c.Status() != StatusDisconnected {
			continue
		}
		if c.Side == SidePlayer {
			e.escapes.Record(c, e.turn)
		} else {
			e.fled.Record(c, e.turn)
		}
	}
	res := out.result
	e.logger.Debug("action resolved",
		zap.Int("turn", e.turn),
		zap.String("actor", actor.ID),
		zap.Stringer("kind", res.Kind),
		zap.Bool("success", res.Success),
		zap.Int("damage", res.Damage),
	)
	resolved := res
	e.emit(Event{Kind: EventActionResolved, Actor: actor, Result: &resolved})

	if v, ended := e.evaluate(ctx); ended {
		res.CombatEnded = true
		res.Winner = v.Winner
		res.Verdict = v
		return res
	}
	e.advance()
	return res
}

func (e *Encounter) aiTurn(ctx context.Context, actor *Combatant) Result {
	a, err := e.decider.Decide(ctx, actor, e)
	switch {
	case err != nil:
		e.logger.Warn("ai decision failed; passing",
			zap.String("actor", actor.ID),
			zap.Error(err),
		)
		return e.pass(ctx, actor)
	case a == nil:
		e.logger.Warn("ai returned no action; passing", zap.String("actor", actor.ID))
		return e.pass(ctx, actor)
	}
	res := e.resolveTurn(ctx, a)
	if res.Rejected {
		e.logger.Warn("ai chose an illegal action; passing",
			zap.String("actor", actor.ID),
			zap.Stringer("kind", a.Kind()),
			zap.Error(res.Err),
		)
		return e.pass(ctx, actor)
	}
	return res
}

func (e *Encounter) pass(ctx context.Context, actor *Combatant) Result {
	res := e.resolveTurn(ctx, Pass{PasserID: actor.ID})
	res.Fallback = true
	return res
}

// chainAI resolves AI turns until a human-controlled actor is current, the
// encounter ends, or MaxAIChain turns have run.
func (e *Encounter) chainAI(ctx context.Context, res *Result) {
	for i := 0; i < e.rules.MaxAIChain; i++ {
		if !e.IsActive() || ctx.Err() != nil {
			return
		}
		actor, ok := e.seq.Current()
		if !ok || !actor.IsAIControlled() {
			return
		}
		r := e.aiTurn(ctx, actor)
		res.AITurns = append(res.AITurns, r)
		if r.CombatEnded {
			res.CombatEnded = true
			res.Winner = r.Winner
			res.Verdict = r.Verdict
			return
		}
	}
	e.logger.Warn("ai chain limit reached", zap.Int("limit", e.rules.MaxAIChain))
}

// evaluate collects cleared-wave bounties, spawns the next wave and applies the
// termination rules.
func (e *Encounter) evaluate(ctx context.Context) (*Verdict, bool) {
	cleared := e.waves.Cleared()
	if cleared {
		wave, _ := e.waves.Current()
		e.pool.collect(wave, e.src)
	}
	active := e.activeOn(SidePlayer)
	exhausted := cleared && e.waves.Remaining() == 0

	kind, ended := decide(len(active), exhausted, len(e.casualties()), e.escapes.Len())
	if ended {
		return e.end(ctx, kind, active), true
	}
	if cleared {
		next, _ := e.waves.Next()
		e.spawn(next)
	}
	return nil, false
}

func (e *Encounter) casualties() []*Combatant {
	var out []*Combatant
	for _, p := range e.players {
		if p.IsCasualty() {
			out = append(out, p)
		}
	}
	return out
}

func (e *Encounter) end(ctx context.Context, kind VerdictKind, activePlayers []*Combatant) *Verdict {
	v := &Verdict{
		EncounterID: e.id,
		Kind:        kind,
		Winner:      SideMonster,
		Casualties:  e.casualties(),
		Escapees:    e.escapes.List(),
		Fled:        e.fled.List(),
		Turns:       e.turn,
		Waves:       e.waves.Info(),
	}
	if kind == VerdictVictory || kind == VerdictVictoryWithCasualties {
		v.Winner = SidePlayer
		v.Rewards = e.pool.finalize(activePlayers)
	} else {
		v.Rewards = e.pool.finalize(nil)
	}
	e.verdict = v
	if err := e.lc.Event(ctx, eventEnd); err != nil {
		e.logger.Warn("ending encounter", zap.Error(err))
	}
	e.logger.Info("encounter ended",
		zap.Stringer("verdict", kind),
		zap.Stringer("winner", v.Winner),
		zap.Int("turns", e.turn),
		zap.Int("experience", v.Rewards.Experience),
		zap.Int("gold", v.Rewards.Gold),
	)
	e.emit(Event{Kind: EventEncounterEnded, Verdict: v})
	return v
}

func (e *Encounter) admit(c *Combatant) {
	c.seq = e.nextSeq
	e.nextSeq++
	e.roster = append(e.roster, c)
	e.byID[c.ID] = c
}

func (e *Encounter) spawn(w Wave) {
	for _, m := range w.Combatants {
		e.admit(m)
	}
	if e.rules.RollInitiative {
		RollInitiative(w.Combatants, e.src)
	}
	e.seq.Insert(w.Combatants...)
	info := e.waves.Info()
	e.logger.Debug("wave spawned",
		zap.String("label", w.Label),
		zap.Int("wave", info.CurrentWave),
		zap.Int("monsters", len(w.Combatants)),
	)
	e.emit(Event{Kind: EventWaveSpawned, Wave: info, Spawned: append([]*Combatant(nil), w.Combatants...)})
}

func (e *Encounter) advance() {
	actor, ok := e.seq.Advance()
	if !ok {
		return
	}
	e.emit(Event{Kind: EventTurnStarted, Actor: actor})
}

func (e *Encounter) emit(ev Event) {
	ev.EncounterID = e.id
	ev.Turn = e.turn
	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}
