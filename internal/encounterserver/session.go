// Package encounterserver hosts concurrent encounter sessions behind a gRPC
// service.
package encounterserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/content"
	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/observability"
)

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session cap is reached.
	ErrTooManySessions = errors.New("too many active sessions")
	// ErrPartyUnavailable wraps party loading and eligibility failures.
	ErrPartyUnavailable = errors.New("party unavailable")
)

// PartySaver persists characters after an encounter ends.
type PartySaver interface {
	SaveOutcome(ctx context.Context, chars []*character.Character) error
}

// ResultSink records finished encounters.
type ResultSink interface {
	Record(ctx context.Context, v *combat.Verdict, roster []*combat.Combatant) error
}

// MultiSink records into every sink in order and joins their errors.
type MultiSink []ResultSink

// Record implements ResultSink.
func (ms MultiSink) Record(ctx context.Context, v *combat.Verdict, roster []*combat.Combatant) error {
	var errs []error
	for _, s := range ms {
		if err := s.Record(ctx, v, roster); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options configures a SessionManager.
type Options struct {
	Library *content.Library
	Engine  config.EngineConfig
	Decider combat.Decider
	// NewSource returns the dice source for a new session; nil selects crypto.
	NewSource   func() dice.Source
	Saver       PartySaver // optional
	Sink        ResultSink // optional
	MaxSessions int        // 0 = unlimited
	Logger      *zap.Logger
}

// Session is one hosted encounter. All access goes through its mutex.
type Session struct {
	mu      sync.Mutex
	enc     *combat.Encounter
	party   []*character.Character
	members []*combat.Combatant
	timer   *TurnTimer
	ended   bool
}

// ID returns the session (and encounter) ID.
func (s *Session) ID() string { return s.enc.ID() }

// SessionManager tracks all hosted sessions.
// All methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   int
	closed   atomic.Bool

	opts   Options
	logger *zap.Logger
}

// NewSessionManager creates an empty SessionManager.
//
// Precondition: opts.Library must be non-nil.
func NewSessionManager(opts Options) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewSource == nil {
		opts.NewSource = dice.NewCryptoSource
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Start creates and starts an encounter for party against encounterID's waves.
//
// Precondition: party must be non-empty.
// Postcondition: Returns the running session and the start result (which may
// already carry AI turns or a verdict), or an error wrapping content.ErrNotFound,
// ErrPartyUnavailable or ErrTooManySessions.
func (m *SessionManager) Start(ctx context.Context, encounterID string, party []*character.Character) (*Session, combat.Result, error) {
	if len(party) == 0 {
		return nil, combat.Result{}, fmt.Errorf("empty party: %w", ErrPartyUnavailable)
	}
	for _, c := range party {
		if !c.CanFight() {
			return nil, combat.Result{}, fmt.Errorf("character %q cannot fight: %w", c.Name, ErrPartyUnavailable)
		}
	}

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && m.active >= m.opts.MaxSessions {
		m.mu.Unlock()
		return nil, combat.Result{}, ErrTooManySessions
	}
	m.active++
	m.mu.Unlock()

	s, res, err := m.start(ctx, encounterID, party)
	if err != nil {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
		return nil, combat.Result{}, err
	}
	return s, res, nil
}

func (m *SessionManager) start(ctx context.Context, encounterID string, party []*character.Character) (*Session, combat.Result, error) {
	src := m.opts.NewSource()
	waves, err := m.opts.Library.BuildWaves(encounterID, src)
	if err != nil {
		return nil, combat.Result{}, err
	}

	members := make([]*combat.Combatant, len(party))
	for i, c := range party {
		members[i] = c.Combatant()
	}
	enc, err := combat.New(combat.Options{
		Players:   members,
		Waves:     waves,
		Rules:     m.opts.Engine.Rules(),
		Source:    src,
		Escape:    m.opts.Engine.Escape(),
		Decider:   m.opts.Decider,
		Spells:    m.opts.Library.Spells(),
		Items:     m.opts.Library.Items(),
		AutoRunAI: true,
		Logger:    m.logger,
	})
	if err != nil {
		return nil, combat.Result{}, fmt.Errorf("creating encounter: %w", err)
	}

	s := &Session{enc: enc, party: party, members: members, timer: NewTurnTimer()}
	log := observability.ForEncounter(m.logger, enc.ID())
	enc.Subscribe(combat.ObserverFunc(func(ev combat.Event) {
		m.onEvent(s, ev, log)
	}))

	s.mu.Lock()
	defer s.mu.Unlock()
	res := enc.Start(ctx)
	if res.Err != nil {
		return nil, combat.Result{}, fmt.Errorf("starting encounter: %w", res.Err)
	}
	m.mu.Lock()
	m.sessions[enc.ID()] = s
	m.mu.Unlock()
	log.Info("session started",
		zap.String("content", encounterID),
		zap.Int("party", len(party)),
	)
	if res.CombatEnded {
		m.finish(ctx, s, res.Verdict, log)
	}
	return s, res, nil
}

// Submit routes a human action to the session.
//
// Postcondition: Returns the resolution result; an illegal action comes back as
// a rejected result, not an error. Returns ErrSessionNotFound for unknown IDs.
func (m *SessionManager) Submit(ctx context.Context, sessionID string, a combat.Action) (combat.Result, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return combat.Result{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.process(ctx, s, a), nil
}

// process runs a under the session lock held by the caller.
func (m *SessionManager) process(ctx context.Context, s *Session, a combat.Action) combat.Result {
	res := s.enc.ProcessAction(ctx, a)
	if res.CombatEnded && !s.ended {
		m.finish(ctx, s, res.Verdict, observability.ForEncounter(m.logger, s.enc.ID()))
	}
	return res
}

// Get returns the session with id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Active returns the number of sessions that have not ended.
func (m *SessionManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Remove forgets a session, stopping its timer.
func (m *SessionManager) Remove(id string) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.Stop()
	m.drop(s)
	return true
}

// Close stops every session timer; no new deadlines are armed afterwards.
func (m *SessionManager) Close() {
	m.closed.Store(true)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.timer.Stop()
	}
}

func (m *SessionManager) drop(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.enc.ID()]; !ok {
		return
	}
	delete(m.sessions, s.enc.ID())
	if !s.ended {
		m.active--
	}
}

// onEvent runs synchronously inside encounter calls, under the session lock.
func (m *SessionManager) onEvent(s *Session, ev combat.Event, log *zap.Logger) {
	switch ev.Kind {
	case combat.EventTurnStarted:
		s.timer.Stop()
		if m.opts.Engine.TurnTimeout <= 0 || m.closed.Load() || ev.Actor == nil || ev.Actor.IsAIControlled() {
			return
		}
		actorID, turn := ev.Actor.ID, ev.Turn
		s.timer.Reset(m.opts.Engine.TurnTimeout, func() {
			m.expire(s, actorID, turn, log)
		})
	case combat.EventWaveSpawned:
		log.Debug("wave spawned", zap.Int("wave", ev.Wave.CurrentWave), zap.Int("monsters", len(ev.Spawned)))
	case combat.EventEncounterEnded:
		s.timer.Stop()
	}
}

// expire auto-passes a human turn whose deadline elapsed.
func (m *SessionManager) expire(s *Session, actorID string, turn int, log *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.enc.CurrentActor()
	if !ok || cur.ID != actorID || s.enc.Turn() != turn || !s.enc.IsActive() {
		return
	}
	log.Info("turn timed out", zap.String("actor", actorID), zap.Int("turn", turn))
	m.process(context.Background(), s, combat.Pass{PasserID: actorID})
}

// finish applies the verdict to the party and hands it to the saver and sink.
// Persistence failures are logged, never surfaced to the acting player.
func (m *SessionManager) finish(ctx context.Context, s *Session, v *combat.Verdict, log *zap.Logger) {
	s.ended = true
	s.timer.Stop()
	m.mu.Lock()
	m.active--
	m.mu.Unlock()

	for i, c := range s.party {
		character.ApplyVerdict(c, s.members[i], v)
	}
	log.Info("session ended",
		zap.Stringer("verdict", v.Kind),
		zap.Stringer("winner", v.Winner),
		zap.Int("turns", v.Turns),
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if m.opts.Saver != nil && persisted(s.party) {
		if err := m.opts.Saver.SaveOutcome(ctx, s.party); err != nil {
			log.Warn("saving party outcome", zap.Error(err))
		}
	}
	if m.opts.Sink != nil {
		if err := m.opts.Sink.Record(ctx, v, s.enc.Roster()); err != nil {
			log.Warn("recording encounter result", zap.Error(err))
		}
	}
	m.evict(s, log)
}

// evict forgets an ended session once Engine.SessionRetention has passed. The
// retention timer reuses the idle turn timer, so Close and Remove cancel it.
func (m *SessionManager) evict(s *Session, log *zap.Logger) {
	retain := m.opts.Engine.SessionRetention
	if retain <= 0 {
		m.drop(s)
		return
	}
	if m.closed.Load() {
		return
	}
	s.timer.Reset(retain, func() {
		m.drop(s)
		log.Debug("session evicted")
	})
}

func persisted(party []*character.Character) bool {
	for _, c := range party {
		if c.ID == 0 {
			return false
		}
	}
	return true
}

// CombatantView is a read-only snapshot of one combatant.
type CombatantView struct {
	ID, Name, Side, Status string
	HP, MaxHP              int
	Initiative             int
	Health                 string
}

// Snapshot is a read-only view of a session's state.
type Snapshot struct {
	ID        string
	State     string
	Turn      int
	CurrentID string
	Order     []CombatantView
	Roster    []CombatantView
	Wave      combat.PartyInfo
	Verdict   *combat.Verdict
	Party     []*character.Character
}

// Snapshot captures the session state under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:    s.enc.ID(),
		State: s.enc.State(),
		Turn:  s.enc.Turn(),
		Wave:  s.enc.CurrentEnemyPartyInfo(),
		Party: s.party,
	}
	if cur, ok := s.enc.CurrentActor(); ok {
		snap.CurrentID = cur.ID
	}
	for _, c := range s.enc.Order() {
		snap.Order = append(snap.Order, view(c))
	}
	roster := s.enc.Roster()
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].Side < roster[j].Side })
	for _, c := range roster {
		snap.Roster = append(snap.Roster, view(c))
	}
	if v, ok := s.enc.Verdict(); ok {
		snap.Verdict = v
	}
	return snap
}

// PartyInfo returns the current enemy wave position.
func (s *Session) PartyInfo() combat.PartyInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.CurrentEnemyPartyInfo()
}

func view(c *combat.Combatant) CombatantView {
	return CombatantView{
		ID:         c.ID,
		Name:       c.Name,
		Side:       c.Side.String(),
		Status:     c.Status().String(),
		HP:         c.CurrentHP,
		MaxHP:      c.MaxHP,
		Initiative: c.Initiative,
		Health:     c.HealthDescription(),
	}
}
