package combat

// EventKind identifies an encounter notification.
type EventKind int

const (
	EventEncounterStarted EventKind = iota + 1
	EventTurnStarted
	EventActionResolved
	EventWaveSpawned
	EventEncounterEnded
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventEncounterStarted:
		return "encounter_started"
	case EventTurnStarted:
		return "turn_started"
	case EventActionResolved:
		return "action_resolved"
	case EventWaveSpawned:
		return "wave_spawned"
	case EventEncounterEnded:
		return "encounter_ended"
	default:
		return "unknown"
	}
}

// Event is delivered to observers synchronously, in registration order.
type Event struct {
	Kind        EventKind
	EncounterID string
	Turn        int
	// Actor is set for EventTurnStarted and EventActionResolved.
	Actor *Combatant
	// Result is set for EventActionResolved.
	Result *Result
	// Wave is set for EventWaveSpawned and EventEncounterStarted.
	Wave PartyInfo
	// Spawned lists the new monsters for EventWaveSpawned.
	Spawned []*Combatant
	// Verdict is set for EventEncounterEnded.
	Verdict *Verdict
}

// Observer receives encounter events. Implementations must not call back into
// the encounter's mutating methods.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }
