package combat

import "errors"

var (
	// ErrNotActive is returned for any action against an encounter that has not
	// started or has already ended.
	ErrNotActive = errors.New("encounter is not active")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("encounter already started")
	// ErrOutOfTurn is returned when the acting combatant is not the current actor.
	ErrOutOfTurn = errors.New("not this combatant's turn")
	// ErrInvalidTarget is returned when a required target is missing, inactive or
	// on the wrong side.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrUnknownAbility is returned when a spell or item ID is not defined.
	ErrUnknownAbility = errors.New("unknown spell or item")
	// ErrNotAITurn is returned by RunAITurn when the current actor is human-controlled.
	ErrNotAITurn = errors.New("current actor is not AI-controlled")
	// ErrNoPlayers is returned by New when no player combatants are supplied.
	ErrNoPlayers = errors.New("encounter requires at least one player combatant")
	// ErrNoWaves is returned by New when no monster waves are supplied or a wave is empty.
	ErrNoWaves = errors.New("encounter requires at least one non-empty monster wave")
	// ErrDuplicateCombatant is returned by New when two combatants share an ID.
	ErrDuplicateCombatant = errors.New("duplicate combatant id")
)
