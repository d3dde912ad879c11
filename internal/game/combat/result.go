package combat

// Result reports the outcome of one submitted action and of any AI turns that
// ran because of it.
type Result struct {
	Kind      ActionKind
	ActorID   string
	TargetIDs []string

	// Success is false for misses, failed flee attempts, passes and rejections.
	Success bool
	// Rejected marks a validation failure: nothing changed and the turn was not consumed.
	Rejected bool
	// Fallback marks an AI turn that was replaced by a pass.
	Fallback bool
	Message  string

	// Damage is meaningful only when HasDamage is set.
	Damage    int
	HasDamage bool
	Healing   int
	Attack    *AttackResult

	CombatEnded bool
	Winner      Side
	Verdict     *Verdict

	// AITurns holds the AI-controlled turns resolved after this action, in order.
	AITurns []Result
	Err     error
}

func rejected(a Action, err error) Result {
	r := Result{Rejected: true, Err: err, Message: err.Error()}
	if a != nil {
		r.Kind = a.Kind()
		r.ActorID = a.ActorID()
	}
	return r
}
