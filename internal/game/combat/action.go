package combat

// ActionKind identifies a variant of Action.
// The zero value is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAttack
	ActionDefend
	ActionCast
	ActionUseItem
	ActionFlee
	ActionPass
)

// String returns the lowercase action name.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionCast:
		return "cast"
	case ActionUseItem:
		return "use_item"
	case ActionFlee:
		return "flee"
	case ActionPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Action is one submitted turn. The set of variants is closed: Attack, Defend,
// Cast, UseItem, Flee and Pass.
type Action interface {
	// ActorID is the combatant taking the action.
	ActorID() string
	Kind() ActionKind
	isAction()
}

// Attack strikes TargetID with the attacker's weapon.
type Attack struct {
	AttackerID string
	TargetID   string
}

// Defend raises the defender's AC against the next incoming attack.
type Defend struct {
	DefenderID string
}

// Cast resolves spell SpellID. TargetID is ignored by spells that pick their own targets.
type Cast struct {
	CasterID string
	SpellID  string
	TargetID string
}

// UseItem resolves item ItemID. TargetID is ignored by items that pick their own targets.
type UseItem struct {
	UserID   string
	ItemID   string
	TargetID string
}

// Flee attempts to disconnect the actor from the encounter.
type Flee struct {
	FleerID string
}

// Pass forfeits the turn. The engine resolves it for failed AI turns; servers
// submit it when a human actor stays idle.
type Pass struct {
	PasserID string
}

func (a Attack) ActorID() string  { return a.AttackerID }
func (a Defend) ActorID() string  { return a.DefenderID }
func (a Cast) ActorID() string    { return a.CasterID }
func (a UseItem) ActorID() string { return a.UserID }
func (a Flee) ActorID() string    { return a.FleerID }
func (a Pass) ActorID() string    { return a.PasserID }

func (Attack) Kind() ActionKind  { return ActionAttack }
func (Defend) Kind() ActionKind  { return ActionDefend }
func (Cast) Kind() ActionKind    { return ActionCast }
func (UseItem) Kind() ActionKind { return ActionUseItem }
func (Flee) Kind() ActionKind    { return ActionFlee }
func (Pass) Kind() ActionKind    { return ActionPass }

func (Attack) isAction()  {}
func (Defend) isAction()  {}
func (Cast) isAction()    {}
func (UseItem) isAction() {}
func (Flee) isAction()    {}
func (Pass) isAction()    {}
