package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/encounter/internal/scripting"
)

// ScriptCaller evaluates Lua preconditions.
type ScriptCaller interface {
	// CallHook calls hook in scope's VM with view backing encounter.* queries.
	// Returns (LNil, nil) if the hook is not defined.
	CallHook(scope, hook string, view scripting.View, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive step produced by the planner.
type PlannedAction struct {
	Action  string
	Target  string // combatant ID; empty when the operator needs none
	Ability string
}

// maxExpansions bounds task decomposition so a recursive domain cannot loop forever.
const maxExpansions = 32

// Planner evaluates one Domain. Preconditions run in the script scope named after
// the domain, falling back to the global scope.
//
// Invariant: domain and caller are non-nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	scope  string
}

// NewPlanner constructs a Planner.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scope: scope}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes the root task against state.
//
// Precondition: state and state.Self must not be nil.
// Postcondition: returns a non-nil slice, possibly empty. Lua failures count as
// a false precondition and are never returned as errors.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Self must not be nil")
	}

	queue := []string{RootTask}
	plan := []PlannedAction{}
	for steps := 0; len(queue) > 0 && steps < maxExpansions; steps++ {
		current := queue[0]
		queue = queue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			plan = append(plan, PlannedAction{
				Action:  op.Action,
				Target:  state.ResolveTarget(op.Target),
				Ability: op.Ability,
			})
			continue
		}
		m := p.applicable(current, state)
		if m == nil {
			continue
		}
		next := make([]string, 0, len(m.Subtasks)+len(queue))
		next = append(next, m.Subtasks...)
		queue = append(next, queue...)
	}
	return plan, nil
}

// applicable returns the first method of taskID whose precondition holds.
func (p *Planner) applicable(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, err := p.caller.CallHook(p.scope, m.Precondition, state, lua.LString(state.Self.ID))
		if err == nil && lua.LVAsBool(val) {
			return m
		}
	}
	return nil
}
