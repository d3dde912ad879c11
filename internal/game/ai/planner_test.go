package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encounter/internal/game/ai"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/scripting"
)

// stubCaller answers every hook with a fixed value and records the calls.
type stubCaller struct {
	ret   lua.LValue
	calls []string
}

func (s *stubCaller) CallHook(scope, hook string, _ scripting.View, _ ...lua.LValue) (lua.LValue, error) {
	s.calls = append(s.calls, scope+":"+hook)
	if s.ret == nil {
		return lua.LNil, nil
	}
	return s.ret, nil
}

func bruteState() *ai.WorldState {
	self := mob("m1", 20)
	return ai.Snapshot(self, &fakeBoard{order: []*combat.Combatant{self, pc("p1", 15), pc("p2", 4)}})
}

func TestPlanner_PreconditionTrueSelectsFirstMethod(t *testing.T) {
	caller := &stubCaller{ret: lua.LTrue}
	plan, err := ai.NewPlanner(bruteDomain(), caller, "brute").Plan(bruteState())
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, ai.OpFlee, plan[0].Action)
	assert.Equal(t, []string{"brute:badly_hurt"}, caller.calls)
}

func TestPlanner_PreconditionFalseFallsThrough(t *testing.T) {
	plan, err := ai.NewPlanner(bruteDomain(), &stubCaller{ret: lua.LFalse}, "brute").Plan(bruteState())
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, ai.PlannedAction{Action: ai.OpAttack, Target: "p2"}, plan[0])
}

func TestPlanner_NilResultIsFalse(t *testing.T) {
	plan, err := ai.NewPlanner(bruteDomain(), &stubCaller{}, "brute").Plan(bruteState())
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, ai.OpAttack, plan[0].Action)
}

func TestPlanner_NilStateErrors(t *testing.T) {
	_, err := ai.NewPlanner(bruteDomain(), &stubCaller{}, "brute").Plan(nil)
	assert.Error(t, err)
}

func TestNewPlanner_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { ai.NewPlanner(nil, &stubCaller{}, "x") })
	assert.Panics(t, func() { ai.NewPlanner(bruteDomain(), nil, "x") })
}

func TestPlanner_RecursiveDomainTerminates(t *testing.T) {
	d := &ai.Domain{
		ID:        "loop",
		Tasks:     []*ai.Task{{ID: "behave"}},
		Methods:   []*ai.Method{{TaskID: "behave", ID: "again", Subtasks: []string{"behave"}}},
		Operators: []*ai.Operator{{ID: "noop", Action: ai.OpPass}},
	}
	require.NoError(t, d.Validate())
	plan, err := ai.NewPlanner(d, &stubCaller{}, "loop").Plan(bruteState())
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlanner_WithLuaPreconditions(t *testing.T) {
	mgr := scripting.NewManager(zaptest.NewLogger(t))
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadString("brute", `
		function badly_hurt(uid)
			local me = encounter.combatant(uid)
			return me.hp * 4 <= me.max_hp and #encounter.enemies(uid) > 0
		end
	`, 0))
	planner := ai.NewPlanner(bruteDomain(), mgr, "brute")

	healthy := mob("m1", 20)
	plan, err := planner.Plan(ai.Snapshot(healthy, &fakeBoard{order: []*combat.Combatant{healthy, pc("p1", 5)}}))
	require.NoError(t, err)
	require.NotEmpty(t, plan)
	assert.Equal(t, ai.OpAttack, plan[0].Action)

	hurt := mob("m1", 3)
	plan, err = planner.Plan(ai.Snapshot(hurt, &fakeBoard{order: []*combat.Combatant{hurt, pc("p1", 5)}}))
	require.NoError(t, err)
	require.NotEmpty(t, plan)
	assert.Equal(t, ai.OpFlee, plan[0].Action)
}

func TestPlanner_LuaRollsDrawFromEncounterSource(t *testing.T) {
	mgr := scripting.NewManager(zaptest.NewLogger(t))
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadString("brute", `
		function badly_hurt(uid)
			return encounter.roll("1d100") > 50
		end
	`, 0))
	planner := ai.NewPlanner(bruteDomain(), mgr, "brute")

	choices := func(seed int64) []string {
		self := mob("m1", 20)
		board := &fakeBoard{order: []*combat.Combatant{self, pc("p1", 5)}, src: dice.NewSeededSource(seed)}
		var out []string
		for i := 0; i < 24; i++ {
			plan, err := planner.Plan(ai.Snapshot(self, board))
			require.NoError(t, err)
			require.NotEmpty(t, plan)
			out = append(out, plan[0].Action)
		}
		return out
	}

	first := choices(42)
	assert.Equal(t, first, choices(42))
	assert.Contains(t, first, ai.OpFlee)
	assert.Contains(t, first, ai.OpAttack)
}

func TestPlanner_LuaRollWithoutSourceIsFalse(t *testing.T) {
	mgr := scripting.NewManager(zaptest.NewLogger(t))
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadString("brute", `
		function badly_hurt(uid) return encounter.roll("1d100") > 0 end
	`, 0))
	plan, err := ai.NewPlanner(bruteDomain(), mgr, "brute").Plan(bruteState())
	require.NoError(t, err)
	require.NotEmpty(t, plan)
	assert.Equal(t, ai.OpAttack, plan[0].Action)
}

func TestProperty_PlanIsNeverNil(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var ret lua.LValue = lua.LFalse
		if rapid.Bool().Draw(rt, "precondition") {
			ret = lua.LTrue
		}
		plan, err := ai.NewPlanner(bruteDomain(), &stubCaller{ret: ret}, "brute").Plan(bruteState())
		if err != nil || plan == nil {
			rt.Fatalf("plan=%v err=%v", plan, err)
		}
	})
}

func TestRegistry(t *testing.T) {
	r := ai.NewRegistry()
	require.NoError(t, r.Register(bruteDomain(), &stubCaller{}))
	assert.Error(t, r.Register(bruteDomain(), &stubCaller{}))
	assert.Equal(t, 1, r.Len())

	p, ok := r.PlannerFor("brute")
	require.True(t, ok)
	assert.Equal(t, "brute", p.Domain().ID)
	_, ok = r.PlannerFor("nope")
	assert.False(t, ok)

	var nilReg *ai.Registry
	_, ok = nilReg.PlannerFor("brute")
	assert.False(t, ok)
	assert.Zero(t, nilReg.Len())
	assert.Empty(t, nilReg.Domains())
	assert.Equal(t, []string{"brute"}, nilReg.Unknown([]string{"brute", ""}))

	assert.Equal(t, []string{"brute"}, r.Domains())
	assert.Equal(t, []string{"caster", "coward"}, r.Unknown([]string{"coward", "brute", "", "caster", "coward"}))
	assert.Empty(t, r.Unknown(nil))
}
