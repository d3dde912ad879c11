package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the encounter table into v's VM:
//
//	encounter.combatant(uid) -> table or nil
//	encounter.enemies(uid)   -> array of tables
//	encounter.allies(uid)    -> array of tables, uid excluded
//	encounter.roll(expr)     -> total, drawn from the calling encounter's source
//	encounter.log(msg)
func (m *Manager) registerModules(v *vm) {
	L := v.L
	mod := L.NewTable()

	L.SetField(mod, "combatant", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		if v.view == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := v.view.Combatant(uid)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantTable(L, info))
		return 1
	}))

	list := func(query func(View, string) []*CombatantInfo) lua.LGFunction {
		return func(L *lua.LState) int {
			uid := L.CheckString(1)
			out := L.NewTable()
			if v.view != nil {
				for _, c := range query(v.view, uid) {
					out.Append(combatantTable(L, c))
				}
			}
			L.Push(out)
			return 1
		}
	}
	L.SetField(mod, "enemies", L.NewFunction(list(View.Enemies)))
	L.SetField(mod, "allies", L.NewFunction(list(View.Allies)))

	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		if v.view == nil {
			L.RaiseError("encounter.roll: no encounter")
			return 0
		}
		total, err := v.view.Roll(expr)
		if err != nil {
			L.RaiseError("encounter.roll: %s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(total))
		return 1
	}))

	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))

	L.SetGlobal("encounter", mod)
}

func combatantTable(L *lua.LState, c *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("uid", lua.LString(c.UID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("side", lua.LString(c.Side))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	t.RawSetString("ac", lua.LNumber(c.AC))
	t.RawSetString("active", lua.LBool(c.Active))
	return t
}
