package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/lifxswitch/internal/actions"
)

// newContextTable builds the ctx table handed to scripted actions.
//
//	ctx.pin, ctx.group
//	ctx:get_power() -> bool | nil
//	ctx:get_color() -> {hue, saturation, brightness, kelvin} | nil
//	ctx:power(on) -> ok, err
//	ctx:color(tbl) -> ok, err
//	ctx:scene(name) -> ok, err
//	ctx:matches(name) -> bool
//	ctx:abandon()
func newContextTable(L *lua.LState, actx *actions.Context) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("pin", lua.LNumber(actx.Target().Pin))
	tbl.RawSetString("group", lua.LString(actx.Group().Name()))

	grp := actx.Group()

	L.SetFuncs(tbl, map[string]lua.LGFunction{
		"get_power": func(L *lua.LState) int {
			on, err := grp.FirstPower(actx.Ctx())
			if err != nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LBool(on))
			return 1
		},
		"get_color": func(L *lua.LState) int {
			c, err := grp.FirstColor(actx.Ctx())
			if err != nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(colorToTable(L, c))
			return 1
		},
		"power": func(L *lua.LState) int {
			return pushResult(L, actx.SetPower(L.CheckBool(2)))
		},
		"color": func(L *lua.LState) int {
			c := tableToColor(L.CheckTable(2), actx.Target().Scenes["default"])
			return pushResult(L, grp.SetColor(actx.Ctx(), c, actx.Target().Transition))
		},
		"scene": func(L *lua.LState) int {
			return pushResult(L, actx.SetScene(L.CheckString(2)))
		},
		"matches": func(L *lua.LState) int {
			name := L.CheckString(2)
			c, err := grp.FirstColor(actx.Ctx())
			L.Push(lua.LBool(err == nil && actx.Matches(c, name)))
			return 1
		},
		"abandon": func(L *lua.LState) int {
			L.Error(lua.LString(actions.ErrAbandoned.Error()), 0)
			return 0
		},
	})
	return tbl
}

func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}
