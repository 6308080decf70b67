package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// LuaToGo converts a Lua value to a Go value
func LuaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		// Tables with only numeric keys become slices
		isArray := true
		maxIdx := 0
		val.ForEach(func(k, _ lua.LValue) {
			if num, ok := k.(lua.LNumber); ok {
				if int(num) > maxIdx {
					maxIdx = int(num)
				}
			} else {
				isArray = false
			}
		})

		if isArray && maxIdx > 0 {
			arr := make([]any, maxIdx)
			val.ForEach(func(k, v lua.LValue) {
				if num, ok := k.(lua.LNumber); ok && int(num) >= 1 {
					arr[int(num)-1] = LuaToGo(v)
				}
			})
			return arr
		}

		obj := make(map[string]any)
		val.ForEach(func(k, v lua.LValue) {
			obj[lua.LVAsString(k)] = LuaToGo(v)
		})
		return obj
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}

// colorToTable renders a color as {hue=, saturation=, brightness=, kelvin=}
func colorToTable(L *lua.LState, c device.Color) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("hue", lua.LNumber(c.Hue))
	tbl.RawSetString("saturation", lua.LNumber(c.Saturation))
	tbl.RawSetString("brightness", lua.LNumber(c.Brightness))
	tbl.RawSetString("kelvin", lua.LNumber(c.Kelvin))
	return tbl
}

// tableToColor reads a color table; missing keys fall back to base
func tableToColor(tbl *lua.LTable, base device.Color) device.Color {
	read := func(key string, def uint16) uint16 {
		if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
			switch {
			case n < 0:
				return 0
			case n > 65535:
				return 65535
			}
			return uint16(n)
		}
		return def
	}
	return device.Color{
		Hue:        read("hue", base.Hue),
		Saturation: read("saturation", base.Saturation),
		Brightness: read("brightness", base.Brightness),
		Kelvin:     read("kelvin", base.Kelvin),
	}
}
