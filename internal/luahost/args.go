package luahost

import (
	"math"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// Args reads the arguments of a Lua call the way the engine frame reader
// does: by position, without checking count or type. Missing or
// unconvertible arguments read as zero.
type Args struct {
	L *lua.LState
}

func (a Args) NumParams() int {
	return a.L.GetTop()
}

func (a Args) number(i int) float64 {
	if i < 0 || i >= a.L.GetTop() {
		return 0
	}
	switch v := a.L.Get(i + 1).(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		if v {
			return 1
		}
		return 0
	case lua.LString:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (a Args) ReadInt(i int) int32 {
	f := math.Trunc(a.number(i))
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int32(f)
}

func (a Args) ReadFloat(i int) float32 {
	return float32(a.number(i))
}

func (a Args) ReadBool(i int) bool {
	if i < 0 || i >= a.L.GetTop() {
		return false
	}
	v := a.L.Get(i + 1)
	if n, ok := v.(lua.LNumber); ok {
		return n != 0
	}
	return lua.LVAsBool(v)
}
