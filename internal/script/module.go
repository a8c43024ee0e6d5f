package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
)

// registerModule installs the global bus table.
func (h *Host) registerModule() {
	L := h.L
	mod := L.NewTable()

	L.SetField(mod, "on", L.NewFunction(h.luaOn))
	L.SetField(mod, "once", L.NewFunction(h.luaOnce))
	L.SetField(mod, "off", L.NewFunction(h.luaOff))
	L.SetField(mod, "fire", L.NewFunction(h.luaFire))
	L.SetField(mod, "fire_now", L.NewFunction(h.luaFireNow))
	L.SetField(mod, "name", L.NewFunction(h.luaName))

	ids := L.NewTable()
	for _, id := range events.Known() {
		ids.RawSetString(events.Name(id), lua.LNumber(id))
	}
	L.SetField(mod, "events", ids)

	L.SetGlobal("bus", mod)
}

// checkID reads a positive integer event id from argument n.
func checkID(L *lua.LState, n int) event.ID {
	num := L.CheckNumber(n)
	id := event.ID(num)
	if lua.LNumber(id) != num || !id.Valid() {
		L.ArgError(n, "event id must be a positive integer")
	}
	return id
}

// on(id, fn) -> handle
func (h *Host) luaOn(L *lua.LState) int {
	return h.luaSubscribe(L, false)
}

// once(id, fn) -> handle
func (h *Host) luaOnce(L *lua.LState) int {
	return h.luaSubscribe(L, true)
}

func (h *Host) luaSubscribe(L *lua.LState, once bool) int {
	id := checkID(L, 1)
	fn := L.CheckFunction(2)

	handle, err := h.subscribe(id, fn, once)
	if err != nil {
		L.RaiseError("subscribe: %s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(handle))
	return 1
}

// off(handle) -> bool
func (h *Host) luaOff(L *lua.LState) int {
	handle := L.CheckInt(1)
	L.Push(lua.LBool(h.unsubscribe(handle)))
	return 1
}

// fire(id, data?)
func (h *Host) luaFire(L *lua.LState) int {
	id, payload := h.fireArgs(L)
	if err := h.bus.FirePayload(h, id, payload); err != nil {
		L.RaiseError("fire: %s", err.Error())
	}
	return 0
}

// fire_now(id, data?) -> handled
func (h *Host) luaFireNow(L *lua.LState) int {
	id, payload := h.fireArgs(L)
	env, err := event.NewEnvelope(h, id, payload)
	if err != nil {
		L.RaiseError("fire_now: %s", err.Error())
		return 0
	}
	if err := h.bus.FireNow(h, env); err != nil {
		L.RaiseError("fire_now: %s", err.Error())
		return 0
	}
	L.Push(lua.LBool(env.Handled()))
	return 1
}

func (h *Host) fireArgs(L *lua.LState) (event.ID, event.Payload) {
	id := checkID(L, 1)
	tbl := L.OptTable(2, nil)
	if tbl == nil {
		return id, event.Typed(KindTable, nil)
	}
	return id, event.Typed(KindTable, tableToMap(tbl))
}

// name(id) -> string
func (h *Host) luaName(L *lua.LState) int {
	L.Push(lua.LString(events.Name(checkID(L, 1))))
	return 1
}
