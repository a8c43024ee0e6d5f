// Package script hosts Lua scripts that subscribe to and fire bus events.
//
// A Host owns one gopher-lua state and exposes a global "bus" module:
//
//	bus.on(id, fn)          -- subscribe, returns a handle
//	bus.once(id, fn)        -- subscribe for one successful call
//	bus.off(handle)         -- unsubscribe, returns true if it existed
//	bus.fire(id, data?)     -- queue an event for the next drain
//	bus.fire_now(id, data?) -- dispatch synchronously
//	bus.name(id)            -- the event's name
//	bus.events.<name>       -- framework event ids by name
//
// Handlers receive one table with the fields id, name and data. Returning
// true marks the envelope handled, which stops lower-priority handlers.
//
// Every subscription a Host makes is registered under the Host's owner key,
// so Close removes all of them in one call. A handler that raises a Lua error
// is contained by the bus like any other failing handler, and the error is
// also fired as events.ScriptError.
//
// A Host is not safe for concurrent use. Load scripts and dispatch events on
// the goroutine that drains the bus, typically through loop.Loop.Call.
package script
