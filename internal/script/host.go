package script

import (
	"errors"
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
)

// KindTable is the payload kind of events fired from Lua. The value is a
// map[string]any converted from the Lua table, or nil when no table was given.
const KindTable event.Kind = "script.table"

// handlersKey is the global holding handler functions so they are not
// collected while subscribed.
const handlersKey = "_tickbus_handlers"

// ErrClosed is returned when a closed Host is used.
var ErrClosed = errors.New("script host closed")

// Host runs Lua scripts against a bus.
type Host struct {
	L *lua.LState

	bus    *event.Bus
	owner  event.OwnerID
	logger *zap.Logger

	handlers   *lua.LTable
	subs       map[int]*luaHandler
	nextHandle int

	// chunk is the script currently being loaded. Handlers remember it so
	// errors can name their script.
	chunk  string
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOwner sets the owner key the host subscribes under. By default every
// host gets a fresh key.
func WithOwner(owner event.OwnerID) Option {
	return func(h *Host) {
		h.owner = owner
	}
}

// New creates a host bound to bus with the safe standard libraries and the
// bus module loaded.
func New(bus *event.Bus, opts ...Option) *Host {
	h := &Host{
		bus:    bus,
		owner:  event.NewOwnerID(),
		logger: zap.NewNop(),
		subs:   make(map[int]*luaHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	h.L = L
	h.handlers = L.NewTable()
	L.SetGlobal(handlersKey, h.handlers)
	h.registerModule()

	return h
}

// openSafeLibraries opens the libraries scripts may use. io, os, and the
// module loader stay closed, and the base functions that read files are
// removed.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Owner returns the owner key of the host's subscriptions.
func (h *Host) Owner() event.OwnerID {
	return h.owner
}

// Subscriptions returns the number of live script subscriptions.
func (h *Host) Subscriptions() int {
	return len(h.subs)
}

// LoadFile runs the script at path.
func (h *Host) LoadFile(path string) error {
	if h.closed {
		return ErrClosed
	}
	return h.load(filepath.Base(path), func() error {
		return h.L.DoFile(path)
	})
}

// LoadString runs code as a script called name.
func (h *Host) LoadString(name, code string) error {
	if h.closed {
		return ErrClosed
	}
	return h.load(name, func() error {
		return h.L.DoString(code)
	})
}

func (h *Host) load(name string, run func() error) (err error) {
	prev := h.chunk
	h.chunk = name
	defer func() {
		h.chunk = prev
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err != nil {
			h.logger.Warn("script failed to load", zap.String("script", name), zap.Error(err))
			h.report(name, err)
			err = fmt.Errorf("load script %s: %w", name, err)
		}
	}()

	if err := run(); err != nil {
		return err
	}
	h.logger.Debug("script loaded", zap.String("script", name))
	return nil
}

// Close removes every subscription the host made and closes the Lua state.
// It is safe to call more than once. Returns the number of subscriptions
// removed.
func (h *Host) Close() int {
	if h.closed {
		return 0
	}
	h.closed = true

	n := 0
	if len(h.subs) > 0 {
		n = h.bus.UnsubscribeByOwner(h.owner)
	}
	h.subs = make(map[int]*luaHandler)
	h.handlers = nil
	h.L.Close()

	h.logger.Debug("script host closed", zap.Int("removed", n))
	return n
}

// report fires a deferred ScriptError for a failure in script.
func (h *Host) report(script string, cause error) {
	data := events.ScriptErrorData{Script: script, Message: cause.Error()}
	if err := h.bus.FirePayload(h, events.ScriptError, data.Payload()); err != nil {
		h.logger.Error("failed to report script error", zap.Error(err))
	}
}

// subscribe registers fn for id and returns its handle.
func (h *Host) subscribe(id event.ID, fn *lua.LFunction, once bool) (int, error) {
	h.nextHandle++
	lh := &luaHandler{
		host:   h,
		handle: h.nextHandle,
		id:     id,
		once:   once,
		script: h.chunk,
	}

	opts := []event.SubscriptionOption{event.WithOwner(h.owner)}
	if once {
		opts = append(opts, event.WithOnce())
	}
	if err := h.bus.Subscribe(id, lh, opts...); err != nil {
		return 0, err
	}

	h.handlers.RawSetInt(lh.handle, fn)
	h.subs[lh.handle] = lh
	return lh.handle, nil
}

// unsubscribe removes the subscription behind handle.
func (h *Host) unsubscribe(handle int) bool {
	lh, ok := h.subs[handle]
	if !ok {
		return false
	}
	h.forget(handle)
	return h.bus.Unsubscribe(lh.id, lh)
}

// forget drops the handle and releases its Lua function.
func (h *Host) forget(handle int) {
	delete(h.subs, handle)
	if h.handlers != nil {
		h.handlers.RawSetInt(handle, lua.LNil)
	}
}

// luaHandler adapts a Lua function to event.Handler. Pointer identity keeps
// two subscriptions of the same function distinct.
type luaHandler struct {
	host   *Host
	handle int
	id     event.ID
	once   bool
	script string
}

// Handle calls the Lua function with the event table.
func (lh *luaHandler) Handle(sender any, env *event.Envelope) error {
	h := lh.host
	if h.closed {
		return nil
	}
	fn, ok := h.handlers.RawGetInt(lh.handle).(*lua.LFunction)
	if !ok {
		return nil
	}

	err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, h.eventTable(env))
	if err != nil {
		// A failing ScriptError handler must not feed itself.
		if env.ID() != events.ScriptError {
			h.report(lh.script, err)
		}
		return fmt.Errorf("script %s: %w", lh.script, err)
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)
	if ret == lua.LTrue {
		env.SetHandled(true)
	}
	if lh.once {
		h.forget(lh.handle)
	}
	return nil
}

// eventTable builds the table passed to Lua handlers.
func (h *Host) eventTable(env *event.Envelope) *lua.LTable {
	tbl := h.L.NewTable()
	tbl.RawSetString("id", lua.LNumber(env.ID()))
	tbl.RawSetString("name", lua.LString(events.Name(env.ID())))
	tbl.RawSetString("data", payloadToLua(h.L, env.Payload()))
	return tbl
}
