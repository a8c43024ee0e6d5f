package events

import "github.com/dshills/tickbus/internal/event"

// Host payload kinds.
const (
	KindConfigReloaded event.Kind = "config_reloaded"
	KindScriptError    event.Kind = "script_error"
)

// ConfigReloadedData is fired after the configuration file was reloaded and
// validated.
type ConfigReloadedData struct {
	// Path is the configuration file that changed.
	Path string
}

// Payload tags the value for the bus.
func (d ConfigReloadedData) Payload() event.Payload {
	return event.Typed(KindConfigReloaded, d)
}

// ScriptErrorData is fired when a script fails to load or a script handler
// raises an error.
type ScriptErrorData struct {
	Script  string
	Message string
}

// Payload tags the value for the bus.
func (d ScriptErrorData) Payload() event.Payload {
	return event.Typed(KindScriptError, d)
}
