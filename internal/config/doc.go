// Package config loads and watches the tickbus configuration.
//
// Configuration is read from a TOML or YAML file (chosen by extension), then
// overridden by TICKBUS_* environment variables, then validated. A missing
// file is not an error; defaults apply.
//
// # File format
//
//	[log]
//	level = "info"
//	format = "console"
//
//	[bus]
//	max_drain_per_tick = 0
//
//	[loop]
//	tick_rate = 60
//
//	[metrics]
//	enabled = true
//	addr = ":9464"
//
//	[script]
//	files = ["scripts/progress.lua"]
//
// # Live reload
//
// Watcher watches the file with fsnotify and hands every valid new
// configuration to a callback. Invalid edits are reported and ignored.
package config
