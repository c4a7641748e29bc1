// Package config loads ouiwatch's TOML configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/ouiwatch/config.toml
//  3. If the file doesn't exist, use defaults
//  4. If the file exists but fields are blank or invalid, use defaults for those fields
//
// # Keys
//
//	api_url          detector service address (default 127.0.0.1:5000)
//	log_file         diagnostics log (default ~/.local/state/ouiwatch/ouiwatch.log)
//	device_poll      device log period (default 2s)
//	status_poll      live status period (default 2s)
//	lists_poll       list membership period (default 30s)
//	config_poll      configuration info period (default 30s)
//	request_timeout  per-request HTTP timeout (default 5s)
//
// Durations use Go syntax ("500ms", "2s", "1m"). Paths starting with ~ are
// expanded against the user's home directory.
package config
