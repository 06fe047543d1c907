// Package config loads session settings, watches the bindings file for
// live reload, and fans reload results out to subscribers.
//
// Settings live in a TOML file and cover everything outside the
// bindings themselves: search defaults, capture command registration,
// and the path of the JSON bindings file. The bindings file is watched
// with fsnotify; on change the raw bytes are handed to the reload
// callback, which typically recompiles them and publishes the outcome
// through a ReloadNotifier.
package config
