// Package daemon runs a mixer on its own goroutine. Driver ticks the mixer
// and serialises access to it, ConfigWatcher hot-reloads the config file,
// and Service wires both to the audio output and the configured sound table.
package daemon
