// Package audio connects the mixer to real sound output.
//
// Track and Device implement the mixer's Playable and Output interfaces on
// top of the beep library. Library caches decoded WAV, OGG and MP3 files,
// Watcher invalidates that cache when files change on disk, and Manager
// binds the configured sound table to a mixer.
package audio
