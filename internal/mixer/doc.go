// Package mixer manages a set of playable sounds, their volumes and
// time-driven fade effects, all scaled by a single master volume.
//
// The package is single-threaded: a Mixer and its Sounds must only be used
// from one goroutine, which is also expected to call Mixer.Update once per
// tick. Actual audio output is delegated to a Playable/Output pair supplied
// by the caller (see the audio package for a beep-backed implementation).
package mixer
