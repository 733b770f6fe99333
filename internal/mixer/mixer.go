package mixer

import (
	"log/slog"
	"maps"
	"slices"
	"time"
)

// Mixer owns a registry of keyed sounds and the master volume they are
// scaled by.
type Mixer struct {
	logger *slog.Logger
	output Output
	clock  Clock

	volume    float64
	maxVolume float64

	// Keyed sounds. Anonymous sounds are never stored here.
	sounds map[string]*Sound

	// Keys of sounds in sounds that currently run a VolumeFx.
	fxKeys map[string]struct{}
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithClock overrides the clock used by fade effects.
func WithClock(c Clock) Option {
	return func(m *Mixer) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mixer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a mixer that attaches playback elements to out.
func New(out Output, opts ...Option) *Mixer {
	m := &Mixer{
		logger:    slog.Default(),
		output:    out,
		clock:     SystemClock(),
		volume:    1.0,
		maxVolume: 1.0,
		sounds:    make(map[string]*Sound),
		fxKeys:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the sound stored under key, or nil.
func (m *Mixer) Get(key string) *Sound {
	return m.sounds[key]
}

// Remove releases the sound stored under key. Unknown keys are ignored.
func (m *Mixer) Remove(key string) {
	if s, ok := m.sounds[key]; ok {
		s.Release()
	}
}

// CreateSound wraps p in a new Sound bound to this mixer.
//
// A non-empty key inserts or replaces: if a sound is already stored under
// key it is released before the new one takes its place. An empty key
// creates an anonymous sound that the mixer does not track; its owner must
// release it.
func (m *Mixer) CreateSound(key string, p Playable) *Sound {
	s := newSound(key, m, p)

	if key != "" {
		if old, ok := m.sounds[key]; ok {
			m.logger.Debug("replacing sound", "key", key)
			old.Release()
		}
		m.sounds[key] = s
	}

	return s
}

// SetMaxVolume sets the master volume pair. Negative values are coerced to
// 1.0. Every keyed sound recomputes its output level before this returns.
func (m *Mixer) SetMaxVolume(volume, maxVolume float64) {
	if volume < 0 {
		volume = 1
	}
	if maxVolume < 0 {
		maxVolume = 1
	}
	m.volume = volume
	m.maxVolume = maxVolume

	for _, s := range m.sounds {
		s.dirty = true
		s.Update()
	}
}

// Volume returns the master volume pair.
func (m *Mixer) Volume() (volume, maxVolume float64) {
	return m.volume, m.maxVolume
}

// Update advances every active fade effect by one tick.
func (m *Mixer) Update() {
	// Effects may release themselves (and so leave fxKeys) while ticking.
	for _, key := range slices.Sorted(maps.Keys(m.fxKeys)) {
		s, ok := m.sounds[key]
		if !ok || s.fx == nil {
			delete(m.fxKeys, key)
			continue
		}
		s.fx.Update()
	}
}

// Stop stops every keyed sound.
func (m *Mixer) Stop() {
	for _, s := range m.sounds {
		s.Stop()
	}
}

// Release releases every keyed sound and empties the registry.
func (m *Mixer) Release() {
	for _, s := range m.sounds {
		s.Release()
	}
	m.sounds = make(map[string]*Sound)
	m.fxKeys = make(map[string]struct{})
}

// Keys returns the keys of all registered sounds in sorted order.
func (m *Mixer) Keys() []string {
	return slices.Sorted(maps.Keys(m.sounds))
}

// ActiveEffects returns the number of keyed sounds running a fade effect.
func (m *Mixer) ActiveEffects() int {
	return len(m.fxKeys)
}

// SoundState is a point-in-time copy of a sound's state.
type SoundState struct {
	Key          string        `json:"key" yaml:"key"`
	Playing      bool          `json:"playing" yaml:"playing"`
	Paused       bool          `json:"paused" yaml:"paused"`
	Loop         bool          `json:"loop" yaml:"loop"`
	Volume       float64       `json:"volume" yaml:"volume"`
	FadeScale    float64       `json:"fade_scale" yaml:"fade_scale"`
	OutputVolume float64       `json:"output_volume" yaml:"output_volume"`
	Fading       bool          `json:"fading" yaml:"fading"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Left         time.Duration `json:"left" yaml:"left"`
}

// Snapshot returns the state of every keyed sound, ordered by key.
func (m *Mixer) Snapshot() []SoundState {
	keys := m.Keys()
	states := make([]SoundState, 0, len(keys))
	for _, key := range keys {
		states = append(states, m.sounds[key].State())
	}
	return states
}

func (m *Mixer) now() time.Time {
	return m.clock.Now()
}
