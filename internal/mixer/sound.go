package mixer

import "time"

// Output level bounds. Playback backends get VolumeMin instead of a hard
// zero.
const (
	VolumeMin = 0.00000001
	VolumeMax = 1.0
)

// Sound is one managed playback element.
//
// A negative base volume is an effect-only level: its magnitude is scaled by
// the fade effect alone and ignores the mixer's master volume.
type Sound struct {
	key    string
	mixer  *Mixer
	handle Playable

	volume    float64
	fadeScale float64
	output    float64

	playing bool
	paused  bool
	loop    bool
	dirty   bool

	fx *VolumeFx
}

func newSound(key string, m *Mixer, p Playable) *Sound {
	s := &Sound{
		key:       key,
		mixer:     m,
		handle:    p,
		volume:    VolumeMin,
		fadeScale: 1.0,
	}

	p.OnCompleted(s.completed)
	if m.output != nil {
		m.output.Attach(p)
	}

	return s
}

// completed handles the end of a non-looped playthrough.
func (s *Sound) completed() {
	if !s.loop {
		s.playing = false
	}
}

// Key returns the registry key, empty for anonymous sounds.
func (s *Sound) Key() string { return s.key }

// Playing reports whether the sound is audible: started, not paused and not
// yet finished.
func (s *Sound) Playing() bool { return s.playing && !s.paused }

// Paused reports whether the sound was paused, either explicitly or by a
// completed fade-out.
func (s *Sound) Paused() bool { return s.paused }

// Loop reports the loop flag.
func (s *Sound) Loop() bool { return s.loop }

// Volume returns the base volume.
func (s *Sound) Volume() float64 { return s.volume }

// FadeScale returns the fade multiplier in [0,1].
func (s *Sound) FadeScale() float64 { return s.fadeScale }

// OutputVolume returns the level last applied to the playback element.
func (s *Sound) OutputVolume() float64 { return s.output }

// Fx returns the active fade effect, or nil.
func (s *Sound) Fx() *VolumeFx { return s.fx }

// Released reports whether Release has been called.
func (s *Sound) Released() bool { return s.mixer == nil }

// Release detaches the sound from its mixer and output. The sound must not
// be used afterwards; further calls are no-ops.
func (s *Sound) Release() {
	if s.mixer == nil {
		return
	}

	if s.key != "" && s.mixer.sounds[s.key] == s {
		delete(s.mixer.sounds, s.key)
	}
	s.Stop()
	if s.fx != nil {
		s.fx.Release()
	}

	s.handle.OnCompleted(nil)
	if s.mixer.output != nil {
		s.mixer.output.Detach(s.handle)
	}
	s.mixer = nil
}

// Update applies the output level if it is stale.
func (s *Sound) Update() {
	if !s.dirty || s.mixer == nil {
		return
	}
	s.dirty = false

	var level float64
	switch {
	case s.volume < 0:
		level = clamp(-s.volume*s.fadeScale, VolumeMin, VolumeMax)
	case s.mixer.volume == 0:
		level = VolumeMin
	default:
		level = min(s.volume*s.fadeScale, VolumeMax)
		level = clamp(level*s.mixer.volume/s.mixer.maxVolume, VolumeMin, VolumeMax)
	}

	s.output = level
	s.handle.SetVolume(level)
}

// SetVolume sets the base volume and resets the fade scale.
func (s *Sound) SetVolume(volume float64) {
	if s.mixer == nil {
		return
	}
	s.volume = volume
	s.fadeScale = 1.0
	s.dirty = true
	s.Update()
}

// PlayEx starts or continues playback without touching an active fade
// effect. With reset the position is rewound first.
func (s *Sound) PlayEx(loop bool, volume float64, reset bool) {
	if s.mixer == nil {
		return
	}

	if reset {
		s.handle.SetPosition(0)
	}

	s.loop = loop
	s.handle.SetLoop(loop)

	s.SetVolume(volume)

	if s.paused || !s.playing {
		s.playing = true
		s.paused = false
		s.handle.Play()
	}
}

// Play is PlayEx that also cancels any fade effect when the sound is
// (re)started rather than continued.
func (s *Sound) Play(loop bool, volume float64, reset bool) {
	if s.mixer == nil {
		return
	}

	if s.restarting(reset) {
		s.fadeScale = 1.0
		if s.fx != nil {
			s.fx.Release()
		}
	}

	s.PlayEx(loop, volume, reset)
}

// PlayTimeout plays the sound and attaches a fade effect that holds it for
// timeout and then fades it out over speed.
func (s *Sound) PlayTimeout(loop bool, volume float64, reset bool, timeout, speed time.Duration) {
	if s.mixer == nil {
		return
	}

	if s.restarting(reset) {
		s.fadeScale = 1.0
	}

	s.Play(loop, volume, reset)

	if s.fx != nil {
		s.fx.Release()
	}
	s.fx = newVolumeFx(s, timeout, speed)
}

// Sustain re-arms the fade effect of an audible sound without resetting its
// fade scale, so a sound part way through a fade-out ramps back up from its
// current level. It returns false if the sound is not audible.
func (s *Sound) Sustain(timeout, speed time.Duration) bool {
	if s.mixer == nil || !s.Playing() {
		return false
	}

	if s.fx != nil {
		s.fx.Release()
	}
	s.fx = newVolumeFx(s, timeout, speed)
	return true
}

// Pause pauses playback, or resumes it when pause is false.
func (s *Sound) Pause(pause bool) {
	if s.mixer == nil {
		return
	}

	if pause {
		if !s.paused {
			s.paused = true
			s.handle.Pause()
		}
		return
	}

	if s.paused || !s.playing {
		s.playing = true
		s.paused = false
		s.handle.Play()
	}
}

// Stop halts playback, cancels the fade effect and rewinds. It does nothing
// if the sound is not playing.
func (s *Sound) Stop() {
	if !s.playing {
		return
	}
	s.playing = false
	s.paused = false

	s.fadeScale = 1.0
	if s.fx != nil {
		s.fx.Release()
	}

	s.handle.Pause()
	s.handle.SetPosition(0)
}

// Left returns the remaining playback time, or zero if not playing.
func (s *Sound) Left() time.Duration {
	if !s.playing || s.mixer == nil {
		return 0
	}
	return max(s.handle.Duration()-s.handle.Position(), 0)
}

// State returns a copy of the sound's state.
func (s *Sound) State() SoundState {
	st := SoundState{
		Key:          s.key,
		Playing:      s.Playing(),
		Paused:       s.paused,
		Loop:         s.loop,
		Volume:       s.volume,
		FadeScale:    s.fadeScale,
		OutputVolume: s.output,
		Fading:       s.fx != nil,
		Left:         s.Left(),
	}
	if s.mixer != nil {
		st.Duration = s.handle.Duration()
	}
	return st
}

func (s *Sound) restarting(reset bool) bool {
	return reset || !s.playing || s.paused
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
