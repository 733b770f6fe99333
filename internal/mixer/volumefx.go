package mixer

import "time"

// VolumeFx fades a sound in until a timeout and out afterwards. When the
// fade-out reaches silence the sound is paused and the effect releases
// itself.
//
// The ramps move the fade scale linearly by 1 per speed. Both ramp start
// instants are derived from the sound's fade scale at construction time, so
// a retriggered effect continues from the current level and the fade-out
// starts from the level the fade-in actually reached.
type VolumeFx struct {
	sound *Sound

	timeoutAt    time.Time
	rampInStart  time.Time
	rampOutStart time.Time
	speed        time.Duration
}

func newVolumeFx(s *Sound, timeout, speed time.Duration) *VolumeFx {
	if speed <= 0 {
		speed = time.Nanosecond
	}

	now := s.mixer.now()
	fx := &VolumeFx{
		sound:       s,
		timeoutAt:   now.Add(timeout),
		rampInStart: now.Add(-scaleDuration(speed, s.fadeScale)),
		speed:       speed,
	}

	projected := min(s.fadeScale+float64(timeout)/float64(speed), 1.0)
	fx.rampOutStart = fx.timeoutAt.Add(-scaleDuration(speed, 1.0-projected))

	if s.key != "" {
		s.mixer.fxKeys[s.key] = struct{}{}
	}

	return fx
}

// Update recomputes the fade scale for the current instant and applies it.
func (fx *VolumeFx) Update() {
	s := fx.sound
	if s == nil {
		return
	}

	now := s.mixer.now()

	if now.Before(fx.timeoutAt) {
		scale := min(fx.elapsed(now, fx.rampInStart), 1.0)
		fx.apply(scale)
		return
	}

	scale := max(1.0-fx.elapsed(now, fx.rampOutStart), 0.0)
	fx.apply(scale)
	if scale <= 0.0 {
		s.Pause(true)
		fx.Release()
	}
}

// Release unbinds the effect from its sound. It is safe to call more than
// once.
func (fx *VolumeFx) Release() {
	s := fx.sound
	if s == nil {
		return
	}

	if s.key != "" && s.mixer != nil {
		delete(s.mixer.fxKeys, s.key)
	}
	if s.fx == fx {
		s.fx = nil
	}
	fx.sound = nil
}

// TimeoutAt returns the instant the effect switches to fading out.
func (fx *VolumeFx) TimeoutAt() time.Time { return fx.timeoutAt }

func (fx *VolumeFx) apply(scale float64) {
	s := fx.sound
	s.fadeScale = scale
	s.dirty = true
	s.Update()
}

// elapsed returns the time since start in units of speed.
func (fx *VolumeFx) elapsed(now, start time.Time) float64 {
	return float64(now.Sub(start)) / float64(fx.speed)
}

func scaleDuration(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
