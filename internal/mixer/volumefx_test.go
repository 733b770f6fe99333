package mixer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeFx_RampStarts(t *testing.T) {
	m, clock, _ := newTestMixer()
	start := clock.Now()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.PlayTimeout(false, 1, false, 500*time.Millisecond, time.Second)

	fx := s.Fx()
	require.NotNil(t, fx)
	assert.Equal(t, start.Add(500*time.Millisecond), fx.TimeoutAt())
	assert.Equal(t, start.Add(-time.Second), fx.rampInStart)
	assert.Equal(t, fx.timeoutAt, fx.rampOutStart)
}

func TestVolumeFx_FadeOutScenario(t *testing.T) {
	m, clock, _ := newTestMixer()

	p := newFakePlayable(time.Minute)
	s := m.CreateSound("a", p)
	s.PlayTimeout(false, 1, false, 500*time.Millisecond, time.Second)

	clock.Advance(500*time.Millisecond + 250*time.Millisecond)
	m.Update()

	assert.InDelta(t, 0.75, s.FadeScale(), 1e-6)
	assert.InDelta(t, 0.75, p.volume, 1e-6)
	assert.True(t, s.Playing())
}

func TestVolumeFx_FadeInHoldsAtFull(t *testing.T) {
	m, clock, _ := newTestMixer()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.PlayTimeout(false, 1, false, 2*time.Second, time.Second)

	for range 4 {
		clock.Advance(400 * time.Millisecond)
		m.Update()
		assert.Equal(t, 1.0, s.FadeScale())
	}
}

func TestVolumeFx_PartialFadeIn(t *testing.T) {
	m, clock, _ := newTestMixer()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.Play(false, 1, false)
	s.fadeScale = 0.2
	s.fx = newVolumeFx(s, 300*time.Millisecond, time.Second)
	fx := s.fx

	// The fade-in can only reach 0.5 before the timeout, so the fade-out
	// starts from 0.5 rather than jumping to 1.0.
	assert.WithinDuration(t, fx.timeoutAt.Add(-500*time.Millisecond), fx.rampOutStart, time.Microsecond)

	clock.Advance(100 * time.Millisecond)
	m.Update()
	assert.InDelta(t, 0.3, s.FadeScale(), 1e-6)

	clock.Advance(200 * time.Millisecond)
	m.Update()
	assert.InDelta(t, 0.5, s.FadeScale(), 1e-6)

	clock.Advance(100 * time.Millisecond)
	m.Update()
	assert.InDelta(t, 0.4, s.FadeScale(), 1e-6)
}

func TestVolumeFx_TimeoutBoundaryIsFadeOut(t *testing.T) {
	m, _, _ := newTestMixer()

	// Both ramps meet at the timeout, so the branch taken there is only
	// visible through the fade-out side effect: a silent sound is paused.
	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.Play(false, 1, false)
	s.fadeScale = 0
	s.fx = newVolumeFx(s, 0, time.Second)

	m.Update()

	assert.Equal(t, 0.0, s.FadeScale())
	assert.True(t, s.Paused())
	assert.Nil(t, s.Fx())
}

func TestVolumeFx_BeforeTimeoutIsFadeIn(t *testing.T) {
	m, clock, _ := newTestMixer()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.Play(false, 1, false)
	s.fadeScale = 0
	s.fx = newVolumeFx(s, time.Millisecond, time.Second)

	clock.Advance(time.Millisecond - time.Nanosecond)
	m.Update()

	assert.InDelta(t, 0.001, s.FadeScale(), 1e-6)
	assert.False(t, s.Paused())
	assert.NotNil(t, s.Fx())
}

func TestVolumeFx_FadeOutCompletes(t *testing.T) {
	m, clock, _ := newTestMixer()

	p := newFakePlayable(time.Minute)
	s := m.CreateSound("a", p)
	s.PlayTimeout(true, 0.8, false, 0, time.Second)
	p.position = 10 * time.Second

	clock.Advance(time.Second)
	m.Update()

	assert.Equal(t, 0.0, s.FadeScale())
	assert.True(t, s.Paused())
	assert.False(t, s.Playing())
	assert.False(t, p.playing)
	assert.Nil(t, s.Fx())
	assert.Equal(t, 0, m.ActiveEffects())

	// Force-pause keeps position and loop state.
	assert.Equal(t, 10*time.Second, p.position)
	assert.True(t, s.Loop())
	assert.Equal(t, VolumeMin, p.volume)
}

func TestVolumeFx_ReleaseIdempotent(t *testing.T) {
	m, _, _ := newTestMixer()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.PlayTimeout(false, 1, false, time.Second, time.Second)
	fx := s.Fx()

	fx.Release()
	fx.Release()
	fx.Update()

	assert.Nil(t, s.Fx())
	assert.Equal(t, 0, m.ActiveEffects())
}

func TestVolumeFx_ZeroSpeed(t *testing.T) {
	m, clock, _ := newTestMixer()

	s := m.CreateSound("a", newFakePlayable(time.Minute))
	s.PlayTimeout(false, 1, false, time.Second, 0)

	clock.Advance(500 * time.Millisecond)
	m.Update()
	assert.Equal(t, 1.0, s.FadeScale())

	clock.Advance(500*time.Millisecond + time.Nanosecond)
	m.Update()
	assert.Equal(t, 0.0, s.FadeScale())
	assert.True(t, s.Paused())
}

func TestVolumeFx_NegativeBaseVolume(t *testing.T) {
	m, clock, _ := newTestMixer()
	m.SetMaxVolume(0, 1)

	p := newFakePlayable(time.Minute)
	s := m.CreateSound("a", p)
	s.PlayTimeout(false, -0.8, false, 0, time.Second)

	clock.Advance(500 * time.Millisecond)
	m.Update()

	assert.InDelta(t, 0.4, p.volume, 1e-6, "effect-only volume ignores the muted master")
}
