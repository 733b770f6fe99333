package mixer

import "time"

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakePlayable records every call made by a Sound.
type fakePlayable struct {
	playing   bool
	loop      bool
	volume    float64
	position  time.Duration
	duration  time.Duration
	completed func()

	plays     int
	pauses    int
	seeks     int
	volumeSet int
}

func newFakePlayable(duration time.Duration) *fakePlayable {
	return &fakePlayable{duration: duration, volume: -1}
}

func (p *fakePlayable) Play()             { p.playing = true; p.plays++ }
func (p *fakePlayable) Pause()            { p.playing = false; p.pauses++ }
func (p *fakePlayable) SetLoop(loop bool) { p.loop = loop }
func (p *fakePlayable) SetVolume(level float64) {
	p.volume = level
	p.volumeSet++
}
func (p *fakePlayable) SetPosition(pos time.Duration) { p.position = pos; p.seeks++ }
func (p *fakePlayable) Position() time.Duration       { return p.position }
func (p *fakePlayable) Duration() time.Duration       { return p.duration }
func (p *fakePlayable) OnCompleted(fn func())         { p.completed = fn }

// finish simulates the end of a playthrough.
func (p *fakePlayable) finish() {
	if p.loop {
		p.position = 0
		return
	}
	p.playing = false
	p.position = p.duration
	if p.completed != nil {
		p.completed()
	}
}

// fakeOutput tracks attached handles.
type fakeOutput struct {
	attached map[Playable]bool
	detaches int
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{attached: make(map[Playable]bool)}
}

func (o *fakeOutput) Attach(p Playable) { o.attached[p] = true }

func (o *fakeOutput) Detach(p Playable) {
	delete(o.attached, p)
	o.detaches++
}

func newTestMixer() (*Mixer, *fakeClock, *fakeOutput) {
	clock := newFakeClock()
	out := newFakeOutput()
	return New(out, WithClock(clock)), clock, out
}
