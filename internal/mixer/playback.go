package mixer

import "time"

// Playable is a single playback element provided by the output layer.
type Playable interface {
	Play()
	Pause()
	SetLoop(loop bool)

	// SetVolume sets the linear output level in [VolumeMin, VolumeMax].
	SetVolume(level float64)

	SetPosition(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration

	// OnCompleted registers fn to be called once per non-looped playthrough
	// that reaches the end. Passing nil unbinds the previous handler.
	OnCompleted(fn func())
}

// Output registers playback elements with the audio device.
type Output interface {
	Attach(p Playable)
	Detach(p Playable)
}

// Clock supplies the current instant for fade effects.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
