package audio

import (
	"crypto/rand"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/oklog/ulid/v2"
)

// Track is a seekable, pausable playback element over a decoded buffer.
// It implements mixer.Playable.
//
// Track is pulled by the speaker goroutine and controlled from the mixer
// goroutine, so all state sits behind mu. The end-of-playback handler is
// never called from Stream: completions are queued on the owning Device and
// delivered by Device.Dispatch.
type Track struct {
	id     ulid.ULID
	name   string
	format beep.Format

	mu        sync.Mutex
	stream    beep.StreamSeeker
	volume    *effects.Volume
	level     float64
	playing   bool
	loop      bool
	detached  bool
	gen       uint64
	completed func()
	notify    func(t *Track, gen uint64)
}

// NewTrack creates a stopped track over buffer. name is only used for logs.
func NewTrack(name string, buffer *beep.Buffer) *Track {
	stream := buffer.Streamer(0, buffer.Len())

	return &Track{
		id:     ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader),
		name:   name,
		format: buffer.Format(),
		stream: stream,
		volume: &effects.Volume{
			Streamer: stream,
			Base:     2,
		},
		level: 1.0,
	}
}

// ID returns the unique track identifier.
func (t *Track) ID() ulid.ULID { return t.id }

// Name returns the name the track was created with.
func (t *Track) Name() string { return t.name }

// Format returns the format of the underlying buffer.
func (t *Track) Format() beep.Format { return t.format }

// Play starts or resumes playback. A track that already reached its end
// starts again from the beginning.
func (t *Track) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stream.Position() >= t.stream.Len() {
		_ = t.stream.Seek(0)
	}
	t.playing = true
	t.gen++
}

// Pause halts playback and keeps the position.
func (t *Track) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
}

// IsPlaying reports whether the track is producing audio.
func (t *Track) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// SetLoop sets whether the track restarts when it reaches its end.
func (t *Track) SetLoop(loop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loop = loop
}

// SetVolume sets the linear output level.
func (t *Track) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = level
	t.volume.Silent = level <= 0
	if level > 0 {
		t.volume.Volume = math.Log2(level)
	}
}

// Level returns the linear output level.
func (t *Track) Level() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

// SetPosition seeks to pos, clamped to the track bounds.
func (t *Track) SetPosition(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := min(max(t.format.SampleRate.N(pos), 0), t.stream.Len())
	_ = t.stream.Seek(n)
}

// Position returns the current playback offset.
func (t *Track) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.format.SampleRate.D(t.stream.Position())
}

// Duration returns the total length of the track.
func (t *Track) Duration() time.Duration {
	return t.format.SampleRate.D(t.stream.Len())
}

// OnCompleted sets the end-of-playback handler. nil unbinds it.
func (t *Track) OnCompleted(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed = fn
}

// Stream implements beep.Streamer. A stopped or paused track streams
// silence; a detached track is drained so the beep mixer drops it.
func (t *Track) Stream(samples [][2]float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.detached {
		return 0, false
	}

	filled := 0
	for t.playing && filled < len(samples) {
		want := len(samples) - filled
		n, _ := t.volume.Stream(samples[filled:])
		filled += n
		if n == want {
			break
		}

		if t.loop && t.stream.Len() > 0 {
			if err := t.stream.Seek(0); err != nil {
				t.playing = false
			}
			continue
		}

		t.playing = false
		if t.notify != nil {
			t.notify(t, t.gen)
		}
	}

	clear(samples[filled:])
	return len(samples), true
}

// Err implements beep.Streamer.
func (t *Track) Err() error {
	return t.stream.Err()
}

// completionHandler returns the handler to call for a completion queued at
// generation gen, or nil if the track was restarted since.
func (t *Track) completionHandler(gen uint64) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gen != gen || t.playing || t.detached {
		return nil
	}
	return t.completed
}

func (t *Track) attach(notify func(*Track, uint64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = notify
	t.detached = false
}

func (t *Track) detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = nil
	t.detached = true
	t.playing = false
}
