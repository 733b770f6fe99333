package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

// Device mixes attached tracks into one stream and feeds it to the speaker.
// It implements mixer.Output.
type Device struct {
	logger *slog.Logger

	sampleRate beep.SampleRate
	buffer     time.Duration
	quality    int

	// Guarded by the speaker lock once the device is open.
	mix *beep.Mixer

	mu      sync.Mutex
	open    bool
	tracks  map[*Track]struct{}
	pending []completion
}

// completion is a finished playthrough waiting for Dispatch.
type completion struct {
	track *Track
	gen   uint64
}

// NewDevice creates a closed device. Tracks can be attached before Open.
func NewDevice(cfg config.AudioConfig, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}

	return &Device{
		logger:     logger,
		sampleRate: beep.SampleRate(cfg.SampleRate),
		buffer:     cfg.Buffer.Duration(),
		quality:    cfg.ResampleQuality,
		mix:        &beep.Mixer{},
		tracks:     make(map[*Track]struct{}),
	}
}

// SampleRate returns the output sample rate.
func (d *Device) SampleRate() beep.SampleRate {
	return d.sampleRate
}

// Open initializes the speaker and starts playing the mix.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}

	bufferSize := d.sampleRate.N(d.buffer)
	if err := speaker.Init(d.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	speaker.Play(d.mix)

	d.open = true
	d.logger.Debug("speaker initialized", "sample_rate", d.sampleRate, "buffer", d.buffer)
	return nil
}

// Close stops the speaker. Attached tracks stay attached.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return
	}
	speaker.Clear()
	speaker.Close()
	d.open = false
	d.logger.Debug("speaker closed")
}

// Attach adds a track to the mix. Playables that are not *Track are ignored.
func (d *Device) Attach(p mixer.Playable) {
	t, ok := p.(*Track)
	if !ok {
		d.logger.Warn("cannot attach foreign playable", "type", fmt.Sprintf("%T", p))
		return
	}

	d.mu.Lock()
	if _, exists := d.tracks[t]; exists {
		d.mu.Unlock()
		return
	}
	d.tracks[t] = struct{}{}
	d.mu.Unlock()

	t.attach(d.enqueue)

	var s beep.Streamer = t
	if rate := t.Format().SampleRate; rate != d.sampleRate {
		s = beep.Resample(d.quality, rate, d.sampleRate, t)
	}
	d.withMix(func() { d.mix.Add(s) })

	d.logger.Debug("track attached", "id", t.ID(), "name", t.Name())
}

// Detach removes a track from the mix. Its pending completions are dropped.
func (d *Device) Detach(p mixer.Playable) {
	t, ok := p.(*Track)
	if !ok {
		return
	}

	d.mu.Lock()
	if _, exists := d.tracks[t]; !exists {
		d.mu.Unlock()
		return
	}
	delete(d.tracks, t)
	d.mu.Unlock()

	// The beep mixer drops the track on its next pull.
	t.detach()

	d.logger.Debug("track detached", "id", t.ID(), "name", t.Name())
}

// Attached returns the number of attached tracks.
func (d *Device) Attached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tracks)
}

// Dispatch delivers queued completion notifications on the calling
// goroutine and returns how many handlers ran.
func (d *Device) Dispatch() int {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	ran := 0
	for _, c := range pending {
		if fn := c.track.completionHandler(c.gen); fn != nil {
			fn()
			ran++
		}
	}
	return ran
}

// Streamer returns the mixed output. It is what the speaker pulls; tests and
// offline rendering can pull it directly while the device is closed.
func (d *Device) Streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		var n int
		var ok bool
		d.withMix(func() { n, ok = d.mix.Stream(samples) })
		return n, ok
	})
}

// enqueue is called from Track.Stream with the track lock held.
func (d *Device) enqueue(t *Track, gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, completion{track: t, gen: gen})
}

func (d *Device) withMix(fn func()) {
	d.mu.Lock()
	open := d.open
	d.mu.Unlock()

	if open {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn()
}

// SilentSink renders a device's mix into a scratch buffer before each
// dispatch, so tracks advance and complete with no speaker pulling them.
type SilentSink struct {
	device *Device
	buf    [][2]float64
}

// NewSilentSink renders tick worth of samples per Dispatch.
func NewSilentSink(device *Device, tick time.Duration) *SilentSink {
	n := max(device.SampleRate().N(tick), 1)
	return &SilentSink{
		device: device,
		buf:    make([][2]float64, n),
	}
}

// Dispatch renders one tick of audio and delivers the completions it caused.
func (s *SilentSink) Dispatch() int {
	s.device.Streamer().Stream(s.buf)
	return s.device.Dispatch()
}
