package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

// Manager binds the configured sound table to a mixer. It owns the decoded
// buffer library and the file watcher that keeps it fresh.
//
// Populate, Play, PlayFade and Sustain touch the mixer and must run on the
// mixer goroutine. Start, Stop and UpdateConfig are safe from anywhere.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	library *Library
	watcher *Watcher
	config  *config.Config

	// Key to file path for every sound currently in the mixer
	bound map[string]string
}

// NewManager creates a new sound manager. A nil library gets a fresh one.
func NewManager(cfg *config.Config, library *Library, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if library == nil {
		library = NewLibrary(logger)
	}

	m := &Manager{
		logger:  logger,
		library: library,
		config:  cfg,
		bound:   make(map[string]string),
	}

	w, err := NewWatcher(library, logger)
	if err != nil {
		logger.Warn("sound file watching disabled", "error", err)
	} else {
		m.watcher = w
	}

	return m
}

// Library returns the decoded buffer cache.
func (m *Manager) Library() *Library {
	return m.library
}

// Config returns the current configuration.
func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnFileChanged sets a callback fired after a configured sound file changed
// on disk. It runs on the watcher goroutine.
func (m *Manager) OnFileChanged(fn func(path string)) {
	if m.watcher != nil {
		m.watcher.SetChangeCallback(fn)
	}
}

// Start preloads every configured sound and starts watching the files.
// The watcher stops when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	cfg := m.Config()

	loaded := 0
	for _, key := range cfg.SoundKeys() {
		path := cfg.SoundPath(key)
		if err := m.library.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "key", key, "path", path, "error", err)
		} else {
			loaded++
		}
		m.watch(path)
	}

	if m.watcher != nil {
		if err := m.watcher.Start(); err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			_ = m.watcher.Stop()
		}()
	}

	m.logger.Info("sound manager started", "sounds", len(cfg.Sounds), "loaded", loaded)
	return nil
}

// Stop stops the file watcher and drops the cache.
func (m *Manager) Stop() {
	if m.watcher != nil {
		_ = m.watcher.Stop()
	}
	m.library.Clear()
	m.logger.Debug("sound manager stopped")
}

// UpdateConfig swaps the configuration. Call Populate afterwards to apply
// the new sound table to a mixer.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	old := m.config
	m.config = cfg
	m.mu.Unlock()

	for _, key := range old.SoundKeys() {
		if _, ok := cfg.Sounds[key]; !ok || cfg.SoundPath(key) != old.SoundPath(key) {
			m.unwatch(old.SoundPath(key))
		}
	}
	for _, key := range cfg.SoundKeys() {
		m.watch(cfg.SoundPath(key))
	}

	m.logger.Debug("sound manager config updated", "sounds", len(cfg.Sounds))
}

// Populate brings the mixer in line with the sound table and returns the
// number of keyed sounds bound afterwards. Sounds whose file changed path or
// was invalidated are recreated; sounds no longer configured are removed;
// unreadable files are skipped with a warning.
func (m *Manager) Populate(mx *mixer.Mixer) int {
	cfg := m.Config()

	for key := range m.bound {
		if _, ok := cfg.Sounds[key]; !ok {
			mx.Remove(key)
			delete(m.bound, key)
			m.logger.Debug("sound removed", "key", key)
		}
	}

	for _, key := range cfg.SoundKeys() {
		path := cfg.SoundPath(key)
		volume := soundVolume(cfg.Sounds[key])

		if s := mx.Get(key); s != nil && m.bound[key] == path && m.library.Contains(path) {
			if s.Volume() != volume {
				s.SetVolume(volume)
			}
			continue
		}

		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "key", key, "path", path)
			m.drop(mx, key)
			continue
		}

		track, err := m.library.NewTrack(path)
		if err != nil {
			m.logger.Warn("failed to load sound", "key", key, "path", path, "error", err)
			m.drop(mx, key)
			continue
		}

		s := mx.CreateSound(key, track)
		s.SetVolume(volume)
		m.bound[key] = path
		m.logger.Debug("sound bound", "key", key, "path", path, "duration", track.Duration())
	}

	return len(m.bound)
}

// Play starts the named sound from the beginning with its configured volume
// and loop flag. It reports whether the key is bound.
func (m *Manager) Play(mx *mixer.Mixer, key string) bool {
	s, sc, ok := m.lookup(mx, key)
	if !ok {
		return false
	}
	s.Play(sc.Loop, soundVolume(sc), true)
	return true
}

// PlayFade starts the named sound with the configured fade timeout and speed.
func (m *Manager) PlayFade(mx *mixer.Mixer, key string) bool {
	s, sc, ok := m.lookup(mx, key)
	if !ok {
		return false
	}
	fade := m.Config().Fade
	s.PlayTimeout(sc.Loop, soundVolume(sc), false, fade.Timeout.Duration(), fade.Speed.Duration())
	return true
}

// Sustain extends the named sound's fade with the configured settings.
func (m *Manager) Sustain(mx *mixer.Mixer, key string) bool {
	s := mx.Get(key)
	if s == nil {
		return false
	}
	fade := m.Config().Fade
	return s.Sustain(fade.Timeout.Duration(), fade.Speed.Duration())
}

func (m *Manager) lookup(mx *mixer.Mixer, key string) (*mixer.Sound, config.SoundConfig, bool) {
	s := mx.Get(key)
	if s == nil {
		m.logger.Debug("no sound bound for key", "key", key)
		return nil, config.SoundConfig{}, false
	}
	sc, ok := m.Config().Sounds[key]
	if !ok {
		return nil, config.SoundConfig{}, false
	}
	return s, sc, true
}

func (m *Manager) drop(mx *mixer.Mixer, key string) {
	if _, ok := m.bound[key]; ok {
		mx.Remove(key)
		delete(m.bound, key)
	}
}

func (m *Manager) watch(path string) {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Watch(path); err != nil {
		m.logger.Debug("cannot watch sound file", "path", path, "error", err)
	}
}

func (m *Manager) unwatch(path string) {
	if m.watcher != nil {
		m.watcher.Unwatch(path)
	}
}

// soundVolume returns the playback volume for a table entry. An omitted
// volume plays at full level.
func soundVolume(sc config.SoundConfig) float64 {
	if sc.Volume == 0 {
		return mixer.VolumeMax
	}
	return sc.Volume
}
