package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/fademix/internal/audio"
	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

// Service wires the configured sound table, the output device, the mixer
// and its driver together.
type Service struct {
	logger *slog.Logger
	cfg    *config.Config

	device  *audio.Device
	mixer   *mixer.Mixer
	manager *audio.Manager
	driver  *Driver

	// Empty disables config hot reload
	configPath string
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	configPath string
	driverOpts []DriverOption
}

// WithConfigReload reloads the sound table and master volume when the
// config file at path changes.
func WithConfigReload(path string) ServiceOption {
	return func(o *serviceOptions) {
		o.configPath = path
	}
}

// WithDriverOptions passes options through to the driver.
func WithDriverOptions(opts ...DriverOption) ServiceOption {
	return func(o *serviceOptions) {
		o.driverOpts = append(o.driverOpts, opts...)
	}
}

// NewService builds a service from cfg. With audio disabled no speaker is
// opened and the mix is rendered silently at the tick rate, so playback
// positions, completions and fades behave exactly as with a device.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	device := audio.NewDevice(cfg.Audio, logger)
	mx := mixer.New(device, mixer.WithLogger(logger))
	mx.SetMaxVolume(cfg.Mixer.Volume, cfg.Mixer.MaxVolume)

	tick := cfg.Mixer.Tick.Duration()
	var dispatcher Dispatcher = device
	if !cfg.Audio.Enabled {
		dispatcher = audio.NewSilentSink(device, tick)
	}

	return &Service{
		logger:     logger,
		cfg:        cfg,
		device:     device,
		mixer:      mx,
		manager:    audio.NewManager(cfg, nil, logger),
		driver:     NewDriver(mx, dispatcher, tick, logger, o.driverOpts...),
		configPath: o.configPath,
	}
}

// Driver returns the mixer driver.
func (s *Service) Driver() *Driver {
	return s.driver
}

// Manager returns the sound manager.
func (s *Service) Manager() *audio.Manager {
	return s.manager
}

// Do runs fn on the mixer goroutine. See Driver.Do.
func (s *Service) Do(ctx context.Context, fn func(*mixer.Mixer)) error {
	return s.driver.Do(ctx, fn)
}

// Run opens the output, binds the sound table and drives the mixer until
// ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Audio.Enabled {
		if err := s.device.Open(); err != nil {
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		defer s.device.Close()
	}

	if err := s.manager.Start(ctx); err != nil {
		s.logger.Warn("sound manager failed to start", "error", err)
	}
	defer s.manager.Stop()

	// Changed sound files are rebound on the next populate
	s.manager.OnFileChanged(func(path string) {
		if err := s.driver.Do(ctx, func(mx *mixer.Mixer) { s.manager.Populate(mx) }); err != nil {
			s.logger.Debug("sound rebind skipped", "path", path, "error", err)
		}
	})

	// The driver is not running yet, so the mixer is still ours
	bound := s.manager.Populate(s.mixer)
	s.logger.Info("mixer ready", "sounds", bound, "audio", s.cfg.Audio.Enabled)

	if s.configPath != "" {
		watcher := NewConfigWatcher(s.configPath, s.logger)
		watcher.SetReloadCallback(func(cfg *config.Config) { s.applyConfig(ctx, cfg) })
		if err := watcher.Start(ctx, s.cfg); err != nil {
			s.logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	return s.driver.Run(ctx)
}

// applyConfig pushes a reloaded config into the running mixer. Audio
// device and tick settings need a restart.
func (s *Service) applyConfig(ctx context.Context, cfg *config.Config) {
	s.manager.UpdateConfig(cfg)

	err := s.driver.Do(ctx, func(mx *mixer.Mixer) {
		mx.SetMaxVolume(cfg.Mixer.Volume, cfg.Mixer.MaxVolume)
		s.manager.Populate(mx)
	})
	if err != nil {
		s.logger.Debug("config reload not applied", "error", err)
	}
}
