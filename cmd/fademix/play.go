package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/daemon"
	"github.com/jmylchreest/fademix/internal/mixer"
)

var playOpts struct {
	keys    []string
	loop    bool
	volume  float64
	timeout time.Duration
	speed   time.Duration
	master  float64
	noAudio bool
}

var playCmd = &cobra.Command{
	Use:   "play SOUND...",
	Short: "Play sounds and wait for them to finish",
	Long: `Play one or more sounds through the mixer and exit once every sound has
finished or faded out.

Each SOUND is a key from the configured sound table or a path to an audio
file (wav, mp3, ogg). Files are keyed by --key in order, or by their base
name without extension.

Examples:
  # Play a configured sound
  fademix play chime

  # Play a file at half volume
  fademix play ~/sounds/bell.wav --volume 0.5

  # Hold a looping sound for 10s, then fade it out over 3s
  fademix play rain --loop --timeout 10s --speed 3s

  # Play several files under explicit keys
  fademix play a.wav b.wav --key first --key second`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringArrayVarP(&playOpts.keys, "key", "k", nil,
		"Key for each file argument, in order (default: file base name)")
	playCmd.Flags().BoolVarP(&playOpts.loop, "loop", "l", false,
		"Loop the sounds (use with --timeout or stop with Ctrl-C)")
	playCmd.Flags().Float64Var(&playOpts.volume, "volume", 1.0,
		"Base volume for the sounds (negative = effect-only volume)")
	playCmd.Flags().DurationVar(&playOpts.timeout, "timeout", 0,
		"Hold time before fading out (enables the fade effect)")
	playCmd.Flags().DurationVar(&playOpts.speed, "speed", 0,
		"Fade ramp duration (default: [fade] speed from config)")
	playCmd.Flags().Float64Var(&playOpts.master, "master", -1,
		"Master volume (default: [mixer] volume from config)")
	playCmd.Flags().BoolVar(&playOpts.noAudio, "no-audio", false,
		"Render the mix silently instead of opening the audio device")
}

func runPlay(cmd *cobra.Command, args []string) error {
	c, keys, err := playConfig(getConfig(), args, cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Both closures run on the driver goroutine
	started := false
	finished := func(mx *mixer.Mixer) {
		if !started {
			return
		}
		for _, key := range keys {
			if s := mx.Get(key); s != nil && s.Playing() {
				return
			}
		}
		cancel()
	}

	svc := daemon.NewService(c, logger, daemon.WithDriverOptions(daemon.WithTickHook(finished)))

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	fade := cmd.Flags().Changed("timeout")
	go func() {
		err := svc.Do(ctx, func(mx *mixer.Mixer) {
			for _, key := range keys {
				var ok bool
				if fade {
					ok = svc.Manager().PlayFade(mx, key)
				} else {
					ok = svc.Manager().Play(mx, key)
				}
				if !ok {
					logger.Warn("sound not playable", "key", key)
				}
			}
			started = true
		})
		if err != nil {
			logger.Debug("playback not started", "error", err)
		}
	}()

	// Run returns once every sound is idle, on a signal, or on failure
	err = <-errCh
	cancel()
	return err
}

// playConfig derives the config for a play run: only the requested sounds,
// with command line overrides applied. It returns the keys to play.
func playConfig(base *config.Config, args []string, cmd *cobra.Command) (*config.Config, []string, error) {
	c := *base
	c.Sounds = make(map[string]config.SoundConfig, len(args))

	if playOpts.noAudio {
		c.Audio.Enabled = false
	}
	if playOpts.master >= 0 {
		c.Mixer.Volume = playOpts.master
		c.Mixer.MaxVolume = max(c.Mixer.MaxVolume, playOpts.master)
	}
	if playOpts.timeout > 0 {
		c.Fade.Timeout = config.Duration(playOpts.timeout)
	} else if cmd.Flags().Changed("timeout") {
		c.Fade.Timeout = 0
	}
	if playOpts.speed > 0 {
		c.Fade.Speed = config.Duration(playOpts.speed)
	}

	keys := make([]string, 0, len(args))
	fileIndex := 0
	for _, arg := range args {
		key := arg
		sc, ok := base.Sounds[arg]
		if !ok {
			if _, err := os.Stat(config.ExpandPath(arg)); err != nil {
				return nil, nil, fmt.Errorf("%s is neither a configured sound nor a readable file: %w", arg, err)
			}
			key = fileKey(arg, fileIndex)
			fileIndex++
			sc = config.SoundConfig{Path: arg, Volume: 1}
		}

		if cmd.Flags().Changed("volume") {
			sc.Volume = playOpts.volume
			// A zero table volume means full level
			if sc.Volume == 0 {
				sc.Volume = mixer.VolumeMin
			}
		}
		if playOpts.loop {
			sc.Loop = true
		}

		if _, dup := c.Sounds[key]; dup {
			return nil, nil, fmt.Errorf("duplicate sound key %q (use --key)", key)
		}
		c.Sounds[key] = sc
		keys = append(keys, key)
	}

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return &c, keys, nil
}

// fileKey returns the key for the index-th file argument.
func fileKey(path string, index int) string {
	if index < len(playOpts.keys) && playOpts.keys[index] != "" {
		return playOpts.keys[index]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
