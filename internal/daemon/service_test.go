package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

func silentConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = false
	cfg.Audio.SampleRate = int(testRate)
	cfg.Mixer.Tick = config.Duration(5 * time.Millisecond)
	cfg.Sounds["chime"] = config.SoundConfig{Path: writeWAV(t, dir, "chime.wav", 800)}
	cfg.Sounds["rain"] = config.SoundConfig{Path: writeWAV(t, dir, "rain.wav", 800), Volume: 0.5, Loop: true}
	return cfg
}

func runService(t *testing.T, s *Service) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("service did not stop")
		}
	})
	return ctx
}

func TestService_BindsSoundTable(t *testing.T) {
	s := NewService(silentConfig(t), nil)
	ctx := runService(t, s)

	var keys []string
	require.NoError(t, s.Do(ctx, func(mx *mixer.Mixer) { keys = mx.Keys() }))
	assert.Equal(t, []string{"chime", "rain"}, keys)
}

func TestService_SilentPlaybackCompletes(t *testing.T) {
	s := NewService(silentConfig(t), nil)
	ctx := runService(t, s)

	var started bool
	require.NoError(t, s.Do(ctx, func(mx *mixer.Mixer) {
		started = s.Manager().Play(mx, "chime")
	}))
	require.True(t, started)

	// 100ms of audio rendered in 5ms slices
	assert.Eventually(t, func() bool {
		var playing bool
		_ = s.Do(ctx, func(mx *mixer.Mixer) { playing = mx.Get("chime").Playing() })
		return !playing
	}, 3*time.Second, 10*time.Millisecond)
}

func TestService_LoopKeepsPlaying(t *testing.T) {
	s := NewService(silentConfig(t), nil)
	ctx := runService(t, s)

	require.NoError(t, s.Do(ctx, func(mx *mixer.Mixer) { s.Manager().Play(mx, "rain") }))

	time.Sleep(200 * time.Millisecond)

	var playing bool
	require.NoError(t, s.Do(ctx, func(mx *mixer.Mixer) { playing = mx.Get("rain").Playing() }))
	assert.True(t, playing)
}

func TestService_FadeRunsOut(t *testing.T) {
	cfg := silentConfig(t)
	cfg.Fade.Timeout = config.Duration(20 * time.Millisecond)
	cfg.Fade.Speed = config.Duration(20 * time.Millisecond)
	s := NewService(cfg, nil)
	ctx := runService(t, s)

	require.NoError(t, s.Do(ctx, func(mx *mixer.Mixer) { s.Manager().PlayFade(mx, "rain") }))

	assert.Eventually(t, func() bool {
		var paused bool
		var active int
		_ = s.Do(ctx, func(mx *mixer.Mixer) {
			paused = mx.Get("rain").Paused()
			active = mx.ActiveEffects()
		})
		return paused && active == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestService_ConfigReload(t *testing.T) {
	cfg := silentConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Save(path))

	s := NewService(cfg, nil, WithConfigReload(path))
	ctx := runService(t, s)

	// Wait until the service is up before changing the file
	require.NoError(t, s.Do(ctx, func(*mixer.Mixer) {}))

	next := *cfg
	next.Mixer.Volume = 0.25
	next.Sounds = map[string]config.SoundConfig{"chime": cfg.Sounds["chime"]}
	require.NoError(t, next.Save(path))

	assert.Eventually(t, func() bool {
		var volume float64
		var keys []string
		_ = s.Do(ctx, func(mx *mixer.Mixer) {
			volume, _ = mx.Volume()
			keys = mx.Keys()
		})
		return volume == 0.25 && len(keys) == 1 && keys[0] == "chime"
	}, 3*time.Second, 20*time.Millisecond)
}
