package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

// newPlayCmd returns a fresh command carrying the play flags, so Changed
// reflects only what a test sets.
func newPlayCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()

	saved := playOpts
	t.Cleanup(func() { playOpts = saved })
	playOpts = saved
	playOpts.keys = nil
	playOpts.loop = false
	playOpts.volume = 1
	playOpts.timeout = 0
	playOpts.speed = 0
	playOpts.master = -1
	playOpts.noAudio = false

	cmd := &cobra.Command{Use: "play"}
	cmd.Flags().StringArrayVarP(&playOpts.keys, "key", "k", nil, "")
	cmd.Flags().BoolVarP(&playOpts.loop, "loop", "l", false, "")
	cmd.Flags().Float64Var(&playOpts.volume, "volume", 1.0, "")
	cmd.Flags().DurationVar(&playOpts.timeout, "timeout", 0, "")
	cmd.Flags().DurationVar(&playOpts.speed, "speed", 0, "")
	cmd.Flags().Float64Var(&playOpts.master, "master", -1, "")
	cmd.Flags().BoolVar(&playOpts.noAudio, "no-audio", false, "")

	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return path
}

func baseConfig() *config.Config {
	c := config.DefaultConfig()
	c.Sounds["rain"] = config.SoundConfig{Path: "~/sounds/rain.ogg", Volume: 0.6, Loop: true}
	c.Sounds["chime"] = config.SoundConfig{Path: "~/sounds/chime.wav"}
	return c
}

func TestPlayConfig_ConfiguredKeys(t *testing.T) {
	cmd := newPlayCmd(t, nil)
	base := baseConfig()

	c, keys, err := playConfig(base, []string{"rain"}, cmd)
	require.NoError(t, err)

	assert.Equal(t, []string{"rain"}, keys)
	assert.Equal(t, []string{"rain"}, c.SoundKeys())
	assert.Equal(t, base.Sounds["rain"], c.Sounds["rain"])

	// The base table is untouched
	assert.Len(t, base.Sounds, 2)
}

func TestPlayConfig_Files(t *testing.T) {
	dir := t.TempDir()
	bell := touch(t, dir, "bell.wav")
	gong := touch(t, dir, "gong.mp3")

	cmd := newPlayCmd(t, map[string]string{"key": "first"})
	c, keys, err := playConfig(baseConfig(), []string{bell, "chime", gong}, cmd)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "chime", "gong"}, keys)
	assert.Equal(t, bell, c.Sounds["first"].Path)
	assert.Equal(t, 1.0, c.Sounds["gong"].Volume)
}

func TestPlayConfig_Overrides(t *testing.T) {
	cmd := newPlayCmd(t, map[string]string{
		"loop":     "true",
		"volume":   "0.3",
		"timeout":  "2s",
		"speed":    "500ms",
		"master":   "1.5",
		"no-audio": "true",
	})

	c, _, err := playConfig(baseConfig(), []string{"chime"}, cmd)
	require.NoError(t, err)

	assert.True(t, c.Sounds["chime"].Loop)
	assert.Equal(t, 0.3, c.Sounds["chime"].Volume)
	assert.Equal(t, 2*time.Second, c.Fade.Timeout.Duration())
	assert.Equal(t, 500*time.Millisecond, c.Fade.Speed.Duration())
	assert.Equal(t, 1.5, c.Mixer.Volume)
	assert.Equal(t, 1.5, c.Mixer.MaxVolume)
	assert.False(t, c.Audio.Enabled)
}

func TestPlayConfig_ZeroTimeoutAndVolume(t *testing.T) {
	cmd := newPlayCmd(t, map[string]string{"timeout": "0s", "volume": "0"})

	c, _, err := playConfig(baseConfig(), []string{"rain"}, cmd)
	require.NoError(t, err)

	assert.Zero(t, c.Fade.Timeout.Duration())
	assert.Equal(t, mixer.VolumeMin, c.Sounds["rain"].Volume)
}

func TestPlayConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bell := touch(t, dir, "bell.wav")

	t.Run("unknown sound", func(t *testing.T) {
		_, _, err := playConfig(baseConfig(), []string{"missing"}, newPlayCmd(t, nil))
		assert.Error(t, err)
	})

	t.Run("duplicate key", func(t *testing.T) {
		cmd := newPlayCmd(t, map[string]string{"key": "rain"})
		_, _, err := playConfig(baseConfig(), []string{"rain", bell}, cmd)
		assert.ErrorContains(t, err, "duplicate sound key")
	})
}

func TestFileKey(t *testing.T) {
	newPlayCmd(t, nil)
	playOpts.keys = []string{"one", ""}

	assert.Equal(t, "one", fileKey("/tmp/a.wav", 0))
	assert.Equal(t, "b", fileKey("/tmp/b.ogg", 1))
	assert.Equal(t, "c.tar", fileKey("c.tar.gz", 2))
}
