package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fademix/internal/tui"
)

var tuiOpts struct {
	noAudio bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive mixer board",
	Long: `Launch the interactive mixer board over the configured sound table.

The board provides:
  - Live state, level and time left for every sound
  - Play, fade, sustain and stop per sound
  - Per-sound and master volume control
  - Copy the mixer state to the clipboard as YAML or JSON
  - Automatic rebinding when a sound file changes on disk

Key bindings:
  j/k, ↑/↓    Navigate sounds
  space       Play/pause
  f           Play with fade
  s           Sustain a fading sound
  x / X       Stop / stop all
  + / -       Sound volume
  [ / ]       Master volume
  c / C       Copy state as YAML / JSON
  r           Reload sounds
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.noAudio, "no-audio", false,
		"Render the mix silently instead of opening the audio device")
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := *getConfig()
	if tuiOpts.noAudio {
		c.Audio.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, tui.RunOptions{
		Config:     &c,
		ConfigPath: configPath(),
		Logger:     logger,
	})
}
