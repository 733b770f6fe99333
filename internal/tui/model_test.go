package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fademix/internal/adapter/output"
	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/mixer"
)

type nopOutput struct{}

func (nopOutput) Attach(mixer.Playable) {}
func (nopOutput) Detach(mixer.Playable) {}

type fakePlayable struct {
	playing bool
	loop    bool
	volume  float64
	pos     time.Duration
}

func (p *fakePlayable) Play() { p.playing = true }
func (p *fakePlayable) Pause() { p.playing = false }
func (p *fakePlayable) SetLoop(loop bool) { p.loop = loop }
func (p *fakePlayable) SetVolume(v float64) { p.volume = v }
func (p *fakePlayable) SetPosition(d time.Duration) { p.pos = d }
func (p *fakePlayable) Position() time.Duration { return p.pos }
func (p *fakePlayable) Duration() time.Duration { return 2 * time.Second }
func (p *fakePlayable) OnCompleted(func()) {}

type countingDispatcher struct {
	calls int
}

func (d *countingDispatcher) Dispatch() int {
	d.calls++
	return 0
}

func newTestModel(t *testing.T) (Model, *mixer.Mixer) {
	t.Helper()

	mx := mixer.New(nopOutput{})
	t.Cleanup(mx.Release)
	mx.CreateSound("chime", &fakePlayable{}).SetVolume(0.5)
	mx.CreateSound("rain", &fakePlayable{}).SetVolume(1)

	m := New(Options{Config: config.DefaultConfig(), Mixer: mx})
	return m, mx
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)
	}
	return m
}

func TestNew(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, ModeBoard, m.mode)
	assert.Equal(t, 16*time.Millisecond, m.tick)
	require.Len(t, m.sounds, 2)
	assert.Equal(t, "chime", m.sounds[0].Key)
	assert.Zero(t, m.cursor)
}

func TestModel_CursorMovement(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	// Clamped at the bottom
	m = press(t, m, runes("j"))
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, runes("k"), runes("k"))
	assert.Zero(t, m.cursor)

	m = press(t, m, runes("G"))
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, runes("g"))
	assert.Zero(t, m.cursor)
}

func TestModel_PlayPauseToggle(t *testing.T) {
	m, mx := newTestModel(t)
	chime := mx.Get("chime")

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, chime.Playing())
	assert.Equal(t, 0.5, chime.Volume())
	assert.True(t, m.sounds[0].Playing)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, chime.Paused())
	assert.True(t, m.sounds[0].Paused)

	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, chime.Playing())
}

func TestModel_FadeAndSustain(t *testing.T) {
	m, mx := newTestModel(t)

	// Sustain on an idle sound reports an error
	updated, cmd := m.Update(runes("s"))
	m = updated.(Model)
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.True(t, msg.isErr)
	assert.Contains(t, msg.text, "chime")

	m = press(t, m, runes("f"))
	assert.True(t, mx.Get("chime").Playing())
	assert.Equal(t, 1, mx.ActiveEffects())
	assert.True(t, m.sounds[0].Fading)

	press(t, m, runes("s"))
	assert.Equal(t, 1, mx.ActiveEffects())
}

func TestModel_Stop(t *testing.T) {
	m, mx := newTestModel(t)

	m = press(t, m, runes("f"), runes("x"))
	assert.False(t, mx.Get("chime").Playing())
	assert.Zero(t, mx.ActiveEffects())

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace}, runes("j"), tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, mx.Get("chime").Playing())
	require.True(t, mx.Get("rain").Playing())

	updated, cmd := m.Update(runes("X"))
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.False(t, mx.Get("chime").Playing())
	assert.False(t, mx.Get("rain").Playing())
	assert.False(t, m.sounds[1].Playing)
}

func TestModel_VolumeSteps(t *testing.T) {
	m, mx := newTestModel(t)
	chime := mx.Get("chime")

	m = press(t, m, runes("+"), runes("="))
	assert.InDelta(t, 0.6, chime.Volume(), 1e-9)

	m = press(t, m, runes("-"))
	assert.InDelta(t, 0.55, chime.Volume(), 1e-9)

	// Clamped at full level
	m = press(t, m, runes("j"))
	m = press(t, m, runes("+"))
	assert.Equal(t, mixer.VolumeMax, mx.Get("rain").Volume())

	// Effect-only volumes keep their sign
	chime.SetVolume(-0.5)
	m = press(t, m, runes("k"), runes("+"))
	assert.InDelta(t, -0.55, chime.Volume(), 1e-9)
}

func TestModel_MasterVolume(t *testing.T) {
	m, mx := newTestModel(t)

	m = press(t, m, runes("["), runes("["))
	volume, maxVolume := mx.Volume()
	assert.InDelta(t, 0.9, volume, 1e-9)
	assert.Equal(t, 1.0, maxVolume)

	// Never above the maximum
	press(t, m, runes("]"), runes("]"), runes("]"))
	volume, _ = mx.Volume()
	assert.Equal(t, 1.0, volume)
}

func TestModel_FrameTick(t *testing.T) {
	mx := mixer.New(nopOutput{})
	t.Cleanup(mx.Release)
	s := mx.CreateSound("chime", &fakePlayable{})
	disp := &countingDispatcher{}

	m := New(Options{Config: config.DefaultConfig(), Mixer: mx, Dispatcher: disp})
	s.PlayTimeout(false, 1, true, 0, time.Nanosecond)
	time.Sleep(time.Millisecond)

	updated, cmd := m.Update(frameMsg(time.Now()))
	m = updated.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, disp.calls)

	// The zero-timeout fade ran out during the frame
	assert.Zero(t, mx.ActiveEffects())
	assert.True(t, m.sounds[0].Paused)
}

func TestModel_ConfigReloaded(t *testing.T) {
	m, mx := newTestModel(t)
	m.cfg.Audio.Enabled = false

	next := config.DefaultConfig()
	next.Mixer.Volume = 0.4
	next.TUI.VolumeStep = 0.1

	updated, cmd := m.Update(ConfigReloadedMsg{Config: next})
	m = updated.(Model)
	require.NotNil(t, cmd)

	volume, _ := mx.Volume()
	assert.Equal(t, 0.4, volume)
	assert.Equal(t, 0.1, m.cfg.TUI.VolumeStep)
	// Output settings are kept until restart
	assert.False(t, m.cfg.Audio.Enabled)
	assert.True(t, next.Audio.Enabled)

	press(t, m, runes("+"))
	assert.InDelta(t, 0.6, mx.Get("chime").Volume(), 1e-9)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = press(t, m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	// Board keys are ignored while help is shown
	m = press(t, m, runes("j"))
	assert.Zero(t, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeBoard, m.mode)

	m = press(t, m, runes("?"), runes("?"))
	assert.Equal(t, ModeBoard, m.mode)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModel_StatusMessages(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	updated, cmd := m.Update(copyResultMsg{})
	m = updated.(Model)
	require.NotNil(t, cmd)

	m = press(t, m, cmd())
	assert.Equal(t, "Copied to clipboard", m.statusMsg)
	assert.Contains(t, m.View(), "Copied to clipboard")

	m = press(t, m, clearStatusMsg{})
	assert.Empty(t, m.statusMsg)
	assert.Contains(t, m.View(), "quit")
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "Initializing...", m.View())

	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}, tea.KeyMsg{Type: tea.KeySpace})
	view := m.View()

	assert.Contains(t, view, "master 1.00 / 1.00")
	assert.Contains(t, view, "2 sounds")
	assert.Contains(t, view, "chime")
	assert.Contains(t, view, "playing")
	assert.Contains(t, view, "rain")
	assert.Contains(t, view, "stopped")
	assert.Contains(t, view, "2 seconds left")
}

func TestModel_EmptyBoard(t *testing.T) {
	mx := mixer.New(nopOutput{})
	m := New(Options{Mixer: mx})
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	// Sound keys are no-ops without sounds
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace}, runes("x"), runes("j"))
	assert.Zero(t, m.cursor)
	assert.Contains(t, m.View(), "No sounds configured.")
}

func TestLevelBar(t *testing.T) {
	full := levelBar(1, barStyle)
	assert.Equal(t, barWidth, strings.Count(full, "█"))

	half := levelBar(0.5, barStyle)
	assert.Equal(t, barWidth/2, strings.Count(half, "█"))
	assert.Equal(t, barWidth/2, strings.Count(half, "░"))

	assert.Equal(t, barWidth, strings.Count(levelBar(-1, barStyle), "░"))
}

func TestBuildKeybindBar(t *testing.T) {
	m, _ := newTestModel(t)

	bar := m.buildKeybindBar(0)
	assert.Contains(t, bar, "quit")
	assert.Contains(t, bar, "reload")

	narrow := m.buildKeybindBar(20)
	assert.Contains(t, narrow, "quit")
	assert.NotContains(t, narrow, "reload")
}

func TestRenderSnapshot(t *testing.T) {
	_, mx := newTestModel(t)

	text, err := renderSnapshot(output.Capture(mx, time.Now()), output.FormatKeys)
	require.NoError(t, err)
	assert.Equal(t, "chime\nrain\n", text)
}

func TestDetectClipboardCommand_Configured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TUI.Clipboard = "my-copy --stdin"
	assert.Equal(t, "my-copy --stdin", detectClipboardCommand(cfg))
}
