// Package tui provides the BubbleTea-based mixer board.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/fademix/internal/adapter/output"
	"github.com/jmylchreest/fademix/internal/audio"
	"github.com/jmylchreest/fademix/internal/config"
	"github.com/jmylchreest/fademix/internal/daemon"
	"github.com/jmylchreest/fademix/internal/mixer"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeBoard Mode = iota
	ModeHelp
)

// Dispatcher delivers completion notifications queued by the output.
type Dispatcher interface {
	Dispatch() int
}

// barWidth is the number of cells in a level bar.
const barWidth = 20

// Model is the main TUI model. The mixer is owned by the BubbleTea update
// loop: every mixer call happens inside Update.
type Model struct {
	// Configuration
	cfg *config.Config

	// Mixer and its collaborators
	mixer      *mixer.Mixer
	manager    *audio.Manager
	dispatcher Dispatcher
	tick       time.Duration

	// Current mode
	mode Mode

	// Components
	help help.Model

	// State
	sounds []mixer.SoundState
	cursor int
	width  int
	height int
	ready  bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

// Options configures a Model.
type Options struct {
	Config     *config.Config
	Mixer      *mixer.Mixer
	Manager    *audio.Manager // nil plays sounds with their current settings
	Dispatcher Dispatcher     // nil skips completion delivery
}

// New creates a new TUI model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := Model{
		cfg:        cfg,
		mixer:      opts.Mixer,
		manager:    opts.Manager,
		dispatcher: opts.Dispatcher,
		tick:       cfg.Mixer.Tick.Duration(),
		mode:       ModeBoard,
		help:       help.New(),
		keys:       DefaultKeyMap(),
	}
	m.sounds = m.mixer.Snapshot()
	return m
}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

type frameMsg time.Time

// SoundsChangedMsg asks the board to rebind the sound table.
type SoundsChangedMsg struct{}

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		m.step()
		return m, m.nextFrame()

	case SoundsChangedMsg:
		m.populate()
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, status("Configuration reloaded", false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	return m, nil
}

// step runs one mixer tick and refreshes the board.
func (m *Model) step() {
	if m.dispatcher != nil {
		m.dispatcher.Dispatch()
	}
	m.mixer.Update()
	m.refresh()
}

// refresh re-reads sound state and keeps the cursor in range.
func (m *Model) refresh() {
	m.sounds = m.mixer.Snapshot()
	m.cursor = max(min(m.cursor, len(m.sounds)-1), 0)
}

func (m *Model) populate() {
	if m.manager == nil {
		return
	}
	m.manager.Populate(m.mixer)
	m.refresh()
}

// applyConfig switches to a reloaded configuration. Audio output settings
// only take effect on restart.
func (m *Model) applyConfig(cfg *config.Config) {
	c := *cfg
	c.Audio = m.cfg.Audio
	m.cfg = &c

	if m.manager != nil {
		m.manager.UpdateConfig(m.cfg)
	}
	m.mixer.SetMaxVolume(c.Mixer.Volume, c.Mixer.MaxVolume)
	m.populate()
	m.refresh()
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeBoard
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeBoard
		}
		return m, nil
	}

	return m.handleBoardKey(msg)
}

// handleBoardKey handles keys on the mixer board.
func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor = max(min(m.cursor+1, len(m.sounds)-1), 0)
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.cursor = max(len(m.sounds)-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.StopAll):
		m.mixer.Stop()
		m.refresh()
		return m, status("All sounds stopped", false)

	case key.Matches(msg, m.keys.MasterUp):
		m.adjustMaster(m.cfg.TUI.VolumeStep)
		return m, nil

	case key.Matches(msg, m.keys.MasterDown):
		m.adjustMaster(-m.cfg.TUI.VolumeStep)
		return m, nil

	case key.Matches(msg, m.keys.CopyYAML):
		return m, m.copySnapshot(output.FormatYAML)

	case key.Matches(msg, m.keys.CopyJSON):
		return m, m.copySnapshot(output.FormatJSON)

	case key.Matches(msg, m.keys.Refresh):
		if m.manager == nil {
			return m, nil
		}
		m.populate()
		return m, status(fmt.Sprintf("Reloaded %d sounds", len(m.sounds)), false)
	}

	s := m.selected()
	if s == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Play):
		m.togglePlay(s)

	case key.Matches(msg, m.keys.Fade):
		m.playFade(s)

	case key.Matches(msg, m.keys.Sustain):
		var ok bool
		if m.manager != nil {
			ok = m.manager.Sustain(m.mixer, s.Key())
		} else {
			ok = s.Sustain(m.cfg.Fade.Timeout.Duration(), m.cfg.Fade.Speed.Duration())
		}
		if !ok {
			m.refresh()
			return m, status(s.Key()+" is not playing", true)
		}

	case key.Matches(msg, m.keys.Stop):
		s.Stop()

	case key.Matches(msg, m.keys.VolumeUp):
		m.adjustVolume(s, m.cfg.TUI.VolumeStep)

	case key.Matches(msg, m.keys.VolumeDown):
		m.adjustVolume(s, -m.cfg.TUI.VolumeStep)

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// selected returns the sound under the cursor.
func (m Model) selected() *mixer.Sound {
	if m.cursor < 0 || m.cursor >= len(m.sounds) {
		return nil
	}
	return m.mixer.Get(m.sounds[m.cursor].Key)
}

func (m Model) togglePlay(s *mixer.Sound) {
	switch {
	case s.Playing():
		s.Pause(true)
	case s.Paused():
		s.Pause(false)
	case m.manager != nil:
		m.manager.Play(m.mixer, s.Key())
	default:
		s.Play(s.Loop(), s.Volume(), true)
	}
}

func (m Model) playFade(s *mixer.Sound) {
	if m.manager != nil {
		m.manager.PlayFade(m.mixer, s.Key())
		return
	}
	s.PlayTimeout(s.Loop(), s.Volume(), false, m.cfg.Fade.Timeout.Duration(), m.cfg.Fade.Speed.Duration())
}

// adjustVolume steps the base volume of s. Effect-only (negative) volumes
// step in magnitude and keep their sign.
func (m Model) adjustVolume(s *mixer.Sound, step float64) {
	v := s.Volume()
	sign := 1.0
	if v < 0 {
		sign = -1
		v = -v
	}
	v = math.Round((v+step)*100) / 100
	s.SetVolume(sign * clampVolume(v))
}

func (m Model) adjustMaster(step float64) {
	volume, maxVolume := m.mixer.Volume()
	volume = math.Round((volume+step)*100) / 100
	m.mixer.SetMaxVolume(min(max(volume, 0), maxVolume), maxVolume)
	m.refresh()
}

// copySnapshot copies the mixer state to the clipboard.
func (m Model) copySnapshot(format output.FormatType) tea.Cmd {
	text, err := renderSnapshot(output.Capture(m.mixer, time.Now()), format)
	if err != nil {
		return status("Failed to format snapshot: "+err.Error(), true)
	}
	cfg := m.cfg
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, cfg)}
	}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

func clampVolume(v float64) float64 {
	return min(max(v, mixer.VolumeMin), mixer.VolumeMax)
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeBoard:
		return m.viewBoard()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fadingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func (m Model) viewBoard() string {
	var sb strings.Builder

	volume, maxVolume := m.mixer.Volume()
	fading := 0
	for _, s := range m.sounds {
		if s.Fading {
			fading++
		}
	}
	sb.WriteString(titleStyle.Render("fademix"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  master %.2f / %.2f  %d sounds  %d fading",
		volume, maxVolume, len(m.sounds), fading)))
	sb.WriteString("\n\n")

	if len(m.sounds) == 0 {
		sb.WriteString(dimStyle.Render("No sounds configured."))
		sb.WriteString("\n")
	}

	keyWidth := 0
	for _, s := range m.sounds {
		keyWidth = max(keyWidth, lipgloss.Width(s.Key))
	}

	for i, s := range m.sounds {
		sb.WriteString(m.renderSound(i, &s, keyWidth))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		sb.WriteString(style.Render(m.statusMsg))
	} else {
		sb.WriteString(m.buildKeybindBar(m.width))
	}

	return sb.String()
}

// renderSound renders one board row.
func (m Model) renderSound(index int, s *mixer.SoundState, keyWidth int) string {
	prefix := "  "
	name := fmt.Sprintf("%-*s", keyWidth, s.Key)
	if index == m.cursor {
		prefix = cursorStyle.Render("> ")
		name = cursorStyle.Render(name)
	}

	var state string
	switch {
	case s.Paused:
		state = pausedStyle.Render("paused ")
	case s.Playing:
		state = playingStyle.Render("playing")
	default:
		state = dimStyle.Render("stopped")
	}

	loop := "    "
	if s.Loop {
		loop = "loop"
	}

	style := barStyle
	if s.Fading {
		style = fadingStyle
	}
	bar := levelBar(s.OutputVolume, style)

	detail := output.FormatField(s, "duration")
	if s.Playing {
		detail = output.FormatField(s, "left") + " left"
	}

	return fmt.Sprintf("%s%s  %s  %s  %s %s  %s",
		prefix, name, state, loop, bar, output.FormatField(s, "output"), dimStyle.Render(detail))
}

// levelBar renders level in [0,1] as a fixed-width bar.
func levelBar(level float64, style lipgloss.Style) string {
	filled := int(math.Round(min(max(level, 0), 1) * barWidth))
	return style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func (m Model) viewHelp() string {
	s := titleStyle.MarginBottom(1).Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp())
	s += "\n\n" + dimStyle.Render("Press ? or esc to return")
	return s
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int) string {
	binds := []keybind{
		{"q", "quit", 1},
		{"space", "play", 2},
		{"?", "help", 3},
		{"f", "fade", 4},
		{"x", "stop", 5},
		{"+/-", "volume", 6},
		{"[/]", "master", 7},
		{"s", "sustain", 8},
		{"c", "copy", 9},
		{"r", "reload", 10},
	}

	// Build the bar, adding keybinds until we run out of space
	const separator = "  "
	result := ""
	for _, b := range binds {
		item := keyStyle.Render(b.key) + " " + b.desc
		testLen := lipgloss.Width(result) + lipgloss.Width(item)
		if result != "" {
			testLen += len(separator)
		}

		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += item
	}

	return dimStyle.Render(result)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config     *config.Config
	ConfigPath string // Reloaded on change; empty disables hot reload
	Logger     *slog.Logger
}

// Run opens the audio output, binds the configured sounds and runs the
// board until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	device := audio.NewDevice(cfg.Audio, logger)
	var dispatcher Dispatcher = device
	if cfg.Audio.Enabled {
		if err := device.Open(); err != nil {
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		defer device.Close()
	} else {
		dispatcher = audio.NewSilentSink(device, cfg.Mixer.Tick.Duration())
	}

	mx := mixer.New(device, mixer.WithLogger(logger))
	defer mx.Release()
	mx.SetMaxVolume(cfg.Mixer.Volume, cfg.Mixer.MaxVolume)

	manager := audio.NewManager(cfg, nil, logger)
	if err := manager.Start(ctx); err != nil {
		logger.Warn("sound manager failed to start", "error", err)
	}
	defer manager.Stop()
	manager.Populate(mx)

	m := New(Options{
		Config:     cfg,
		Mixer:      mx,
		Manager:    manager,
		Dispatcher: dispatcher,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Rebind on the update loop when a sound file changes
	manager.OnFileChanged(func(string) { p.Send(SoundsChangedMsg{}) })

	if opts.ConfigPath != "" {
		watcher := daemon.NewConfigWatcher(opts.ConfigPath, logger)
		watcher.SetReloadCallback(func(c *config.Config) { p.Send(ConfigReloadedMsg{Config: c}) })
		if err := watcher.Start(ctx, cfg); err != nil {
			logger.Debug("config hot reload disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	_, err := p.Run()
	return err
}
