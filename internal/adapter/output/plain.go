package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// PlainFormatter formats snapshots as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes a master volume header followed by one line per sound.
func (f *PlainFormatter) Format(w io.Writer, snap Snapshot) error {
	sounds := visible(snap.Sounds, f.opts)

	if f.template == nil {
		header := fmt.Sprintf("master %s / %s, %d sounds, %d fading",
			formatVolume(snap.Volume, f.opts.Digits),
			formatVolume(snap.MaxVolume, f.opts.Digits),
			len(snap.Sounds), snap.ActiveEffects)
		if snap.CacheBytes > 0 {
			header += ", " + humanize.Bytes(snap.CacheBytes) + " cached"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
	}

	for i, s := range sounds {
		if err := f.formatSound(w, i+1, &s); err != nil {
			return err
		}
	}
	return nil
}

// formatSound formats a single sound.
func (f *PlainFormatter) formatSound(w io.Writer, index int, s *mixer.SoundState) error {
	// Use custom template if available
	if f.template != nil {
		if err := f.template.Execute(w, templateData{Index: index, Sound: s}); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	sb.WriteString(s.Key)
	sb.WriteString(" " + stateName(s))
	if s.Loop {
		sb.WriteString(" loop")
	}

	sb.WriteString(fmt.Sprintf(" vol %s out %s",
		formatVolume(s.Volume, f.opts.Digits), formatVolume(s.OutputVolume, f.opts.Digits)))
	if s.Fading {
		sb.WriteString(" fade " + formatVolume(s.FadeScale, f.opts.Digits))
	}

	if s.Playing {
		sb.WriteString(fmt.Sprintf(" (%s left of %s)", formatDuration(s.Left), formatDuration(s.Duration)))
	} else {
		sb.WriteString(fmt.Sprintf(" (%s)", formatDuration(s.Duration)))
	}

	sb.WriteString("\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FormatField outputs a specific field from a sound state.
func FormatField(s *mixer.SoundState, field string) string {
	switch strings.ToLower(field) {
	case "key":
		return s.Key
	case "state":
		return stateName(s)
	case "volume":
		return formatVolume(s.Volume, 2)
	case "output", "output_volume":
		return formatVolume(s.OutputVolume, 2)
	case "fade", "fade_scale":
		return formatVolume(s.FadeScale, 2)
	case "duration":
		return formatDuration(s.Duration)
	case "left":
		return formatDuration(s.Left)
	default:
		return s.Key
	}
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	Sound *mixer.SoundState
}

// templateFuncs returns template helper functions.
func templateFuncs(opts FormatterOptions) template.FuncMap {
	return template.FuncMap{
		"volume": func(v float64) string {
			return formatVolume(v, opts.Digits)
		},
		"percent": func(v float64) string {
			return humanize.FtoaWithDigits(v*100, 0) + "%"
		},
		"duration": formatDuration,
		"state": func(s *mixer.SoundState) string {
			return stateName(s)
		},
	}
}

// stateName returns the playback state of a sound as a word.
func stateName(s *mixer.SoundState) string {
	switch {
	case s.Paused:
		return "paused"
	case s.Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// formatVolume renders a volume with at most digits decimals.
func formatVolume(v float64, digits int) string {
	if digits <= 0 {
		digits = 2
	}
	s := humanize.FtoaWithDigits(v, digits)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// formatDuration renders a duration for display, e.g. "3 seconds".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now, now.Add(d), "", ""))
}
