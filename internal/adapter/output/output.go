// Package output provides output formatters for mixer snapshots.
package output

import (
	"io"
	"time"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// Snapshot is a point-in-time view of a mixer.
type Snapshot struct {
	TakenAt       time.Time          `json:"taken_at" yaml:"taken_at"`
	Volume        float64            `json:"volume" yaml:"volume"`
	MaxVolume     float64            `json:"max_volume" yaml:"max_volume"`
	ActiveEffects int                `json:"active_effects" yaml:"active_effects"`
	CacheBytes    uint64             `json:"cache_bytes,omitempty" yaml:"cache_bytes,omitempty"`
	Sounds        []mixer.SoundState `json:"sounds" yaml:"sounds"`
}

// Capture takes a snapshot of mx. It must run on the mixer goroutine.
func Capture(mx *mixer.Mixer, now time.Time) Snapshot {
	volume, maxVolume := mx.Volume()
	return Snapshot{
		TakenAt:       now,
		Volume:        volume,
		MaxVolume:     maxVolume,
		ActiveEffects: mx.ActiveEffects(),
		Sounds:        mx.Snapshot(),
	}
}

// Formatter formats mixer snapshots for output.
type Formatter interface {
	// Format writes the formatted snapshot to the writer.
	Format(w io.Writer, snap Snapshot) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatKeys  FormatType = "keys"
	FormatPlain FormatType = "plain"
	FormatYAML  FormatType = "yaml"
)

// FormatTypes lists every supported format.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatKeys}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatKeys:
		return NewKeysFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom per-sound template for dmenu/plain format
	ShowIndex bool   // Show 1-based index prefix
	ShowIdle  bool   // Include sounds that are neither playing nor paused
	Separator string // Field separator for dmenu format
	Digits    int    // Decimal digits for volumes
}

// DefaultFormatterOptions returns sensible defaults for plain output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowIdle:  true,
		Separator: " | ",
		Digits:    2,
	}
}

// visible returns the sounds the options ask for.
func visible(sounds []mixer.SoundState, opts FormatterOptions) []mixer.SoundState {
	if opts.ShowIdle {
		return sounds
	}
	out := make([]mixer.SoundState, 0, len(sounds))
	for _, s := range sounds {
		if s.Playing || s.Paused {
			out = append(out, s)
		}
	}
	return out
}
