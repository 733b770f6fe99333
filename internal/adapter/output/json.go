package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// JSONFormatter formats snapshots as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the snapshot as a JSON object.
func (f *JSONFormatter) Format(w io.Writer, snap Snapshot) error {
	snap.Sounds = visible(snap.Sounds, f.opts)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

// FormatSingle writes a single sound state as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, s *mixer.SoundState) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}
