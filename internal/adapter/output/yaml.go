package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats snapshots as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the snapshot as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, snap Snapshot) error {
	snap.Sounds = visible(snap.Sounds, f.opts)
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(snap); err != nil {
		return err
	}
	return encoder.Close()
}
