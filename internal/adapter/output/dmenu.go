package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// DmenuFormatter formats sounds for dmenu/rofi/fuzzel pickers, one per line
// with the key first so the selection can be cut back to it.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes sounds in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, snap Snapshot) error {
	for i, s := range visible(snap.Sounds, f.opts) {
		line := f.formatLine(i+1, &s)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single sound line.
func (f *DmenuFormatter) formatLine(index int, s *mixer.SoundState) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, templateData{Index: index, Sound: s}); err == nil {
			return buf.String()
		}
	}

	// Default format: key | state | volume
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	parts := []string{s.Key, stateName(s)}
	if f.opts.ShowIndex {
		parts = append([]string{fmt.Sprintf("%d", index)}, parts...)
	}
	parts = append(parts, formatVolume(s.OutputVolume, f.opts.Digits))

	return strings.Join(parts, sep)
}
