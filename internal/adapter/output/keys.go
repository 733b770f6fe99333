package output

import (
	"fmt"
	"io"
)

// KeysFormatter outputs just the sound keys, one per line.
// Useful for piping to other commands (e.g., xargs fademix play).
type KeysFormatter struct{}

// NewKeysFormatter creates a new keys formatter.
func NewKeysFormatter() *KeysFormatter {
	return &KeysFormatter{}
}

// Format writes sound keys to the writer, one per line.
func (f *KeysFormatter) Format(w io.Writer, snap Snapshot) error {
	for _, s := range snap.Sounds {
		if _, err := fmt.Fprintln(w, s.Key); err != nil {
			return err
		}
	}
	return nil
}
