package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for files that are not WAV, OGG or MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Library caches decoded sound files by path.
type Library struct {
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*beep.Buffer
}

// NewLibrary creates an empty library.
func NewLibrary(logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}

	return &Library{
		logger: logger,
		cache:  make(map[string]*beep.Buffer),
	}
}

// Load returns the decoded buffer for path, decoding it on first use.
// Supports WAV, OGG, and MP3 formats.
func (l *Library) Load(path string) (*beep.Buffer, error) {
	l.mu.RLock()
	buffer, ok := l.cache[path]
	l.mu.RUnlock()

	if ok {
		return buffer, nil
	}

	buffer, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = buffer
	l.mu.Unlock()

	l.logger.Debug("loaded sound", "path", path, "samples", buffer.Len())
	return buffer, nil
}

// Preload decodes path into the cache.
func (l *Library) Preload(path string) error {
	_, err := l.Load(path)
	return err
}

// NewTrack returns a fresh track over the cached buffer for path.
func (l *Library) NewTrack(path string) (*Track, error) {
	buffer, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	return NewTrack(filepath.Base(path), buffer), nil
}

// Contains reports whether path is cached.
func (l *Library) Contains(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[path]
	return ok
}

// Len returns the number of cached buffers.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// Size returns the approximate memory held by cached samples in bytes.
func (l *Library) Size() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var size uint64
	for _, b := range l.cache {
		// Two float64 channels per sample
		size += uint64(b.Len()) * 16
	}
	return size
}

// Invalidate removes path from the cache.
func (l *Library) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}

// Clear empties the cache.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*beep.Buffer)
	l.logger.Debug("sound cache cleared")
}

// decodeFile decodes a sound file into a buffer.
func decodeFile(path string) (*beep.Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".ogg", ".mp3":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}

	return buffer, nil
}
