package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fademix/internal/config"
)

const testRate = beep.SampleRate(1000)

// toneStreamer produces n constant stereo samples and then ends.
func toneStreamer(n int, value float64) beep.Streamer {
	left := n
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left <= 0 {
			return 0, false
		}
		k := min(len(samples), left)
		for i := range k {
			samples[i] = [2]float64{value, value}
		}
		left -= k
		return k, true
	})
}

func testFormat(rate beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
}

// testBuffer returns a buffer of n samples at half amplitude.
func testBuffer(rate beep.SampleRate, n int) *beep.Buffer {
	buf := beep.NewBuffer(testFormat(rate))
	buf.Append(toneStreamer(n, 0.5))
	return buf
}

// writeWAV encodes n samples at rate into dir/name and returns the path.
func writeWAV(t *testing.T, dir, name string, rate beep.SampleRate, n int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, wav.Encode(f, toneStreamer(n, 0.5), testFormat(rate)))
	return path
}

func testAudioConfig() config.AudioConfig {
	cfg := config.DefaultConfig().Audio
	cfg.SampleRate = int(testRate)
	return cfg
}

func pull(s beep.Streamer, n int) [][2]float64 {
	samples := make([][2]float64, n)
	s.Stream(samples)
	return samples
}
