package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/require"
)

const testRate = beep.SampleRate(8000)

type countingDispatcher struct {
	calls int
}

func (c *countingDispatcher) Dispatch() int {
	c.calls++
	return 0
}

func toneStreamer(n int) beep.Streamer {
	left := n
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left <= 0 {
			return 0, false
		}
		k := min(len(samples), left)
		for i := range k {
			samples[i] = [2]float64{0.25, 0.25}
		}
		left -= k
		return k, true
	})
}

func testBuffer(n int) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2})
	buf.Append(toneStreamer(n))
	return buf
}

func writeWAV(t *testing.T, dir, name string, n int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, toneStreamer(n), format))
	return path
}
