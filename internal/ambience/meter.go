package ambience

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// Meter wraps a beep.Streamer and keeps the last N samples in a ring buffer
// so the HUD can show how loud the wind currently is.
type Meter struct {
	Source beep.Streamer

	mu   sync.RWMutex
	ring [][2]float64
	next int
	full bool
}

// NewMeter taps src, remembering size samples.
func NewMeter(src beep.Streamer, size int) *Meter {
	if size < 1 {
		size = 1
	}
	return &Meter{
		Source: src,
		ring:   make([][2]float64, size),
	}
}

func (m *Meter) Stream(samples [][2]float64) (int, bool) {
	n, ok := m.Source.Stream(samples)
	if n > 0 {
		m.mu.Lock()
		for i := 0; i < n; i++ {
			m.ring[m.next] = samples[i]
			m.next++
			if m.next == len(m.ring) {
				m.next = 0
				m.full = true
			}
		}
		m.mu.Unlock()
	}
	return n, ok
}

func (m *Meter) Err() error { return m.Source.Err() }

// RMS is the root mean square of the recorded samples over both channels.
// It is 0 before anything has played.
func (m *Meter) RMS() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.ring)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.ring[:n] {
		sum += s[0]*s[0] + s[1]*s[1]
	}
	return math.Sqrt(sum / float64(2*n))
}
