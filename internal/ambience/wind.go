// Package ambience plays a soft wind noise whose loudness follows how much
// the leaves are being blown around.
package ambience

import (
	"math/rand/v2"
	"sync"

	"github.com/faiface/beep"
)

const (
	// cutoff is the one-pole low-pass coefficient that turns white noise
	// into a rumble.
	cutoff = 0.02
	// glide is how far the gain moves toward the target level per sample.
	glide = 0.0005
	// floor keeps a faint breeze audible while the field is calm.
	floor = 0.08
	// noiseGain restores the loudness lost to the low-pass.
	noiseGain = 6.0
)

// Wind is a beep.Streamer producing filtered noise, or a recording, whose
// gain follows a level. The game loop sets the level; the audio thread
// reads it.
type Wind struct {
	volume float64
	src    beep.Streamer // nil means noise

	mu    sync.RWMutex
	level float64

	// touched by the audio thread only
	rng  *rand.Rand
	gain float64
	lp   [2]float64
}

// NewWind returns a silent wind streamer. volume scales the output, seed
// fixes the noise sequence.
func NewWind(volume float64, seed uint64) *Wind {
	return &Wind{
		volume: clamp01(volume),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewWindFrom shapes src instead of generating noise.
func NewWindFrom(src beep.Streamer, volume float64) *Wind {
	return &Wind{
		volume: clamp01(volume),
		src:    src,
	}
}

// SetLevel sets the target loudness, clamped to [0,1].
func (w *Wind) SetLevel(x float64) {
	w.mu.Lock()
	w.level = clamp01(x)
	w.mu.Unlock()
}

// Level returns the target loudness.
func (w *Wind) Level() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level
}

// Stream fills samples. Noise never drains; a recording drains when its
// source does.
func (w *Wind) Stream(samples [][2]float64) (int, bool) {
	target := floor + (1-floor)*w.Level()
	if w.src != nil {
		n, ok := w.src.Stream(samples)
		for i := 0; i < n; i++ {
			w.gain += (target - w.gain) * glide
			for c := 0; c < 2; c++ {
				samples[i][c] = clampSample(samples[i][c] * w.gain * w.volume)
			}
		}
		return n, ok
	}
	for i := range samples {
		w.gain += (target - w.gain) * glide
		for c := 0; c < 2; c++ {
			white := w.rng.Float64()*2 - 1
			w.lp[c] += (white - w.lp[c]) * cutoff
			samples[i][c] = clampSample(w.lp[c] * noiseGain * w.gain * w.volume)
		}
	}
	return len(samples), true
}

func (w *Wind) Err() error {
	if w.src != nil {
		return w.src.Err()
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSample(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
