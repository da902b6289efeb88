package ambience

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/config"
	"github.com/iburimskiy/leafdraft/internal/logging"
)

// meterSamples is roughly a tenth of a second at 44.1kHz.
const meterSamples = 4096

// Player owns the speaker while the wind is playing.
type Player struct {
	wind    *Wind
	meter   *Meter
	ctrl    *beep.Ctrl
	release func()
	logger  *zap.Logger
}

// Start initializes the speaker and begins playing. A configured sample is
// looped; without one, or if it cannot be decoded, the wind is noise.
func Start(cfg config.AudioConfig, seed uint64, logger *zap.Logger) (*Player, error) {
	logger = logging.OrNop(logger)

	sr := beep.SampleRate(cfg.SampleRate)
	if sr <= 0 {
		sr = config.DefaultSampleRate
	}
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p := &Player{logger: logger}
	if cfg.Sample != "" {
		src, release, err := OpenSample(cfg.Sample, sr)
		if err != nil {
			logger.Warn("Wind sample unavailable, using noise", zap.String("path", cfg.Sample), zap.Error(err))
		} else {
			p.wind = NewWindFrom(src, cfg.Volume)
			p.release = release
		}
	}
	if p.wind == nil {
		p.wind = NewWind(cfg.Volume, seed)
	}
	p.meter = NewMeter(p.wind, meterSamples)
	p.ctrl = &beep.Ctrl{Streamer: p.meter}
	speaker.Play(p.ctrl)

	logger.Info("Ambience started",
		zap.Int("sample_rate", int(sr)),
		zap.Float64("volume", cfg.Volume),
		zap.Bool("sample", p.release != nil))
	return p, nil
}

// SetLevel forwards the wind energy to the streamer.
func (p *Player) SetLevel(x float64) {
	p.wind.SetLevel(x)
}

// Loudness is the recent output level in [0,1].
func (p *Player) Loudness() float64 {
	return clamp01(p.meter.RMS())
}

// SetPaused mutes or resumes playback.
func (p *Player) SetPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Close stops playback.
func (p *Player) Close() {
	speaker.Lock()
	speaker.Clear()
	speaker.Unlock()
	if p.release != nil {
		p.release()
		p.release = nil
	}
	p.logger.Debug("Ambience stopped")
}
