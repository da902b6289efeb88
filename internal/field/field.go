// Package field simulates the falling-leaf background: a population of
// particles that drift, sway and spin, and that scatter around the pointer.
//
// A Field is driven by its host. The host calls Start once it knows the
// surface size, Advance and Draw once per frame with a monotonic tick
// counter, OnResize and OnPointerMove as input arrives, and Stop when the
// view goes away. All calls must come from one goroutine.
package field

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/harmonica"
	"go.uber.org/zap"
)

const (
	DefaultDensity             = 24000.0
	DefaultInfluenceRadius     = 150.0
	DefaultWindDamping         = 0.95
	DefaultPointerDamping      = 0.9
	DefaultRespawnMargin       = 20.0
	DefaultSpinIncrement       = 0.001
	DefaultMaxTurbulence       = 0.05
	DefaultTurbulenceFrequency = 1.5

	spawnY    = -20.0
	swayScale = 0.5
	pushScale = 0.5
	dragScale = 0.05

	// Turbulence relaxes on a spring stepped once per tick.
	springFPS = 60
)

// Params tunes the simulation. Zero values fall back to the defaults above;
// PointerIdleTicks and Seed are meaningful at zero.
type Params struct {
	Density             float64 // surface area per particle
	InfluenceRadius     float64
	WindDamping         float64
	PointerDamping      float64
	RespawnMargin       float64
	SpinIncrement       float64
	MaxTurbulence       float64
	TurbulenceFrequency float64

	// PointerIdleTicks clears the pointer sample after this many ticks
	// without a pointer event. Zero keeps the last sample forever.
	PointerIdleTicks int

	// Seed seeds the PRNG. Zero seeds from the clock.
	Seed uint64
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		Density:             DefaultDensity,
		InfluenceRadius:     DefaultInfluenceRadius,
		WindDamping:         DefaultWindDamping,
		PointerDamping:      DefaultPointerDamping,
		RespawnMargin:       DefaultRespawnMargin,
		SpinIncrement:       DefaultSpinIncrement,
		MaxTurbulence:       DefaultMaxTurbulence,
		TurbulenceFrequency: DefaultTurbulenceFrequency,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Density <= 0 {
		p.Density = d.Density
	}
	if p.InfluenceRadius <= 0 {
		p.InfluenceRadius = d.InfluenceRadius
	}
	if p.WindDamping <= 0 || p.WindDamping > 1 {
		p.WindDamping = d.WindDamping
	}
	if p.PointerDamping <= 0 || p.PointerDamping > 1 {
		p.PointerDamping = d.PointerDamping
	}
	if p.RespawnMargin <= 0 {
		p.RespawnMargin = d.RespawnMargin
	}
	if p.SpinIncrement <= 0 {
		p.SpinIncrement = d.SpinIncrement
	}
	if p.MaxTurbulence <= 0 {
		p.MaxTurbulence = d.MaxTurbulence
	}
	if p.TurbulenceFrequency <= 0 {
		p.TurbulenceFrequency = d.TurbulenceFrequency
	}
	if p.PointerIdleTicks < 0 {
		p.PointerIdleTicks = 0
	}
	return p
}

// Option configures a Field.
type Option func(*Field)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(f *Field) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithPalette replaces the default leaf palette.
func WithPalette(p Palette) Option {
	return func(f *Field) {
		f.palette = p
	}
}

// WithRand sets the random source, overriding Params.Seed.
func WithRand(r *rand.Rand) Option {
	return func(f *Field) {
		if r != nil {
			f.rng = r
		}
	}
}

// pointerSample is the last known pointer state. It belongs to one Field.
type pointerSample struct {
	x, y   float64
	vx     float64
	lastX  float64
	active bool // a position is known
	seen   bool // lastX holds a previous sample
	idle   int  // ticks since the last event
}

// Field owns a particle population and its input state.
type Field struct {
	params  Params
	logger  *zap.Logger
	rng     *rand.Rand
	palette Palette
	spring  harmonica.Spring

	width, height float64
	particles     []Particle
	running       bool
	tick          uint64

	pointer pointerSample
}

// New creates a stopped field.
func New(params Params, opts ...Option) *Field {
	params = params.withDefaults()
	f := &Field{
		params:  params,
		logger:  zap.NewNop(),
		palette: DefaultPalette(),
		spring:  harmonica.NewSpring(harmonica.FPS(springFPS), params.TurbulenceFrequency, 1.0),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		seed := params.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return f
}

// Population is the particle count for a surface: floor(area / density).
// Non-finite or non-positive inputs give 0.
func Population(width, height, density float64) int {
	if !positive(width) || !positive(height) || !positive(density) {
		return 0
	}
	n := math.Floor(width * height / density)
	if math.IsInf(n, 0) || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// dimension clamps a surface edge to a finite, non-negative length.
func dimension(v float64) float64 {
	if !positive(v) {
		return 0
	}
	return v
}

// Start sizes the field and replaces the whole population. Particles are
// scattered over the full height so the first frame is not empty.
func (f *Field) Start(width, height float64) {
	f.width = dimension(width)
	f.height = dimension(height)

	n := Population(f.width, f.height, f.params.Density)
	f.particles = make([]Particle, n)
	for i := range f.particles {
		f.spawn(&f.particles[i])
	}
	f.running = true

	f.logger.Debug("field started",
		zap.Float64("width", f.width),
		zap.Float64("height", f.height),
		zap.Int("population", n))
}

// OnResize repopulates the field for the new size. Existing particles are
// discarded. A field that is not running only records the size.
func (f *Field) OnResize(width, height float64) {
	if !f.running {
		f.width = dimension(width)
		f.height = dimension(height)
		return
	}
	f.Start(width, height)
}

// OnPointerMove records the pointer position. Its horizontal velocity is
// the difference from the previous sample.
func (f *Field) OnPointerMove(x, y float64) {
	p := &f.pointer
	if p.seen {
		p.vx = x - p.lastX
	} else {
		p.vx = 0
	}
	p.lastX = x
	p.seen = true
	p.x, p.y = x, y
	p.active = true
	p.idle = 0
}

// ClearPointer forgets the pointer, e.g. when it leaves the surface.
func (f *Field) ClearPointer() {
	f.pointer = pointerSample{}
}

// Advance runs one simulation step for the given tick index. The tick, not
// wall-clock time, drives every periodic term.
func (f *Field) Advance(tick uint64) {
	if !f.running {
		return
	}
	f.tick = tick

	limit := f.height + f.params.RespawnMargin
	for i := range f.particles {
		p := &f.particles[i]

		p.X += p.Sway(tick) + p.Wind
		p.Y += p.Fall
		p.Angle += p.Spin + p.Turbulence

		p.Wind *= f.params.WindDamping

		if f.pointer.active {
			f.push(p)
		}
		f.relax(p)

		if p.Y > limit {
			f.respawn(p)
		}
	}

	f.pointer.vx *= f.params.PointerDamping
	if n := f.params.PointerIdleTicks; n > 0 && f.pointer.active {
		f.pointer.idle++
		if f.pointer.idle >= n {
			f.pointer.active = false
		}
	}
}

// push applies the pointer's wind to one particle.
func (f *Field) push(p *Particle) {
	r := f.params.InfluenceRadius
	dx := f.pointer.x - p.X
	dy := f.pointer.y - p.Y
	d := math.Hypot(dx, dy)
	if d <= 0 || d >= r {
		return
	}

	force := (r - d) / r
	p.Wind += -dx/d*force*pushScale + f.pointer.vx*dragScale*force
	p.Y += dy / d * force * pushScale
	p.Turbulence += f.params.SpinIncrement
}

// relax pulls turbulence back toward zero and keeps it in [0, MaxTurbulence].
func (f *Field) relax(p *Particle) {
	p.Turbulence, p.turbulenceVel = f.spring.Update(p.Turbulence, p.turbulenceVel, 0)
	if p.Turbulence > f.params.MaxTurbulence {
		p.Turbulence = f.params.MaxTurbulence
	}
	if p.Turbulence < 0 {
		p.Turbulence = 0
		p.turbulenceVel = 0
	}
}

func (f *Field) spawn(p *Particle) {
	*p = Particle{
		X:         f.rng.Float64() * f.width,
		Y:         f.rng.Float64() * f.height,
		Fall:      f.fallSpeed(),
		Size:      f.rng.Float64()*6 + 6,
		Angle:     f.rng.Float64() * 2 * math.Pi,
		Spin:      (f.rng.Float64() - 0.5) * 0.02,
		OscSpeed:  f.rng.Float64()*0.02 + 0.01,
		Amplitude: f.rng.Float64()*50 + 20,
		Phase:     f.rng.Float64() * 1000,
		Shape:     ShapeRounded,
	}
	if f.rng.Float64() < 0.5 {
		p.Shape = ShapePointed
	}
	p.Color = f.palette.Pick(f.rng)
}

// respawn puts a particle back above the top edge. Shape, colour, size and
// oscillation are kept.
func (f *Field) respawn(p *Particle) {
	p.X = f.rng.Float64() * f.width
	p.Y = spawnY
	p.Wind = 0
	p.Fall = f.fallSpeed()
	p.Turbulence = 0
	p.turbulenceVel = 0
}

func (f *Field) fallSpeed() float64 {
	return f.rng.Float64()*0.5 + 0.3
}

// Draw fills every particle on c. It does not change simulation state.
func (f *Field) Draw(c Canvas) {
	if !f.running || c == nil {
		return
	}
	for i := range f.particles {
		p := &f.particles[i]
		c.Fill(p.Outline(), p.Color)
	}
}

// Stop drops the population and pointer state. Advance and Draw do nothing
// until the next Start. Calling Stop twice is harmless.
func (f *Field) Stop() {
	if !f.running {
		return
	}
	f.running = false
	f.particles = nil
	f.pointer = pointerSample{}
	f.logger.Debug("field stopped", zap.Uint64("tick", f.tick))
}

// Running reports whether the field has been started and not stopped.
func (f *Field) Running() bool { return f.running }

// Len is the current population.
func (f *Field) Len() int { return len(f.particles) }

// Size returns the surface size the field was last given.
func (f *Field) Size() (width, height float64) { return f.width, f.height }

// Tick is the last tick passed to Advance.
func (f *Field) Tick() uint64 { return f.tick }

// Params returns the effective tuning.
func (f *Field) Params() Params { return f.params }

// Particles returns a copy of the population.
func (f *Field) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

// WindEnergy is the mean absolute wind over the population.
func (f *Field) WindEnergy() float64 {
	if len(f.particles) == 0 {
		return 0
	}
	var sum float64
	for i := range f.particles {
		sum += math.Abs(f.particles[i].Wind)
	}
	return sum / float64(len(f.particles))
}
