// Package game hosts the leaf field and the drafting panel in an ebiten
// window.
package game

import (
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/ambience"
	"github.com/iburimskiy/leafdraft/internal/config"
	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/field"
	"github.com/iburimskiy/leafdraft/internal/logging"
	"github.com/iburimskiy/leafdraft/internal/session"
)

// Background is the page colour behind the leaves.
var Background = color.NRGBA{R: 0xf6, G: 0xf9, B: 0xf3, A: 0xff}

const (
	// maxPromptRunes caps the request line.
	maxPromptRunes = 400
	// windToLevel maps mean wind speed to ambience loudness.
	windToLevel = 4.0
	// noticeSeconds is how long a transient notice stays up.
	noticeSeconds = 3
)

// Game implements ebiten.Game.
type Game struct {
	cfg     *config.Config
	field   *field.Field
	session *session.Session
	audio   *ambience.Player // nil when audio is disabled
	logger  *zap.Logger

	canvas screenCanvas

	width, height int
	tick          uint64

	cursorX, cursorY int
	cursorIn         bool

	prompt []rune
	chars  []rune

	notice      string
	noticeUntil uint64
	lastState   session.State
	muted       bool
	closed      bool
}

// New wires a game. audio may be nil.
func New(cfg *config.Config, s *session.Session, audio *ambience.Player, logger *zap.Logger) *Game {
	logger = logging.OrNop(logger)
	return &Game{
		cfg:     cfg,
		field:   field.New(cfg.Field.Params(), field.WithLogger(logger.Named("field"))),
		session: s,
		audio:   audio,
		logger:  logger,
	}
}

func (g *Game) Update() error {
	g.tick++
	g.updatePointer()
	g.field.Advance(g.tick)
	if g.audio != nil {
		g.audio.SetLevel(clamp01(g.field.WindEnergy() * windToLevel))
	}

	g.trackState()
	return g.handleKeys()
}

// updatePointer feeds cursor motion to the field and forgets the pointer
// once it leaves the window.
func (g *Game) updatePointer() {
	x, y := ebiten.CursorPosition()
	in := x >= 0 && y >= 0 && x < g.width && y < g.height
	if !in {
		if g.cursorIn {
			g.field.ClearPointer()
		}
		g.cursorIn = false
		return
	}
	if !g.cursorIn || x != g.cursorX || y != g.cursorY {
		g.field.OnPointerMove(float64(x), float64(y))
	}
	g.cursorX, g.cursorY, g.cursorIn = x, y, true
}

func (g *Game) trackState() {
	v := g.session.Snapshot()
	if v.State == g.lastState {
		return
	}
	g.logger.Debug("Session state changed",
		zap.Stringer("from", g.lastState),
		zap.Stringer("to", v.State))
	g.lastState = v.State
}

func (g *Game) handleKeys() error {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if ctrl {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyQ):
			return ebiten.Termination
		case inpututil.IsKeyJustPressed(ebiten.KeyS):
			g.saveDraft()
		case inpututil.IsKeyJustPressed(ebiten.KeyC):
			g.copyDraft()
		case inpututil.IsKeyJustPressed(ebiten.KeyM):
			g.toggleMute()
		}
		return nil
	}

	v := g.session.Snapshot()
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.session.Reset()
		g.prompt = g.prompt[:0]
		return nil
	}
	if v.State.Busy() {
		return nil
	}

	g.chars = ebiten.AppendInputChars(g.chars[:0])
	if g.pickUseCase(v) {
		return nil
	}
	for _, r := range g.chars {
		if len(g.prompt) < maxPromptRunes {
			g.prompt = append(g.prompt, r)
		}
	}
	if repeatingKeyPressed(ebiten.KeyBackspace) && len(g.prompt) > 0 {
		g.prompt = g.prompt[:len(g.prompt)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		g.submit(v)
	}
	return nil
}

// submit starts a draft for the typed request, or retries the last one
// after a failure when nothing new was typed.
func (g *Game) submit(v session.View) {
	query := string(g.prompt)
	if len(g.prompt) == 0 && v.State == session.StateError {
		query = v.Query
	}
	err := g.session.Submit(query)
	switch {
	case err == nil:
		g.prompt = g.prompt[:0]
	case errors.Is(err, draft.ErrEmptyPrompt):
		g.notify("Describe the document you need first")
	default:
		g.logger.Warn("Submit rejected", zap.Error(err))
	}
}

// pickUseCase submits a preset when a single digit is typed into an empty
// prompt while idle.
func (g *Game) pickUseCase(v session.View) bool {
	if v.State != session.StateIdle || len(g.prompt) != 0 || len(g.chars) != 1 {
		return false
	}
	r := g.chars[0]
	if r < '1' || r > '9' {
		return false
	}
	uc, ok := draft.UseCase(int(r - '0'))
	if !ok {
		return false
	}
	if err := g.session.Submit(uc); err != nil {
		g.logger.Warn("Submit rejected", zap.Error(err))
	}
	return true
}

func (g *Game) toggleMute() {
	if g.audio == nil {
		return
	}
	g.muted = !g.muted
	g.audio.SetPaused(g.muted)
	if g.muted {
		g.notify("Sound off")
	} else {
		g.notify("Sound on")
	}
}

func (g *Game) notify(msg string) {
	g.notice = msg
	g.noticeUntil = g.tick + uint64(noticeSeconds*g.cfg.Window.TPS)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(Background)
	g.field.Draw(g.canvas.on(screen))
	g.drawPanel(screen, g.session.Snapshot())
}

// Layout keeps a 1:1 mapping between window and field coordinates and
// repopulates the field when the window changes size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		if g.field.Running() {
			g.field.OnResize(float64(outsideWidth), float64(outsideHeight))
		} else if !g.closed {
			g.field.Start(float64(outsideWidth), float64(outsideHeight))
		}
	}
	return outsideWidth, outsideHeight
}

// Close stops the field, abandons any draft in progress and silences the
// wind. It is safe to call more than once.
func (g *Game) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.field.Stop()
	g.session.Close()
	if g.audio != nil {
		g.audio.Close()
	}
	g.logger.Debug("Game closed", zap.Uint64("ticks", g.tick))
}

// repeatingKeyPressed reports a press on the first frame and then at a
// fixed rate while the key is held.
func repeatingKeyPressed(key ebiten.Key) bool {
	const (
		delay    = 30
		interval = 3
	)
	d := inpututil.KeyPressDuration(key)
	if d == 1 {
		return true
	}
	if d >= delay && (d-delay)%interval == 0 {
		return true
	}
	return false
}
