package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/export"
	"github.com/iburimskiy/leafdraft/internal/session"
)

const (
	glyphWidth = 6
	lineHeight = 16
	panelPad   = 16
	panelMaxW  = 760
	maxSources = 5
	feedDepth  = 3
)

var (
	panelFill   = color.NRGBA{R: 0x2d, G: 0x47, B: 0x5c, A: 0xd8}
	panelBorder = color.NRGBA{R: 0x92, G: 0xc9, B: 0x73, A: 0xff}
	meterFill   = color.NRGBA{R: 0xaf, G: 0xdc, B: 0x96, A: 0xff}
)

func (g *Game) drawPanel(screen *ebiten.Image, v session.View) {
	w := g.width - 2*panelPad
	if w > panelMaxW {
		w = panelMaxW
	}
	if w < 20*glyphWidth {
		return
	}
	x := (g.width - w) / 2
	cols := (w - 2*panelPad) / glyphWidth

	lines := g.panelLines(v, cols)
	maxLines := (g.height - 4*panelPad) / lineHeight
	if maxLines < 1 {
		return
	}
	if len(lines) > maxLines {
		lines = append(lines[:maxLines-1], "...")
	}
	h := len(lines)*lineHeight + 2*panelPad

	vector.DrawFilledRect(screen, float32(x), float32(panelPad), float32(w), float32(h), panelFill, false)
	vector.StrokeRect(screen, float32(x), float32(panelPad), float32(w), float32(h), 2, panelBorder, false)
	for i, l := range lines {
		ebitenutil.DebugPrintAt(screen, l, x+panelPad, 2*panelPad+i*lineHeight)
	}

	g.drawMeter(screen, x+w-panelPad-60, panelPad+6)
}

func (g *Game) panelLines(v session.View, cols int) []string {
	lines := []string{"leafdraft | AI document drafting", ""}

	switch v.State {
	case session.StateIdle:
		lines = append(lines, "What document do you need? Type it and press Enter.")
	case session.StateSearching:
		lines = append(lines, fmt.Sprintf("Searching regulations and standards...  %s", formatDuration(v.Elapsed)))
		lines = append(lines, feedLines(v)...)
	case session.StateGenerating:
		lines = append(lines, fmt.Sprintf("Drafting your document...  %s", formatDuration(v.Elapsed)))
		lines = append(lines, feedLines(v)...)
	case session.StateComplete:
		lines = append(lines, fmt.Sprintf("Draft ready in %s. Ctrl+S save, Ctrl+C copy, Esc new draft.", formatDuration(v.Elapsed)))
	case session.StateError:
		lines = append(lines, wrapText(v.Message, cols)...)
		lines = append(lines, "Press Enter to try again, or Esc to start over.")
	}

	if v.State.Busy() {
		lines = append(lines, "> "+tail(v.Query, cols-2))
	} else {
		lines = append(lines, "> "+tail(string(g.prompt), cols-3)+g.caret())
	}

	if v.State == session.StateIdle && len(g.prompt) == 0 {
		lines = append(lines, "", "Or press a number for a common document:")
		for i, uc := range draft.UseCases {
			lines = append(lines, tail(fmt.Sprintf("  %d  %s", i+1, uc), cols))
		}
	}

	if g.notice != "" && g.tick < g.noticeUntil {
		lines = append(lines, "", g.notice)
	}

	if v.State == session.StateComplete && v.Document != nil {
		lines = append(lines, "", v.Document.Prompt, "")
		lines = append(lines, wrapText(export.PlainText(v.Document.Content), cols)...)
		if n := len(v.Document.Sources); n > 0 {
			lines = append(lines, "", "Sources:")
			for i, s := range v.Document.Sources {
				if i == maxSources {
					lines = append(lines, fmt.Sprintf("  and %d more", n-maxSources))
					break
				}
				lines = append(lines, tail("  "+s.Title+" "+s.URI, cols))
			}
		}
	}
	return lines
}

// feedLines shows the last few activity lines, the current one marked.
func feedLines(v session.View) []string {
	log := session.ProgressLog(v.Elapsed, feedDepth)
	out := make([]string, 0, len(log)+1)
	out = append(out, "")
	for i, l := range log {
		if i == len(log)-1 {
			out = append(out, "  > "+l)
		} else {
			out = append(out, "    "+l)
		}
	}
	return out
}

func (g *Game) caret() string {
	if (g.tick/30)%2 == 0 {
		return "_"
	}
	return ""
}

// drawMeter shows the wind loudness as a small bar.
func (g *Game) drawMeter(screen *ebiten.Image, x, y int) {
	if g.audio == nil || g.muted {
		return
	}
	const w, h = 60, 6
	level := clamp01(g.audio.Loudness() * 4)
	vector.StrokeRect(screen, float32(x), float32(y), w, h, 1, panelBorder, false)
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w*level), h, meterFill, false)
}
