package game

import (
	"errors"
	"path/filepath"

	"github.com/ncruces/zenity"
	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/export"
	"github.com/iburimskiy/leafdraft/internal/session"
)

var exportFilters = zenity.FileFilters{
	{Name: "Markdown", Patterns: []string{"*.md"}},
	{Name: "Plain text", Patterns: []string{"*.txt"}},
	{Name: "Web page", Patterns: []string{"*.html"}},
	{Name: "Rich text", Patterns: []string{"*.rtf"}},
	{Name: "PDF document", Patterns: []string{"*.pdf"}},
}

func (g *Game) completed() *draft.Document {
	v := g.session.Snapshot()
	if v.State != session.StateComplete {
		return nil
	}
	return v.Document
}

// saveDraft asks where to save the finished draft. The format follows the
// chosen extension; anything unrecognised is saved as markdown.
func (g *Game) saveDraft() {
	doc := g.completed()
	if doc == nil {
		return
	}
	d := export.FromDraft(doc)

	path, err := zenity.SelectFileSave(
		zenity.Title("Save Draft"),
		zenity.Filename(export.FileName(d.Title, export.FormatMarkdown)),
		zenity.ConfirmOverwrite(),
		exportFilters,
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return
		}
		g.logger.Warn("Save dialog failed", zap.Error(err))
		g.notify("Could not open the save dialog")
		return
	}

	f, err := export.FormatFromPath(path)
	if err != nil {
		f = export.FormatMarkdown
		path += "." + string(f)
	}
	if err := export.WriteFile(path, d, f); err != nil {
		g.logger.Warn("Export failed", zap.String("path", path), zap.Error(err))
		g.notify("Could not save the draft")
		return
	}
	g.logger.Info("Draft exported", zap.String("path", path), zap.String("format", string(f)))
	g.notify("Saved " + filepath.Base(path))
}

func (g *Game) copyDraft() {
	doc := g.completed()
	if doc == nil {
		return
	}
	if err := export.Copy(export.FromDraft(doc)); err != nil {
		g.logger.Warn("Clipboard copy failed", zap.Error(err))
		g.notify("Could not copy to the clipboard")
		return
	}
	g.notify("Copied to clipboard")
}
