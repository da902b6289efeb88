package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/export"
)

var (
	draftFormat string
	draftOut    string
	draftCopy   bool
	draftRaw    bool
	draftEdit   bool
)

// draftCmd drafts a document without opening a window.
var draftCmd = &cobra.Command{
	Use:   "draft [request]",
	Short: "Draft a document from the terminal",
	Long: `Sends the request to Gemini with Google Search grounding and prints
the draft as rendered markdown, followed by its sources.

Examples:
  leafdraft draft "Initial study for a 20MW solar farm in Kern County"
  leafdraft draft --out reports/ --format html "Phase I ESA scope of work"
  leafdraft draft --edit --out eir.pdf "EIR for a mixed-use development"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().StringVarP(&draftFormat, "format", "f", "", "Export format: txt, md, html, rtf or pdf (default: from --out, else md)")
	draftCmd.Flags().StringVarP(&draftOut, "out", "o", "", "Write the draft to this file or directory")
	draftCmd.Flags().BoolVar(&draftCopy, "copy", false, "Copy the plain-text draft to the clipboard")
	draftCmd.Flags().BoolVar(&draftRaw, "raw", false, "Print markdown without terminal styling")
	draftCmd.Flags().BoolVarP(&draftEdit, "edit", "e", false, "Open the draft in $VISUAL or $EDITOR before printing and exporting")
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := draft.NewClient(ctx, cfg.Draft, logger.Named("draft"))
	if err != nil {
		return err
	}

	request := strings.Join(args, " ")
	doc, err := gen.Generate(ctx, request, func(s draft.Stage) {
		switch s {
		case draft.StageSearching:
			fmt.Fprintln(cmd.ErrOrStderr(), "Searching regulations and standards...")
		case draft.StageGenerating:
			fmt.Fprintln(cmd.ErrOrStderr(), "Drafting your document...")
		}
	})
	if err != nil {
		logger.Error("Draft failed", zap.String("reason", draft.Reason(err)), zap.Error(err))
		return fmt.Errorf("%s (%s)", draft.UserMessage, draft.Reason(err))
	}

	if draftEdit {
		ed := export.DefaultEditor()
		edited, err := ed.Edit(ctx, doc.Content)
		if err != nil {
			return err
		}
		if strings.TrimSpace(edited) == "" {
			return fmt.Errorf("edited draft is empty, nothing to save")
		}
		logger.Debug("Draft edited", zap.String("editor", ed.Command), zap.Int("chars", len(edited)))
		doc.Content = strings.TrimSpace(edited)
	}

	if err := printDraft(cmd, doc); err != nil {
		return err
	}

	d := export.FromDraft(doc)
	if draftOut != "" {
		path, f, err := export.Target(draftOut, draftFormat, d.Title)
		if err != nil {
			return err
		}
		if err := export.WriteFile(path, d, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", path)
	}
	if draftCopy {
		if err := export.Copy(d); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
	}
	return nil
}

func printDraft(cmd *cobra.Command, doc *draft.Document) error {
	var b strings.Builder
	b.WriteString(doc.Content)
	if len(doc.Sources) > 0 {
		b.WriteString("\n\n## Sources\n\n")
		for _, s := range doc.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", s.Title, s.URI)
		}
	}

	out := b.String()
	if !draftRaw {
		rendered, err := glamour.Render(out, "dark")
		if err != nil {
			return fmt.Errorf("failed to render draft: %w", err)
		}
		out = rendered
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
