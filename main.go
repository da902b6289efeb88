package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/ambience"
	"github.com/iburimskiy/leafdraft/internal/config"
	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/game"
	"github.com/iburimskiy/leafdraft/internal/logging"
	"github.com/iburimskiy/leafdraft/internal/session"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd opens the drafting window when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "leafdraft",
	Short: "leafdraft - AI drafting for regulatory and professional documents",
	Long: `leafdraft drafts professional documents with Gemini, grounded on
Google Search, over a field of falling leaves that drift away from the
pointer.

Run without arguments to open the drafting window.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logger.Debug("Configuration loaded", zap.String("path", configPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runWindow,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the drafting window",
	Args:  cobra.NoArgs,
	RunE:  runWindow,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWindow opens the ebiten window. A missing API key does not stop the
// window from opening; submissions then fail with the generic message.
func runWindow(cmd *cobra.Command, args []string) error {
	var drafter session.Drafter
	gen, err := draft.NewClient(cmd.Context(), cfg.Draft, logger.Named("draft"))
	switch {
	case err == nil:
		drafter = gen
	case errors.Is(err, draft.ErrMissingAPIKey):
		logger.Warn("GEMINI_API_KEY is not set; drafting is disabled")
	default:
		return err
	}
	s := session.New(drafter, logger.Named("session"))

	var audio *ambience.Player
	if cfg.Audio.Enabled {
		audio, err = ambience.Start(cfg.Audio, cfg.Field.Seed, logger.Named("ambience"))
		if err != nil {
			logger.Warn("Ambience disabled", zap.Error(err))
			audio = nil
		}
	}

	g := game.New(cfg, s, audio, logger)
	defer g.Close()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Window.TPS)

	logger.Info("Opening window",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Bool("audio", audio != nil))
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("game loop failed: %w", err)
	}
	return nil
}
