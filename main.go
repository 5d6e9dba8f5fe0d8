package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"needle-gauge.klederson.com/internal/app"
	"needle-gauge.klederson.com/internal/artwork"
	"needle-gauge.klederson.com/internal/config"
	"needle-gauge.klederson.com/internal/gauge"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		flagLog    string
		flagConfig string
		logFile    *os.File
	)

	rootCmd := &cobra.Command{
		Use:   "needle-gauge",
		Short: "Needle Gauge - calibrate and preview analog gauge needles",
		Long: `Needle Gauge turns a gauge background and a needle image into a working
analog instrument. Calibrate a needle by clicking its pivot, its tip and a
few scale marks, then preview it live in the terminal or render frames to
PNG or WebP.

Calibrations are stored in a JSON file shared by every command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagLog == "" {
				return nil
			}
			f, err := os.OpenFile(flagLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			logFile = f
			gauge.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
			gauge.Logger().Info("start", "app", config.AppName, "version", config.AppVersion, "cmd", cmd.Name())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				gauge.SetLogger(nil)
				logFile.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "", "Write structured debug logs to this file")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "gauge.json", "Calibration file")

	rootCmd.AddCommand(
		newPreviewCmd(&flagConfig),
		newCalibrateCmd(&flagConfig),
		newRenderCmd(&flagConfig),
		newAnglesCmd(&flagConfig),
	)
	return rootCmd
}

func newPreviewCmd(configPath *string) *cobra.Command {
	var (
		flagGauge string
		flagDemo  bool
		flagFPS   int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show every calibrated needle live on an ASCII dial",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.Open(*configPath, flagGauge)
			if err != nil {
				return err
			}
			model := app.NewPreview(ws, flagDemo, flagFPS)

			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithFPS(model.FPS()),
			)

			// Start the demo source with reference to the tea program
			if err := model.StartDemo(p); err != nil {
				return err
			}
			defer model.StopDemo()

			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&flagGauge, "gauge", "", "Gauge background image")
	cmd.Flags().BoolVar(&flagDemo, "demo", false, "Sweep every needle with generated values")
	cmd.Flags().IntVar(&flagFPS, "fps", config.TargetFPS, "Animation frames per second")
	return cmd
}

func newCalibrateCmd(configPath *string) *cobra.Command {
	var (
		flagID     string
		flagGauge  string
		flagNeedle string
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate one needle by clicking on its artwork",
		Long: `Calibrate one needle. Click the needle's pivot and tip, then the pivot on
the gauge, then scale marks, typing the value of each. Press W to save.

An existing calibration for the needle id is resumed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			model, err := app.NewCalibrate(f, artwork.NewCache(), flagID, flagNeedle, flagGauge)
			if err != nil {
				return err
			}

			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&flagID, "needle-id", gauge.NeedleMain, "Needle id to calibrate")
	cmd.Flags().StringVar(&flagGauge, "gauge", "", "Gauge background image")
	cmd.Flags().StringVar(&flagNeedle, "needle", "", "Needle image (defaults to the saved one)")
	return cmd
}
