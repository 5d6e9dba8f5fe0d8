package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"needle-gauge.klederson.com/internal/app"
	"needle-gauge.klederson.com/internal/compose"
	"needle-gauge.klederson.com/internal/config"
	"needle-gauge.klederson.com/internal/gauge"
)

func newRenderCmd(configPath *string) *cobra.Command {
	var (
		flagGauge  string
		flagSet    []string
		flagOut    string
		flagWidth  int
		flagHeight int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the gauge with needles at given values to PNG or WebP",
		Example: `  needle-gauge render --config gauge.json --gauge dial.png \
    --set main=4500 --set fuel=60 --out frame.webp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(flagOut)
			if err != nil {
				return err
			}
			ws, err := app.Open(*configPath, flagGauge)
			if err != nil {
				return err
			}
			if ws.Warning != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", ws.Warning)
			}
			for _, kv := range flagSet {
				id, v, err := parseAssignment(kv)
				if err != nil {
					return err
				}
				ws.Registry.SetValue(id, v)
			}

			w, h := renderSize(ws, flagWidth, flagHeight)
			var bg image.Image
			if ws.Background != nil {
				bg = ws.Background.Image()
			}
			frame := compose.Frame(bg, ws.Registry, ws.Sprites(), w, h)

			f, err := os.Create(flagOut)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			if err := compose.Encode(f, frame, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			gauge.Logger().Info("frame rendered", "out", flagOut, "width", w, "height", h, "needles", ws.Registry.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %d needles)\n", flagOut, w, h, ws.Registry.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&flagGauge, "gauge", "", "Gauge background image")
	cmd.Flags().StringArrayVar(&flagSet, "set", nil, "Needle value as id=value (repeatable)")
	cmd.Flags().StringVar(&flagOut, "out", "frame.png", "Output file (.png or .webp)")
	cmd.Flags().IntVar(&flagWidth, "width", 0, "Output width (default: background width)")
	cmd.Flags().IntVar(&flagHeight, "height", 0, "Output height (default: background height)")
	return cmd
}

func outputFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".webp":
		return "webp", nil
	default:
		return "", fmt.Errorf("render: unsupported output extension %q (want .png or .webp)", ext)
	}
}

func parseAssignment(kv string) (string, float64, error) {
	id, raw, ok := strings.Cut(kv, "=")
	if !ok || id == "" {
		return "", 0, fmt.Errorf("--set %q: want id=value", kv)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("--set %q: %w", kv, err)
	}
	return id, v, nil
}

// renderSize fills unset dimensions from the background, keeping its aspect
// when only one is given.
func renderSize(ws *app.Workspace, w, h int) (int, int) {
	bg := ws.BackgroundSize()
	switch {
	case w > 0 && h > 0:
		return w, h
	case bg.X <= 0 || bg.Y <= 0:
		return orDefault(w, config.DefaultRenderWidth), orDefault(h, config.DefaultRenderHeight)
	case w > 0:
		return w, max(1, int(float64(w)*bg.Y/bg.X+0.5))
	case h > 0:
		return max(1, int(float64(h)*bg.X/bg.Y+0.5)), h
	default:
		return int(bg.X), int(bg.Y)
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func newAnglesCmd(configPath *string) *cobra.Command {
	var (
		flagID     string
		flagPreset string
		flagFrom   float64
		flagTo     float64
		flagStep   float64
	)
	cmd := &cobra.Command{
		Use:   "angles",
		Short: "Print the value to angle table of a calibrated needle or preset",
		Long: `Print the needle angle for a range of values. Angles use screen
convention: 0 points right and 90 points down.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r *gauge.Resolver
			if flagPreset != "" {
				p, err := gauge.Preset(flagPreset)
				if err != nil {
					return err
				}
				r = p
			} else {
				f, err := app.LoadConfig(*configPath)
				if err != nil {
					return err
				}
				e, ok := f.Needles[flagID]
				if !ok {
					return fmt.Errorf("needle %q is not calibrated in %s", flagID, *configPath)
				}
				r = e.CalibrationSet(gauge.Vec{}).Resolver()
			}

			lo, hi, ok := r.Range()
			if !ok {
				return errors.New("no calibration points")
			}
			from, to := lo, hi
			if cmd.Flags().Changed("from") {
				from = flagFrom
			}
			if cmd.Flags().Changed("to") {
				to = flagTo
			}
			return writeAngles(cmd.OutOrStdout(), r, from, to, flagStep)
		},
	}
	cmd.Flags().StringVar(&flagID, "needle-id", gauge.NeedleMain, "Needle id in the calibration file")
	cmd.Flags().StringVar(&flagPreset, "preset", "", "Built-in mapping: "+strings.Join(gauge.PresetNames(), ", "))
	cmd.Flags().Float64Var(&flagFrom, "from", 0, "First value (default: lowest calibrated value)")
	cmd.Flags().Float64Var(&flagTo, "to", 0, "Last value (default: highest calibrated value)")
	cmd.Flags().Float64Var(&flagStep, "step", 0, "Value step (default: a tenth of the range)")
	return cmd
}

func writeAngles(out io.Writer, r *gauge.Resolver, from, to, step float64) error {
	if step <= 0 {
		step = (to - from) / 10
	}
	if step <= 0 {
		step = 1
	}
	if to < from {
		return fmt.Errorf("--to %g is below --from %g", to, from)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "VALUE\tANGLE\t")
	n := int((to-from)/step+1e-9) + 1
	for i := 0; i < n; i++ {
		v := from + float64(i)*step
		fmt.Fprintf(tw, "%g\t%.2f\t\n", v, r.ValueToAngle(v))
	}
	return tw.Flush()
}
