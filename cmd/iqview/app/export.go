package app

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/cursor"
)

func newExportCommand(a *App) *cobra.Command {
	var (
		view      viewFlags
		output    string
		selection string
		rangeKind string
		derive    []string
		stride    int64
	)

	cmd := &cobra.Command{
		Use:   "export <recording>",
		Short: "Export samples as float32 little endian",
		Long: `Export the samples of the recording, the tuner or a derived plot.
Complex samples are written as interleaved I/Q float32 values, scalar
samples as float32 values, both little endian.

With the tuner enabled the output is decimated to the tuner bandwidth
unless --stride is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := cursor.RangeFile
			switch rangeKind {
			case "file":
			case "view":
				kind = cursor.RangeView
			case "selection":
				kind = cursor.RangeSelection
			default:
				return fmt.Errorf("invalid --range: %q", rangeKind)
			}
			if selection != "" && !cmd.Flags().Changed("range") {
				kind = cursor.RangeSelection
			}

			s, closeAll, err := a.openSession(cmd.Context(), args[0], &view)
			if err != nil {
				return err
			}
			defer closeAll()

			index, err := derivePlots(s, derive)
			if err != nil {
				return err
			}
			if selection != "" {
				if err = selectSamples(s, selection, 1); err != nil {
					return err
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			w := bufio.NewWriter(f)

			res, err := s.Export(cmd.Context(), index, kind, w, cursor.Options{
				Stride: stride,
				Progress: func(done, total int64) {
					a.logger.Debug("export progress",
						slog.String("done", humanize.Comma(done)),
						slog.String("total", humanize.Comma(total)))
				},
			})
			if err == nil {
				err = w.Flush()
			}
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("closing output: %w", closeErr)
			}
			if err != nil {
				return err
			}

			a.logger.Info("samples exported",
				slog.String("path", output),
				slog.Int64("samples", res.Samples),
				slog.Int("skippedChunks", res.Skipped),
				slog.Bool("cancelled", res.Cancelled))
			return nil
		},
	}

	view.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "export.f32", "output file")
	cmd.Flags().StringVar(&rangeKind, "range", "file", "what to export: file, view or selection")
	cmd.Flags().StringVar(&selection, "select", "", "select start:end samples")
	cmd.Flags().StringSliceVar(&derive, "derive", nil, "export a chain of derived plots instead (amplitude, frequency, phase, threshold)")
	cmd.Flags().Int64Var(&stride, "stride", 0, "keep every n-th sample, the tuner decimation by default")
	return cmd
}
