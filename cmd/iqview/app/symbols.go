package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/cursor"
)

func newSymbolsCommand(a *App) *cobra.Command {
	var (
		view      viewFlags
		selection string
		segments  int
		derive    []string
		raw       string
		program   []string
	)

	cmd := &cobra.Command{
		Use:   "symbols <recording> --select start:end --segments n",
		Short: "Sample a scalar plot once per cursor segment",
		Long: `Divide the selection into segments and sample the derived plot at the
middle of each one. The symbols are printed as comma separated values,
written as float32 little endian to a raw file, or fed to a program.

Example:
  iqview symbols capture.cf32 --tuner 120:8 --derive frequency,threshold \
      --select 120000:160000 --segments 64 --program ./decode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if selection == "" {
				return cursor.ErrNoSelection
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
			if err = selectSamples(s, selection, segments); err != nil {
				return err
			}
			a.logger.Info("symbol selection", slog.String("measurement", s.Measurement().String()))

			if len(program) > 0 {
				out, err := s.FeedSymbols(cmd.Context(), index, program[0], program[1:]...)
				if _, werr := cmd.OutOrStdout().Write(out); err == nil {
					err = werr
				}
				return err
			}

			symbols, err := s.ExtractSymbols(index)
			if err != nil {
				return err
			}
			if raw == "" {
				return cursor.WriteText(cmd.OutOrStdout(), symbols)
			}

			f, err := os.Create(raw)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			if err = cursor.WriteRaw(f, symbols); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	view.register(cmd)
	cmd.Flags().StringVar(&selection, "select", "", "select start:end samples")
	cmd.Flags().IntVar(&segments, "segments", 1, "number of symbols in the selection")
	cmd.Flags().StringSliceVar(&derive, "derive", []string{"amplitude"}, "chain of derived plots ending in a scalar plot")
	cmd.Flags().StringVar(&raw, "raw", "", "write float32 little endian symbols to this file")
	cmd.Flags().StringArrayVar(&program, "program", nil, "program and arguments fed the symbols on stdin, repeat for each argument")
	return cmd
}
