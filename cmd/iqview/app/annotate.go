package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/render"
	"github.com/roman-kulish/radio-inspector/internal/session"
	"github.com/roman-kulish/radio-inspector/internal/storage"
)

func newAnnotateCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Add and list annotations kept in the database",
	}
	cmd.AddCommand(newAnnotateAddCommand(a), newAnnotateListCommand(a))
	return cmd
}

func newAnnotateAddCommand(a *App) *cobra.Command {
	var (
		format     string
		annotation recording.Annotation
	)

	cmd := &cobra.Command{
		Use:   "add <recording> --start n --length n --label text",
		Short: "Annotate a region of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if annotation.Length <= 0 {
				return fmt.Errorf("annotation length must be positive: %d given", annotation.Length)
			}

			store := storage.NewSqliteStore(a.config.Storage.DBPath)
			defer store.Close()

			s := session.New(a.config, session.WithLogger(a.logger), session.WithStore(store))
			defer s.Close()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err = s.OpenFile(cmd.Context(), path, format); err != nil {
				return err
			}
			if err = s.AddAnnotation(cmd.Context(), annotation); err != nil {
				return err
			}

			a.logger.Info("annotation stored",
				slog.String("db", a.config.Storage.DBPath),
				slog.String("label", annotation.Label),
				slog.Int64("start", annotation.Start),
				slog.Int64("length", annotation.Length))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "sample format (cf32, cs16, cs8, cu8), guessed from the file name by default")
	cmd.Flags().Int64Var(&annotation.Start, "start", 0, "first annotated sample")
	cmd.Flags().Int64Var(&annotation.Length, "length", 0, "number of annotated samples")
	cmd.Flags().Float64Var(&annotation.FreqLower, "freq-lower", 0, "lower frequency edge in Hz")
	cmd.Flags().Float64Var(&annotation.FreqUpper, "freq-upper", 0, "upper frequency edge in Hz")
	cmd.Flags().StringVar(&annotation.Label, "label", "", "short label")
	cmd.Flags().StringVar(&annotation.Comment, "comment", "", "longer description")
	return cmd
}

func newAnnotateListCommand(a *App) *cobra.Command {
	var (
		label     string
		selection string
	)

	cmd := &cobra.Command{
		Use:   "list [recording]",
		Short: "List stored recordings or the annotations of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := storage.NewSqliteStore(a.config.Storage.DBPath)
			defer store.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if len(args) == 0 {
				recordings, err := store.Recordings(ctx)
				if err != nil {
					return err
				}
				for _, r := range recordings {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, r.Format, render.Hz(r.SampleRate))
				}
				return w.Flush()
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			rec, err := store.Recording(ctx, path)
			if err != nil {
				return err
			}

			var opts []storage.ReaderOption
			if label != "" {
				opts = append(opts, storage.WithLabel(label))
			}
			if selection != "" {
				start, end, err := parsePair(selection)
				if err != nil {
					return fmt.Errorf("invalid --overlapping: %w", err)
				}
				opts = append(opts, storage.WithSampleRange(start, end))
			}

			reader, err := store.Annotations(ctx, rec.ID, opts...)
			if err != nil {
				return err
			}
			defer reader.Close()

			for reader.Next(ctx) {
				an := reader.Current()
				fmt.Fprintf(w, "%s\t%s\t+%s", an.Label, humanize.Comma(an.Start), humanize.Comma(an.Length))
				if an.HasFrequency() {
					fmt.Fprintf(w, "\t%s..%s", render.Hz(an.FreqLower), render.Hz(an.FreqUpper))
				}
				if an.Comment != "" {
					fmt.Fprintf(w, "\t%s", an.Comment)
				}
				fmt.Fprintln(w)
			}
			if err = reader.Error(); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "only annotations with this label")
	cmd.Flags().StringVar(&selection, "overlapping", "", "only annotations overlapping start:end samples")
	return cmd
}
