package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/render"
)

func newInfoCommand(a *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <recording>",
		Short: "Describe a recording and list its annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeAll, err := a.openSession(cmd.Context(), args[0], &viewFlags{format: format, width: 1})
			if err != nil {
				return err
			}
			defer closeAll()

			info, err := s.Info()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Path:\t%s\n", info.Path)
			fmt.Fprintf(w, "Format:\t%s\n", info.Format)
			fmt.Fprintf(w, "Samples:\t%s\n", humanize.Comma(info.Samples))
			fmt.Fprintf(w, "Sample rate:\t%s\n", render.Hz(info.SampleRate))
			if info.CenterFrequency != 0 {
				fmt.Fprintf(w, "Centre frequency:\t%s\n", render.Hz(info.CenterFrequency))
			}
			fmt.Fprintf(w, "Duration:\t%s\n", info.Duration)
			fmt.Fprintf(w, "Annotations:\t%d\n", info.Annotations)
			for _, an := range s.Annotations() {
				fmt.Fprintf(w, "  %s\t%s +%s\n", an.Tooltip(), humanize.Comma(an.Start), humanize.Comma(an.Length))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "sample format (cf32, cs16, cs8, cu8), guessed from the file name by default")
	return cmd
}
