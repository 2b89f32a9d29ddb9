package app

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/render"
)

func newRenderCommand(a *App) *cobra.Command {
	var (
		view        viewFlags
		output      string
		imageFormat string
		height      int
		derive      []string
		selection   string
		segments    int
		timeScale   bool
		annotations bool
	)

	cmd := &cobra.Command{
		Use:   "render <recording>",
		Short: "Render the spectrogram and derived plots to an image",
		Long: `Render the spectrogram of a recording, followed by any derived plots,
to a PNG or JPEG image.

Examples:
  iqview render capture.cf32 -o capture.png --width 2048 --fft-size 1024
  iqview render capture.cf32 -o fsk.png --tuner 120:8 --derive frequency,threshold
  iqview render capture.cf32 -o burst.jpg --select 100000:180000 --segments 16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := render.ImageFormatFromFilename(output)
			if imageFormat != "" {
				var err error
				if format, err = render.ParseImageFormat(imageFormat); err != nil {
					return err
				}
			}

			s, closeAll, err := a.openSession(cmd.Context(), args[0], &view)
			if err != nil {
				return err
			}
			defer closeAll()

			if _, err = derivePlots(s, derive); err != nil {
				return err
			}
			if selection != "" {
				if err = selectSamples(s, selection, segments); err != nil {
					return err
				}
			}
			s.EnableTimeScale(timeScale || a.config.Display.TimeScale)
			s.EnableAnnotations(annotations || a.config.Display.Annotations)

			if height <= 0 {
				height = s.ContentBounds().Dy()
			}
			s.Resize(view.width, height)

			img := image.NewRGBA(s.Bounds())
			if err = s.Paint(img); err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating image: %w", err)
			}
			if err = render.Encode(f, img, format); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return fmt.Errorf("closing image: %w", err)
			}

			stats := s.Stats()
			a.logger.Info("image written",
				slog.String("path", output),
				slog.String("format", string(format)),
				slog.Int("width", img.Bounds().Dx()),
				slog.Int("height", img.Bounds().Dy()),
				slog.Group("cache",
					slog.Int("powerTiles", stats.PowerTiles),
					slog.Int("imageTiles", stats.ImageTiles)))
			return nil
		},
	}

	view.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "spectrogram.png", "image file")
	cmd.Flags().StringVar(&imageFormat, "image-format", "", "png or jpeg, from the output name by default")
	cmd.Flags().IntVar(&height, "height", 0, "image height, every plot by default")
	cmd.Flags().StringSliceVar(&derive, "derive", nil, "chain of derived plots (amplitude, frequency, phase, iq, threshold)")
	cmd.Flags().StringVar(&selection, "select", "", "draw cursors over start:end samples")
	cmd.Flags().IntVar(&segments, "segments", 1, "number of cursor segments")
	cmd.Flags().BoolVar(&timeScale, "time-scale", false, "draw the time scale")
	cmd.Flags().BoolVar(&annotations, "annotations", false, "draw annotations")
	return cmd
}
