package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/radio-inspector/internal/plots"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/session"
	"github.com/roman-kulish/radio-inspector/internal/storage"
)

// viewFlags position the view of a recording.
type viewFlags struct {
	format string
	width  int
	start  int64
	tuner  string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "sample format (cf32, cs16, cs8, cu8), guessed from the file name by default")
	cmd.Flags().IntVar(&f.width, "width", 1024, "view width in columns")
	cmd.Flags().Int64Var(&f.start, "start", 0, "first sample of the view")
	cmd.Flags().StringVar(&f.tuner, "tuner", "", "enable the tuner at centre:deviation, in bins")
}

// openSession opens path with the loaded configuration. The annotation store
// is attached when its database exists.
func (a *App) openSession(ctx context.Context, path string, f *viewFlags) (*session.Session, func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	options := []func(s *session.Session){session.WithLogger(a.logger)}

	var store *storage.SqliteStore
	if _, err := os.Stat(a.config.Storage.DBPath); err == nil {
		store = storage.NewSqliteStore(a.config.Storage.DBPath)
		options = append(options, session.WithStore(store))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("checking database: %w", err)
	}

	s := session.New(a.config, options...)
	closeAll := func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("closing session", slog.String("error", err.Error()))
		}
		if store != nil {
			if err := store.Close(); err != nil {
				a.logger.Warn("closing database", slog.String("error", err.Error()))
			}
		}
	}

	format := ""
	if f != nil {
		format = f.format
	}
	if err = s.OpenFile(ctx, abs, format); err != nil {
		closeAll()
		return nil, nil, err
	}

	if f == nil {
		return s, closeAll, nil
	}
	s.Resize(f.width, 0)
	s.ScrollToSample(f.start)
	if f.tuner != "" {
		centre, deviation, err := parsePair(f.tuner)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("invalid --tuner: %w", err)
		}
		s.EnableTuner(true)
		s.MoveTuner(int(centre), int(deviation))
	}
	return s, closeAll, nil
}

// selectSamples enables the cursors over "start:end".
func selectSamples(s *session.Session, value string, segments int) error {
	start, end, err := parsePair(value)
	if err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	// Changing the segment count stretches the selection, so the count is set
	// first and start:end is then divided into that many segments.
	s.EnableCursors(true)
	s.SetCursorSegments(segments)
	s.MoveCursors(sample.Range[int64]{Minimum: start, Maximum: end})
	return nil
}

var plotNames = map[string]string{
	"amplitude": plots.AmplitudePlot,
	"frequency": plots.FrequencyPlot,
	"phase":     plots.PhasePlot,
	"iq":        plots.IQPlot,
	"threshold": plots.ThresholdPlot,
}

// derivePlots adds the plots named in chain, each derived from the previous
// one, and returns the index of the last.
func derivePlots(s *session.Session, chain []string) (int, error) {
	index := 0
	for _, name := range chain {
		if full, ok := plotNames[strings.ToLower(name)]; ok {
			name = full
		}
		var err error
		if index, err = s.AddDerivedPlot(index, name); err != nil {
			return 0, err
		}
	}
	return index, nil
}

func parsePair(value string) (int64, int64, error) {
	a, b, ok := strings.Cut(value, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected two values separated by ':': %q", value)
	}
	first, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	second, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}
