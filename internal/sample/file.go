package sample

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/exp/mmap"
)

// DefaultSampleRate is used until the caller configures the recording rate.
const DefaultSampleRate = 8_000_000

// Identity distinguishes one mapping of a recording from another. It changes
// whenever the file is reloaded so that caches keyed on it are never reused
// across reloads.
type Identity struct {
	Path       string
	Generation uint64
}

func (id Identity) String() string {
	return fmt.Sprintf("%s#%d", id.Path, id.Generation)
}

// WithFileLogger sets the logger for the file source.
func WithFileLogger(logger *slog.Logger) func(f *FileSource) {
	return func(f *FileSource) {
		f.logger = logger.With(slog.String("path", f.path))
	}
}

// WithSampleRate sets the initial sample rate.
func WithSampleRate(rate float64) func(f *FileSource) {
	return func(f *FileSource) {
		f.rate = rate
	}
}

// FileSource is the leaf node decoding a memory-mapped recording.
type FileSource struct {
	Notifier

	path   string
	format Format
	reader *mmap.ReaderAt
	count  int64

	generation      uint64
	rate            float64
	centerFrequency float64

	logger *slog.Logger
}

// OpenFile maps path and decodes it with the given format. On failure no
// resources are held.
func OpenFile(path string, format Format, options ...func(f *FileSource)) (*FileSource, error) {
	if format.SampleSize() == 0 {
		return nil, &IOError{Op: "open", Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
	}

	f := &FileSource{
		path:   path,
		format: format,
		rate:   DefaultSampleRate,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(f)
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	f.reader = reader
	f.count = int64(reader.Len() / format.SampleSize())

	f.logger.Debug("recording mapped",
		slog.String("format", string(format)),
		slog.Int64("samples", f.count))

	return f, nil
}

// Reload re-maps the file. Subscribers are notified and the identity changes.
// If the file became shorter, the previous mapping is kept and ErrFileShrunk
// is returned.
func (f *FileSource) Reload() error {
	reader, err := mmap.Open(f.path)
	if err != nil {
		return &IOError{Op: "reload", Path: f.path, Err: err}
	}

	count := int64(reader.Len() / f.format.SampleSize())
	if count < f.count {
		_ = reader.Close()
		return &IOError{Op: "reload", Path: f.path, Err: ErrFileShrunk}
	}

	old := f.reader
	f.reader = reader
	f.count = count
	f.generation++
	if old != nil {
		if err = old.Close(); err != nil {
			f.logger.Warn("closing previous mapping", slog.String("error", err.Error()))
		}
	}

	f.logger.Debug("recording reloaded", slog.Int64("samples", count), slog.Uint64("generation", f.generation))
	f.Invalidate()
	return nil
}

// Close releases the mapping.
func (f *FileSource) Close() error {
	if f.reader == nil {
		return nil
	}
	err := f.reader.Close()
	f.reader = nil
	f.count = 0
	return err
}

func (f *FileSource) Path() string {
	return f.path
}

func (f *FileSource) Format() Format {
	return f.format
}

func (f *FileSource) Identity() Identity {
	return Identity{Path: f.path, Generation: f.generation}
}

func (f *FileSource) ElementType() ElementType {
	return Complex
}

func (f *FileSource) Count() int64 {
	return f.count
}

func (f *FileSource) Rate() float64 {
	return f.rate
}

func (f *FileSource) SetSampleRate(rate float64) {
	if rate > 0 {
		f.rate = rate
	}
}

func (f *FileSource) CenterFrequency() float64 {
	return f.centerFrequency
}

func (f *FileSource) SetCenterFrequency(hz float64) {
	f.centerFrequency = hz
}

func (f *FileSource) RelativeBandwidth() float64 {
	return 1
}

func (f *FileSource) AsComplex() (Typed[complex64], bool) {
	return f, true
}

func (f *FileSource) AsScalar() (Typed[float32], bool) {
	return nil, false
}

// Samples decodes [start, start+length). A range outside the recording or a
// short read reports the data as unavailable.
func (f *FileSource) Samples(start, length int64) ([]complex64, bool) {
	if f.reader == nil || !InBounds(start, length, f.count) {
		return nil, false
	}

	size := int64(f.format.SampleSize())
	buf := make([]byte, length*size)
	n, err := f.reader.ReadAt(buf, start*size)
	if int64(n) != length*size {
		f.logger.Debug("short read",
			slog.Int64("start", start),
			slog.Int64("length", length),
			slog.Any("error", err))
		return nil, false
	}

	out := make([]complex64, length)
	f.format.decode(out, buf)
	return out, true
}
