package cursor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// DefaultChunkSize is the number of input samples read per export chunk.
const DefaultChunkSize = 1 << 16

// ErrNoSelection is returned when exporting the selection while the cursors
// are disabled.
var ErrNoSelection = errors.New("no cursor selection")

// RangeKind selects what an export covers.
type RangeKind int

const (
	RangeSelection RangeKind = iota
	RangeView
	RangeFile
)

// ExportRange resolves kind against the current selection, view and sample
// count.
func ExportRange(kind RangeKind, selection, viewRange sample.Range[int64], count int64, cursorsEnabled bool) (sample.Range[int64], error) {
	var r sample.Range[int64]
	switch kind {
	case RangeSelection:
		if !cursorsEnabled {
			return r, ErrNoSelection
		}
		r = selection
	case RangeView:
		r = viewRange
	default:
		r = sample.Range[int64]{Minimum: 0, Maximum: count}
	}
	return r.Normalized().Clamp(0, count), nil
}

// ExportError reports a failed write to the export sink.
type ExportError struct {
	Offset int64
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at sample %d: %v", e.Offset, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Options configures an export.
type Options struct {
	// Stride keeps every Stride-th sample. 0 selects the decimation matching
	// the source bandwidth.
	Stride int64

	// ChunkSize is the number of input samples per chunk, rounded up to a
	// multiple of Stride.
	ChunkSize int64

	// Progress is called after every chunk with the number of input samples
	// processed.
	Progress func(done, total int64)

	Logger *slog.Logger
}

// Result summarises an export.
type Result struct {
	// Samples is the number of samples written.
	Samples int64

	// Skipped counts chunks that could not be read.
	Skipped int

	// Cancelled is set when the context ended between chunks. The output
	// then holds every chunk written so far.
	Cancelled bool
}

// Export writes the samples of r, decimated by the stride, to w in the
// source's native element type: complex as interleaved float32 I/Q, scalar
// as float32, both little endian. Cancellation is checked once per chunk and
// is not an error.
func Export(ctx context.Context, src sample.Source, r sample.Range[int64], w io.Writer, opts Options) (Result, error) {
	if opts.Stride <= 0 {
		opts.Stride = sample.Decimation(src)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	opts.ChunkSize = (opts.ChunkSize + opts.Stride - 1) / opts.Stride * opts.Stride

	if c, ok := src.AsComplex(); ok {
		return export(ctx, c, r, w, opts, 8, func(p []byte, v complex64) []byte {
			p = binary.LittleEndian.AppendUint32(p, math.Float32bits(real(v)))
			return binary.LittleEndian.AppendUint32(p, math.Float32bits(imag(v)))
		})
	}
	if s, ok := src.AsScalar(); ok {
		return export(ctx, s, r, w, opts, 4, func(p []byte, v float32) []byte {
			return binary.LittleEndian.AppendUint32(p, math.Float32bits(v))
		})
	}
	return Result{}, fmt.Errorf("export: unsupported element type %s", src.ElementType())
}

func export[T sample.Element](ctx context.Context, src sample.Typed[T], r sample.Range[int64], w io.Writer, opts Options,
	size int, encode func([]byte, T) []byte,
) (Result, error) {
	var res Result
	total := r.Length()
	buf := make([]byte, 0, int(opts.ChunkSize/opts.Stride+1)*size)

	for pos := r.Minimum; pos < r.Maximum; pos += opts.ChunkSize {
		if ctx.Err() != nil {
			res.Cancelled = true
			return res, nil
		}

		length := min(opts.ChunkSize, r.Maximum-pos)
		data, ok := src.Samples(pos, length)
		if ok {
			buf = buf[:0]
			for i := int64(0); i < int64(len(data)); i += opts.Stride {
				buf = encode(buf, data[i])
			}
			if _, err := w.Write(buf); err != nil {
				return res, &ExportError{Offset: pos, Err: err}
			}
			res.Samples += int64(len(buf) / size)
		} else {
			res.Skipped++
			if opts.Logger != nil {
				opts.Logger.Warn("skipping unavailable chunk", slog.Int64("start", pos), slog.Int64("length", length))
			}
		}

		if opts.Progress != nil {
			opts.Progress(pos+length-r.Minimum, total)
		}
	}
	return res, nil
}
