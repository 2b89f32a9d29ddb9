package cursor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

var (
	// ErrNotScalar is returned when extracting symbols from a complex source.
	ErrNotScalar = errors.New("symbol extraction requires a scalar source")

	// ErrEmptySelection is returned for a zero-length selection.
	ErrEmptySelection = errors.New("empty selection")

	// ErrUnavailable is returned when the selected samples cannot be read.
	ErrUnavailable = errors.New("samples unavailable")
)

// ExtractSymbols picks one sample per segment of selection: with
// step = length/segments, the value at selection.Minimum+floor(step/2+k*step)
// for every k in [0, segments).
func ExtractSymbols(src sample.Source, selection sample.Range[int64], segments int) ([]float32, error) {
	scalar, ok := src.AsScalar()
	if !ok {
		return nil, ErrNotScalar
	}
	if selection.Empty() {
		return nil, ErrEmptySelection
	}
	segments = max(1, segments)

	data, ok := scalar.Samples(selection.Minimum, selection.Length())
	if !ok {
		return nil, ErrUnavailable
	}

	step := float64(selection.Length()) / float64(segments)
	symbols := make([]float32, segments)
	for k := range symbols {
		symbols[k] = data[int(math.Floor(step/2+float64(k)*step))]
	}
	return symbols, nil
}

// WriteText writes symbols as comma separated decimals with six digits after
// the point, followed by a newline.
func WriteText(w io.Writer, symbols []float32) error {
	bw := bufio.NewWriter(w)
	for i, s := range symbols {
		if i > 0 {
			if _, err := bw.WriteString(", "); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(strconv.FormatFloat(float64(s), 'f', 6, 32)); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteRaw writes symbols as little-endian float32.
func WriteRaw(w io.Writer, symbols []float32) error {
	return binary.Write(w, binary.LittleEndian, symbols)
}

// FeedProgram runs name with args, writes the symbols as text to its
// standard input and returns its combined output.
func FeedProgram(ctx context.Context, symbols []float32, name string, args ...string) ([]byte, error) {
	var stdin bytes.Buffer
	if err := WriteText(&stdin, symbols); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = &stdin
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("running %s: %w", name, err)
	}
	return out, nil
}
