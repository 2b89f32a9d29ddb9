package sample

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, p []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, p, 0o644))
	return path
}

func cf32Bytes(samples []complex64) []byte {
	p := make([]byte, 0, len(samples)*8)
	for _, s := range samples {
		p = binary.LittleEndian.AppendUint32(p, math.Float32bits(real(s)))
		p = binary.LittleEndian.AppendUint32(p, math.Float32bits(imag(s)))
	}
	return p
}

func TestFileSourceDecode(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		data     []byte
		expected []complex64
	}{
		{
			name:     "cf32",
			format:   FormatCF32,
			data:     cf32Bytes([]complex64{complex(0.5, -0.25), complex(1, 0)}),
			expected: []complex64{complex(0.5, -0.25), complex(1, 0)},
		},
		{
			name:     "cs16",
			format:   FormatCS16,
			data:     []byte{0x00, 0x40, 0x00, 0xc0, 0xff, 0x7f, 0x00, 0x80},
			expected: []complex64{complex(0.5, -0.5), complex(32767.0/32768, -1)},
		},
		{
			name:     "cs8",
			format:   FormatCS8,
			data:     []byte{0x40, 0xc0, 0x7f, 0x80},
			expected: []complex64{complex(0.5, -0.5), complex(127.0/128, -1)},
		},
		{
			name:     "cu8",
			format:   FormatCU8,
			data:     []byte{255, 0},
			expected: []complex64{complex((255-127.4)/128, (0-127.4)/128)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := OpenFile(writeFile(t, "rec."+string(tt.format), tt.data), tt.format)
			require.NoError(t, err)
			defer f.Close()

			require.EqualValues(t, len(tt.expected), f.Count())
			got, ok := f.Samples(0, f.Count())
			require.True(t, ok)
			for i := range tt.expected {
				assert.InDelta(t, real(tt.expected[i]), real(got[i]), 1e-6)
				assert.InDelta(t, imag(tt.expected[i]), imag(got[i]), 1e-6)
			}
		})
	}
}

func TestFileSourceUnavailable(t *testing.T) {
	f, err := OpenFile(writeFile(t, "rec.cf32", cf32Bytes(make([]complex64, 16))), FormatCF32)
	require.NoError(t, err)
	defer f.Close()

	for _, r := range [][2]int64{{-1, 4}, {14, 4}, {16, 1}, {0, 17}, {3, -1}} {
		_, ok := f.Samples(r[0], r[1])
		assert.False(t, ok, "range %v", r)
	}

	got, ok := f.Samples(16, 0)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestFileSourceTrailingPartialSample(t *testing.T) {
	data := append(cf32Bytes(make([]complex64, 3)), 1, 2, 3)
	f, err := OpenFile(writeFile(t, "rec.cf32", data), FormatCF32)
	require.NoError(t, err)
	defer f.Close()

	assert.EqualValues(t, 3, f.Count())
}

func TestFileSourceDeterministic(t *testing.T) {
	samples := make([]complex64, 4096)
	for i := range samples {
		samples[i] = complex(float32(i), float32(-i))
	}
	f, err := OpenFile(writeFile(t, "rec.cf32", cf32Bytes(samples)), FormatCF32)
	require.NoError(t, err)
	defer f.Close()

	a, ok := f.Samples(1000, 100)
	require.True(t, ok)
	b, ok := f.Samples(900, 300)
	require.True(t, ok)
	assert.Equal(t, a, b[100:200])

	a[0] = 42
	c, _ := f.Samples(1000, 1)
	assert.Equal(t, complex64(complex(1000, -1000)), c[0])
}

func TestFileSourceOpenError(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.cf32"), FormatCF32)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)

	_, err = OpenFile(writeFile(t, "rec.raw", nil), Format("wav"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileSourceReload(t *testing.T) {
	path := writeFile(t, "rec.cf32", cf32Bytes(make([]complex64, 8)))
	f, err := OpenFile(path, FormatCF32)
	require.NoError(t, err)
	defer f.Close()

	calls := 0
	f.Subscribe(NewListener(func() { calls++ }))
	before := f.Identity()

	require.NoError(t, os.WriteFile(path, cf32Bytes(make([]complex64, 20)), 0o644))
	require.NoError(t, f.Reload())

	assert.EqualValues(t, 20, f.Count())
	assert.Equal(t, 1, calls)
	assert.NotEqual(t, before, f.Identity())

	require.NoError(t, os.WriteFile(path, cf32Bytes(make([]complex64, 4)), 0o644))
	err = f.Reload()
	assert.ErrorIs(t, err, ErrFileShrunk)
	assert.EqualValues(t, 20, f.Count())
	assert.Equal(t, 1, calls)
}

func TestFormatFromFilename(t *testing.T) {
	tests := map[string]Format{
		"a.cfile": FormatCF32,
		"a.fc32":  FormatCF32,
		"a.cs16":  FormatCS16,
		"a.sc8":   FormatCS8,
		"a.uc8":   FormatCU8,
	}
	for name, expected := range tests {
		f, ok := FormatFromFilename(name)
		assert.True(t, ok, name)
		assert.Equal(t, expected, f, name)
	}

	_, ok := FormatFromFilename("capture.wav")
	assert.False(t, ok)
}

func TestCapabilityQueries(t *testing.T) {
	c := NewMemory([]complex64{1, 2}, 0)
	_, ok := c.AsScalar()
	assert.False(t, ok)
	typed, ok := c.AsComplex()
	require.True(t, ok)
	assert.Equal(t, Complex, typed.ElementType())

	s := NewMemory([]float32{1, 2}, 0)
	_, ok = s.AsComplex()
	assert.False(t, ok)
	_, ok = s.AsScalar()
	assert.True(t, ok)
	assert.Equal(t, Scalar, s.ElementType())
}

func TestNotifierUnsubscribeDuringInvalidate(t *testing.T) {
	var n Notifier
	var l *Listener
	calls := 0
	l = NewListener(func() {
		calls++
		n.Unsubscribe(l)
	})
	n.Subscribe(l)
	n.Subscribe(l)
	assert.Equal(t, 1, n.Subscribers())

	n.Invalidate()
	n.Invalidate()
	assert.Equal(t, 1, calls)
	assert.Zero(t, n.Subscribers())
}

func TestDecimation(t *testing.T) {
	assert.EqualValues(t, 1, Decimation(NewMemory([]float32{1}, 0)))
}
