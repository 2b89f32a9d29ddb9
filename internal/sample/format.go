package sample

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Format identifies an interleaved I/Q file encoding.
type Format string

const (
	FormatCF32 Format = "cf32" // complex float32, little endian
	FormatCS16 Format = "cs16" // complex int16, little endian
	FormatCS8  Format = "cs8"  // complex int8
	FormatCU8  Format = "cu8"  // complex uint8, offset binary
)

var formatAliases = map[string]Format{
	"cf32":  FormatCF32,
	"fc32":  FormatCF32,
	"cfile": FormatCF32,
	"cs16":  FormatCS16,
	"sc16":  FormatCS16,
	"c16":   FormatCS16,
	"cs8":   FormatCS8,
	"sc8":   FormatCS8,
	"c8":    FormatCS8,
	"cu8":   FormatCU8,
	"uc8":   FormatCU8,
}

// ParseFormat resolves a format name or one of its aliases.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimPrefix(name, "."))]
	if !ok {
		return "", fmt.Errorf("unknown sample format: %q", name)
	}
	return f, nil
}

// FormatFromFilename advises a format from the file extension. The result is
// only a hint, the file contents are never inspected.
func FormatFromFilename(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatCF32, false
	}
	return f, true
}

// SampleSize returns the number of bytes per complex sample.
func (f Format) SampleSize() int {
	switch f {
	case FormatCF32:
		return 8
	case FormatCS16:
		return 4
	case FormatCS8, FormatCU8:
		return 2
	default:
		return 0
	}
}

// decode converts len(dst) complex samples from p, which holds exactly
// len(dst)*SampleSize bytes.
func (f Format) decode(dst []complex64, p []byte) {
	switch f {
	case FormatCF32:
		for i := range dst {
			b := p[i*8:]
			re := math.Float32frombits(binary.LittleEndian.Uint32(b))
			im := math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
			dst[i] = complex(re, im)
		}

	case FormatCS16:
		for i := range dst {
			b := p[i*4:]
			re := float32(int16(binary.LittleEndian.Uint16(b))) / 32768
			im := float32(int16(binary.LittleEndian.Uint16(b[2:]))) / 32768
			dst[i] = complex(re, im)
		}

	case FormatCS8:
		for i := range dst {
			re := float32(int8(p[i*2])) / 128
			im := float32(int8(p[i*2+1])) / 128
			dst[i] = complex(re, im)
		}

	case FormatCU8:
		for i := range dst {
			re := (float32(p[i*2]) - 127.4) / 128
			im := (float32(p[i*2+1]) - 127.4) / 128
			dst[i] = complex(re, im)
		}
	}
}
