// Package recording describes IQ recordings: where the samples live, how they
// are encoded and the metadata and annotations attached to them.
package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// Recording is a capture on disk together with its metadata.
type Recording struct {
	ID              int64         `json:"id,omitempty"`
	Path            string        `json:"path"`
	Format          sample.Format `json:"format"`
	SampleRate      float64       `json:"sampleRate,omitempty"`
	CenterFrequency float64       `json:"centerFrequency,omitempty"`
	Annotations     []Annotation  `json:"annotations,omitempty"`
}

// Annotation is a region of a recording, optionally bounded in frequency.
type Annotation struct {
	ID        int64   `json:"id,omitempty"`
	Start     int64   `json:"sampleStart"`
	Length    int64   `json:"sampleCount"`
	FreqLower float64 `json:"freqLowerEdge,omitempty"`
	FreqUpper float64 `json:"freqUpperEdge,omitempty"`
	Label     string  `json:"label,omitempty"`
	Comment   string  `json:"comment,omitempty"`
}

// Range returns the annotated sample interval.
func (a Annotation) Range() sample.Range[int64] {
	return sample.Range[int64]{Minimum: a.Start, Maximum: a.Start + a.Length}
}

// HasFrequency reports whether the annotation has frequency edges.
func (a Annotation) HasFrequency() bool {
	return a.FreqUpper > a.FreqLower
}

// Tooltip returns the text shown when hovering the annotation.
func (a Annotation) Tooltip() string {
	switch {
	case a.Comment != "" && a.Label != "":
		return a.Label + ": " + a.Comment
	case a.Comment != "":
		return a.Comment
	default:
		return a.Label
	}
}

// osmocom_fft names its captures "<name>-f<frequency>-s<rate>-t<time>.cfile".
var osmocomFilename = regexp.MustCompile(`^(.*)-f(.*)-s(.*)-.*\.cfile$`)

// ParseFilename extracts the centre frequency and sample rate encoded in an
// osmocom_fft capture name. ok is false when the name does not match.
func ParseFilename(path string) (centerFrequency, sampleRate float64, ok bool) {
	m := osmocomFilename.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, 0, false
	}
	f, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	s, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, 0, false
	}
	return f, s, true
}

// Describe gathers what is known about the recording at path. A SigMF
// companion file takes precedence over filename conventions; format, when
// non-empty, overrides any hint.
func Describe(path string, format string) (*Recording, error) {
	rec := &Recording{Path: path, Format: sample.FormatCF32}

	if meta, data, ok := sigmfPaths(path); ok {
		if _, err := os.Stat(meta); err == nil {
			sigmf, err := ReadSigMF(meta)
			if err != nil {
				return nil, err
			}
			sigmf.Path = data
			rec = sigmf
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", meta, err)
		}
	} else {
		if f, ok := sample.FormatFromFilename(path); ok {
			rec.Format = f
		}
		if freq, rate, ok := ParseFilename(path); ok {
			rec.CenterFrequency = freq
			rec.SampleRate = rate
		}
	}

	if format != "" {
		f, err := sample.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		rec.Format = f
	}
	return rec, nil
}

func sigmfPaths(path string) (meta, data string, ok bool) {
	switch ext := filepath.Ext(path); strings.ToLower(ext) {
	case ".sigmf-meta", ".sigmf-data", ".sigmf":
		base := strings.TrimSuffix(path, ext)
		return base + ".sigmf-meta", base + ".sigmf-data", true
	default:
		return "", "", false
	}
}
