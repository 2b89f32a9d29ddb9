package recording

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

type sigmfMeta struct {
	Global struct {
		Datatype   string  `json:"core:datatype"`
		SampleRate float64 `json:"core:sample_rate"`
	} `json:"global"`
	Captures []struct {
		SampleStart int64   `json:"core:sample_start"`
		Frequency   float64 `json:"core:frequency"`
	} `json:"captures"`
	Annotations []struct {
		SampleStart   int64   `json:"core:sample_start"`
		SampleCount   int64   `json:"core:sample_count"`
		FreqLowerEdge float64 `json:"core:freq_lower_edge"`
		FreqUpperEdge float64 `json:"core:freq_upper_edge"`
		Label         string  `json:"core:label"`
		Comment       string  `json:"core:comment"`
	} `json:"annotations"`
}

var sigmfDatatypes = map[string]sample.Format{
	"cf32_le": sample.FormatCF32,
	"cf32":    sample.FormatCF32,
	"ci16_le": sample.FormatCS16,
	"ci16":    sample.FormatCS16,
	"ci8":     sample.FormatCS8,
	"cu8":     sample.FormatCU8,
}

// ReadSigMF parses a .sigmf-meta file. The returned recording points at the
// meta file; callers substitute the data path.
func ReadSigMF(path string) (*Recording, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, &sample.IOError{Op: "read", Path: path, Err: err}
	}

	var meta sigmfMeta
	if err = json.Unmarshal(p, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	format, ok := sigmfDatatypes[strings.ToLower(meta.Global.Datatype)]
	if !ok {
		return nil, fmt.Errorf("%w: sigmf datatype %q", sample.ErrUnsupportedFormat, meta.Global.Datatype)
	}

	rec := &Recording{
		Path:       path,
		Format:     format,
		SampleRate: meta.Global.SampleRate,
	}
	if len(meta.Captures) > 0 {
		rec.CenterFrequency = meta.Captures[0].Frequency
	}
	for _, a := range meta.Annotations {
		rec.Annotations = append(rec.Annotations, Annotation{
			Start:     a.SampleStart,
			Length:    a.SampleCount,
			FreqLower: a.FreqLowerEdge,
			FreqUpper: a.FreqUpperEdge,
			Label:     a.Label,
			Comment:   a.Comment,
		})
	}
	return rec, nil
}
