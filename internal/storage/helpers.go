package storage

import (
	"database/sql"

	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

func toNullFloat64(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toRecordingData(r *recording.Recording) *recordingData {
	return &recordingData{
		ID:              r.ID,
		Path:            r.Path,
		Format:          string(r.Format),
		SampleRate:      toNullFloat64(r.SampleRate),
		CenterFrequency: toNullFloat64(r.CenterFrequency),
	}
}

func (d *recordingData) recording() *recording.Recording {
	return &recording.Recording{
		ID:              d.ID,
		Path:            d.Path,
		Format:          sample.Format(d.Format),
		SampleRate:      d.SampleRate.Float64,
		CenterFrequency: d.CenterFrequency.Float64,
	}
}

func toAnnotationData(recordingID int64, a *recording.Annotation) *annotationData {
	return &annotationData{
		ID:          a.ID,
		RecordingID: recordingID,
		SampleStart: a.Start,
		SampleCount: a.Length,
		FreqLower:   sql.NullFloat64{Float64: a.FreqLower, Valid: a.HasFrequency()},
		FreqUpper:   sql.NullFloat64{Float64: a.FreqUpper, Valid: a.HasFrequency()},
		Label:       toNullString(a.Label),
		Comment:     toNullString(a.Comment),
	}
}

func (d *annotationData) annotation() recording.Annotation {
	return recording.Annotation{
		ID:        d.ID,
		Start:     d.SampleStart,
		Length:    d.SampleCount,
		FreqLower: d.FreqLower.Float64,
		FreqUpper: d.FreqUpper.Float64,
		Label:     d.Label.String,
		Comment:   d.Comment.String,
	}
}
