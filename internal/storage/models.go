package storage

import (
	"database/sql"
)

type recordingData struct {
	ID              int64
	Path            string
	Format          string
	SampleRate      sql.NullFloat64
	CenterFrequency sql.NullFloat64
}

type annotationData struct {
	ID          int64
	RecordingID int64
	SampleStart int64
	SampleCount int64
	FreqLower   sql.NullFloat64
	FreqUpper   sql.NullFloat64
	Label       sql.NullString
	Comment     sql.NullString
}
