package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/radio-inspector/internal/recording"
)

// ReaderOption configures an AnnotationReader.
type ReaderOption func(*AnnotationReader)

// WithSampleRange keeps annotations overlapping [start, end).
func WithSampleRange(start, end int64) ReaderOption {
	return func(r *AnnotationReader) {
		r.start = start
		r.end = end
	}
}

// WithLabel keeps annotations with exactly this label. Matching is done
// while reading.
func WithLabel(label string) ReaderOption {
	return func(r *AnnotationReader) {
		r.label = &label
	}
}

// AnnotationReader iterates over the annotations of a recording.
type AnnotationReader struct {
	db          *sql.DB
	recordingID int64

	start int64
	end   int64
	label *string

	rows    *sql.Rows
	current recording.Annotation
	err     error
}

func newAnnotationReader(ctx context.Context, db *sql.DB, recordingID int64, opts ...ReaderOption) (*AnnotationReader, error) {
	r := &AnnotationReader{
		db:          db,
		recordingID: recordingID,
		start:       0,
		end:         math.MaxInt64,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *AnnotationReader) init(ctx context.Context) (err error) {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.recordingID <= 0 {
		return errors.New("recording ID required")
	}
	if r.start > r.end {
		return fmt.Errorf("range start %d is after end %d", r.start, r.end)
	}

	stmt, err := r.db.PrepareContext(ctx, selectAnnotationsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	r.rows, err = stmt.QueryContext(ctx, r.recordingID, r.end, r.start)
	return
}

// Next advances to the next annotation. It returns false when the rows are
// exhausted, the context is done or an error occurred.
func (r *AnnotationReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	for {
		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if !r.rows.Next() {
			r.err = r.rows.Err()
			return false
		}

		var data annotationData
		if err := r.rows.Scan(&data.ID, &data.SampleStart, &data.SampleCount, &data.FreqLower, &data.FreqUpper, &data.Label, &data.Comment); err != nil {
			r.err = fmt.Errorf("scanning annotation: %w", err)
			return false
		}
		if r.label != nil && data.Label.String != *r.label {
			continue
		}

		data.RecordingID = r.recordingID
		r.current = data.annotation()
		return true
	}
}

// Current returns the annotation read by the last successful Next.
func (r *AnnotationReader) Current() recording.Annotation {
	return r.current
}

func (r *AnnotationReader) Error() error {
	return r.err
}

func (r *AnnotationReader) Close() error {
	if r.rows == nil {
		return nil
	}
	err := r.rows.Close()
	r.rows = nil
	return err
}
