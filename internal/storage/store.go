// Package storage persists recording metadata and annotations.
package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/radio-inspector/internal/recording"
)

// Store keeps recordings and their annotations. A recording is identified by
// its path.
type Store interface {
	// SaveRecording inserts or updates the recording with r.Path and replaces
	// its annotations with r.Annotations, in a single transaction.
	//
	// Returns the recording ID.
	SaveRecording(ctx context.Context, r *recording.Recording) (int64, error)

	// Recording loads the recording stored for path together with all of its
	// annotations. Returns ErrNotFound if no recording has that path.
	Recording(ctx context.Context, path string) (*recording.Recording, error)

	// Recordings lists every stored recording, without annotations, ordered
	// by path.
	Recordings(ctx context.Context) ([]*recording.Recording, error)

	// StoreAnnotation adds a single annotation to a recording and returns
	// its ID.
	StoreAnnotation(ctx context.Context, recordingID int64, a *recording.Annotation) (int64, error)

	// Annotations returns a reader over the annotations of a recording,
	// ordered by start sample. Options narrow the result.
	//
	// The returned reader must be closed after use.
	Annotations(ctx context.Context, recordingID int64, opts ...ReaderOption) (*AnnotationReader, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
