package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/roman-kulish/radio-inspector/internal/recording"
)

// ErrNotFound is returned when no recording is stored for a path.
var ErrNotFound = errors.New("recording not found")

// SqliteStore implements Store on a SQLite database file.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore returns a store for dbPath. Connections are opened on first
// use and the schema is created if missing.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		// The read-only connection cannot create the schema.
		if _, err := s.getWriteDB(); err != nil {
			s.readDBErr = err
			return
		}

		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) SaveRecording(ctx context.Context, r *recording.Recording) (id int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	data := toRecordingData(r)
	if err = tx.QueryRowContext(ctx, upsertRecordingSQL, data.Path, data.Format, data.SampleRate, data.CenterFrequency).Scan(&id); err != nil {
		err = fmt.Errorf("upserting recording: %w", err)
		return
	}

	if _, err = tx.ExecContext(ctx, deleteAnnotationsSQL, id); err != nil {
		err = fmt.Errorf("deleting annotations: %w", err)
		return
	}

	if len(r.Annotations) > 0 {
		var stmt *sql.Stmt
		if stmt, err = tx.PrepareContext(ctx, insertAnnotationSQL); err != nil {
			err = fmt.Errorf("preparing statement: %w", err)
			return
		}
		defer closeWithError(stmt, &err)

		for i := range r.Annotations {
			var annotationID int64
			if annotationID, err = insertAnnotation(ctx, stmt, toAnnotationData(id, &r.Annotations[i])); err != nil {
				return
			}
			r.Annotations[i].ID = annotationID
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
		return
	}

	r.ID = id
	return
}

func insertAnnotation(ctx context.Context, stmt *sql.Stmt, data *annotationData) (int64, error) {
	result, err := stmt.ExecContext(
		ctx,
		data.RecordingID,
		data.SampleStart,
		data.SampleCount,
		data.FreqLower,
		data.FreqUpper,
		data.Label,
		data.Comment,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting annotation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting annotation ID: %w", err)
	}
	return id, nil
}

func (s *SqliteStore) Recording(ctx context.Context, path string) (r *recording.Recording, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRecordingSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var data recordingData
	err = stmt.QueryRowContext(ctx, path).Scan(&data.ID, &data.Path, &data.Format, &data.SampleRate, &data.CenterFrequency)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = fmt.Errorf("%s: %w", path, ErrNotFound)
		return
	case err != nil:
		err = fmt.Errorf("scanning recording: %w", err)
		return
	}

	r = data.recording()
	r.Annotations, err = s.AllAnnotations(ctx, r.ID)
	return
}

func (s *SqliteStore) Recordings(ctx context.Context) (recordings []*recording.Recording, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRecordingsSQL)
	if err != nil {
		err = fmt.Errorf("querying recordings: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data recordingData
		if err = rows.Scan(&data.ID, &data.Path, &data.Format, &data.SampleRate, &data.CenterFrequency); err != nil {
			err = fmt.Errorf("scanning recording: %w", err)
			return
		}
		recordings = append(recordings, data.recording())
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreAnnotation(ctx context.Context, recordingID int64, a *recording.Annotation) (id int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertAnnotationSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if id, err = insertAnnotation(ctx, stmt, toAnnotationData(recordingID, a)); err == nil {
		a.ID = id
	}
	return
}

func (s *SqliteStore) Annotations(ctx context.Context, recordingID int64, opts ...ReaderOption) (*AnnotationReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newAnnotationReader(ctx, db, recordingID, opts...)
}

// AllAnnotations drains an annotation reader into a slice.
func (s *SqliteStore) AllAnnotations(ctx context.Context, recordingID int64, opts ...ReaderOption) (annotations []recording.Annotation, err error) {
	reader, err := s.Annotations(ctx, recordingID, opts...)
	if err != nil {
		return nil, err
	}
	defer closeWithError(reader, &err)

	for reader.Next(ctx) {
		annotations = append(annotations, reader.Current())
	}
	err = reader.Error()
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
