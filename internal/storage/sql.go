package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS recordings (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    path             TEXT    NOT NULL UNIQUE,
    format           TEXT    NOT NULL,
    sample_rate      REAL,
    center_frequency REAL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS annotations (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    recording_id   INTEGER NOT NULL REFERENCES recordings (id) ON DELETE CASCADE,
    sample_start   INTEGER NOT NULL,
    sample_count   INTEGER NOT NULL,
    freq_lower     REAL,
    freq_upper     REAL,
    label          TEXT,
    comment        TEXT
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_annotations_recording_start
    ON annotations (recording_id, sample_start);`

	upsertRecordingSQL = `
INSERT INTO recordings (
                        path,
                        format,
                        sample_rate,
                        center_frequency)
VALUES (?, ?, ?, ?)
ON CONFLICT (path) DO UPDATE SET
    format           = excluded.format,
    sample_rate      = excluded.sample_rate,
    center_frequency = excluded.center_frequency
RETURNING id`

	selectRecordingSQL = `
SELECT
    id,
    path,
    format,
    sample_rate,
    center_frequency
FROM recordings
WHERE
    path = ?`

	selectRecordingsSQL = `
SELECT
    id,
    path,
    format,
    sample_rate,
    center_frequency
FROM recordings
ORDER BY path`

	deleteAnnotationsSQL = `
DELETE FROM annotations
WHERE
    recording_id = ?`

	insertAnnotationSQL = `
INSERT INTO annotations (
                         recording_id,
                         sample_start,
                         sample_count,
                         freq_lower,
                         freq_upper,
                         label,
                         comment)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	// The overlap test keeps annotations that start before the range ends
	// and end after it starts.
	selectAnnotationsSQL = `
SELECT
    id,
    sample_start,
    sample_count,
    freq_lower,
    freq_upper,
    label,
    comment
FROM annotations
WHERE
    recording_id = ?
    AND sample_start < ?
    AND sample_start + sample_count > ?
ORDER BY sample_start, id`
)
