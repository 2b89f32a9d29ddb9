package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "iqview.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecording() *recording.Recording {
	return &recording.Recording{
		Path:            "/captures/pager-f152.84e6-s2.4e6-t20240101.cfile",
		Format:          sample.FormatCF32,
		SampleRate:      2.4e6,
		CenterFrequency: 152.84e6,
		Annotations: []recording.Annotation{
			{Start: 5000, Length: 1000, Label: "burst"},
			{Start: 100, Length: 200, FreqLower: 152.8e6, FreqUpper: 152.9e6, Label: "preamble", Comment: "POCSAG"},
		},
	}
}

func TestSaveAndLoadRecording(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := testRecording()
	id, err := s.SaveRecording(ctx, r)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, r.ID)

	got, err := s.Recording(ctx, r.Path)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, sample.FormatCF32, got.Format)
	assert.Equal(t, 2.4e6, got.SampleRate)
	assert.Equal(t, 152.84e6, got.CenterFrequency)

	require.Len(t, got.Annotations, 2)
	assert.Equal(t, "preamble", got.Annotations[0].Label)
	assert.Equal(t, "POCSAG", got.Annotations[0].Comment)
	assert.True(t, got.Annotations[0].HasFrequency())
	assert.False(t, got.Annotations[1].HasFrequency())
	assert.Equal(t, int64(5000), got.Annotations[1].Start)

	// Saving writes the annotation IDs back in place.
	assert.Positive(t, r.Annotations[0].ID)
	assert.Equal(t, got.Annotations[1].ID, r.Annotations[0].ID)
	assert.Equal(t, got.Annotations[0].ID, r.Annotations[1].ID)
}

func TestSaveRecordingReplacesAnnotations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := testRecording()
	first, err := s.SaveRecording(ctx, r)
	require.NoError(t, err)

	r.SampleRate = 1e6
	r.Annotations = r.Annotations[:1]
	second, err := s.SaveRecording(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := s.Recording(ctx, r.Path)
	require.NoError(t, err)
	assert.Equal(t, 1e6, got.SampleRate)
	require.Len(t, got.Annotations, 1)
	assert.Equal(t, "burst", got.Annotations[0].Label)

	all, err := s.Recordings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordingNotFound(t *testing.T) {
	_, err := newTestStore(t).Recording(context.Background(), "/missing.cfile")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnnotationFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := testRecording()
	r.Annotations = nil
	id, err := s.SaveRecording(ctx, r)
	require.NoError(t, err)

	for _, a := range []recording.Annotation{
		{Start: 0, Length: 100, Label: "a"},
		{Start: 100, Length: 100, Label: "b"},
		{Start: 250, Length: 50, Label: "a"},
	} {
		annotationID, err := s.StoreAnnotation(ctx, id, &a)
		require.NoError(t, err)
		assert.Equal(t, annotationID, a.ID)
	}

	labels := func(opts ...ReaderOption) []string {
		got, err := s.AllAnnotations(ctx, id, opts...)
		require.NoError(t, err)
		var out []string
		for _, a := range got {
			out = append(out, a.Label)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "a"}, labels())
	assert.Equal(t, []string{"b"}, labels(WithSampleRange(150, 250)))
	assert.Equal(t, []string{"a", "b"}, labels(WithSampleRange(99, 101)))
	assert.Equal(t, []string{"a", "a"}, labels(WithLabel("a")))
	assert.Empty(t, labels(WithSampleRange(300, 400)))

	_, err = s.Annotations(ctx, id, WithSampleRange(10, 5))
	assert.Error(t, err)
	_, err = s.Annotations(ctx, 0)
	assert.Error(t, err)
}

func TestAnnotationReaderHonoursContext(t *testing.T) {
	s := newTestStore(t)
	r := testRecording()
	id, err := s.SaveRecording(context.Background(), r)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reader, err := s.Annotations(ctx, id)
	require.NoError(t, err)
	defer reader.Close()

	cancel()
	assert.False(t, reader.Next(ctx))
	assert.ErrorIs(t, reader.Error(), context.Canceled)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "iqview.db"))
	_, err := s.SaveRecording(context.Background(), testRecording())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
