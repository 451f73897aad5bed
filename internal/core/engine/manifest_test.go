package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	manifest := core.Manifest{
		{FilePath: filepath.Join(dir, "1.json"), Model: core.CatalogCoordinate{CourseID: 2, ChapterID: 3, TopicID: 4, TopicName: "BFS"}},
		{FilePath: filepath.Join(dir, "2.json"), Model: core.CatalogCoordinate{CourseID: 2, ChapterID: 5, TopicID: 9}},
	}
	require.NoError(t, WriteManifest(dir, manifest))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, manifest, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteManifestEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, nil))

	data, err := os.ReadFile(ManifestPath(dir))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestReadManifestErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := ReadManifest(t.TempDir())
		var readErr *validator.ReadError
		require.ErrorAs(t, err, &readErr)
		require.True(t, readErr.NotFound())
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(ManifestPath(dir), []byte(`[{"file_path":`), 0644))
		_, err := ReadManifest(dir)
		var parseErr *validator.ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("entry without file path", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(ManifestPath(dir), []byte(`[{"model":{"course_id":1,"chapter_id":1,"topic_id":1}}]`), 0644))
		_, err := ReadManifest(dir)
		var parseErr *validator.ParseError
		require.ErrorAs(t, err, &parseErr)
	})
}
