package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/core"
)

type staticCatalog struct {
	coords []core.CatalogCoordinate
	err    error

	gotCourse  uint32
	gotChapter *uint32
}

func (c *staticCatalog) ListCoordinates(_ context.Context, courseID uint32, chapterID *uint32) ([]core.CatalogCoordinate, error) {
	c.gotCourse, c.gotChapter = courseID, chapterID
	return c.coords, c.err
}

type unitCall struct {
	screenshot string
	args       core.AutogenArgs
	folder     string
}

// scriptedUnits writes a file for every call except the topics listed in fail.
type scriptedUnits struct {
	fail   map[uint32]bool
	calls  []unitCall
	onCall func(i int)
}

func (u *scriptedUnits) Run(_ context.Context, screenshot, _ string, args core.AutogenArgs, folder string) (string, bool) {
	u.calls = append(u.calls, unitCall{screenshot: screenshot, args: args, folder: folder})
	if u.onCall != nil {
		u.onCall(len(u.calls))
	}
	if u.fail[args.TopicID] {
		return "", false
	}
	path := filepath.Join(folder, strings.Repeat("x", len(u.calls))+".json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		return "", false
	}
	return path, true
}

func uint32p(v uint32) *uint32 { return &v }

func threeTopics() []core.CatalogCoordinate {
	return []core.CatalogCoordinate{
		{CourseID: 2, ChapterID: 3, TopicID: 4, TopicName: "BFS"},
		{CourseID: 2, ChapterID: 3, TopicID: 6, TopicName: "DFS"},
		{CourseID: 2, ChapterID: 5, TopicID: 9, TopicName: "Heaps"},
	}
}

func TestPlannerWritesManifestInCatalogOrder(t *testing.T) {
	root := t.TempDir()
	units := &scriptedUnits{fail: map[uint32]bool{6: true}}
	var out bytes.Buffer
	p := &Planner{
		Catalog:  &staticCatalog{coords: threeTopics()},
		Units:    units,
		Clock:    frozenClock(),
		TempRoot: root,
		Out:      &out,
	}

	res, err := p.Run(context.Background(), BatchRequest{CourseID: uint32p(2), Count: 5, PromptPath: "p.txt", ScreenshotFolder: "/shots"})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, "course-2-1700000000000000000"), res.SessionFolder)
	require.Equal(t, 3, res.Planned)
	require.Equal(t, 2, res.Succeeded())
	require.Len(t, res.Failed, 1)
	require.EqualValues(t, 6, res.Failed[0].TopicID)

	require.Len(t, units.calls, 3)
	assert.Equal(t, filepath.Join("/shots", "2-3-4.png"), units.calls[0].screenshot)
	assert.Equal(t, filepath.Join("/shots", "2-5-9.png"), units.calls[2].screenshot)
	assert.EqualValues(t, 5, units.calls[0].args.Count)
	assert.Equal(t, "BFS", units.calls[0].args.TopicName)

	manifest, err := ReadManifest(res.SessionFolder)
	require.NoError(t, err)
	require.Len(t, manifest, 2)
	assert.EqualValues(t, 4, manifest[0].Model.TopicID)
	assert.EqualValues(t, 9, manifest[1].Model.TopicID)

	text := out.String()
	assert.Contains(t, text, "Finished 1 of 3")
	assert.Contains(t, text, "Finished 3 of 3")
	assert.Contains(t, text, "topic 6")
}

func TestPlannerChapterScope(t *testing.T) {
	root := t.TempDir()
	catalog := &staticCatalog{coords: threeTopics()[:2]}
	p := &Planner{Catalog: catalog, Units: &scriptedUnits{}, Clock: frozenClock(), TempRoot: root}

	res, err := p.Run(context.Background(), BatchRequest{CourseID: uint32p(2), ChapterID: uint32p(3), Count: 1})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "course-2-chapter-3-1700000000000000000"), res.SessionFolder)
	require.NotNil(t, catalog.gotChapter)
	require.EqualValues(t, 3, *catalog.gotChapter)
}

func TestPlannerNoCourseIsNoop(t *testing.T) {
	root := t.TempDir()
	units := &scriptedUnits{}
	var out bytes.Buffer
	p := &Planner{Catalog: &staticCatalog{coords: threeTopics()}, Units: units, TempRoot: root, Out: &out}

	res, err := p.Run(context.Background(), BatchRequest{Count: 1})
	require.ErrorIs(t, err, ErrNoScope)
	require.Nil(t, res)
	require.Empty(t, units.calls)
	require.NotEmpty(t, out.String())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPlannerNoTopicsCreatesNothing(t *testing.T) {
	root := t.TempDir()
	p := &Planner{Catalog: &staticCatalog{}, Units: &scriptedUnits{}, TempRoot: root}

	res, err := p.Run(context.Background(), BatchRequest{CourseID: uint32p(7), Count: 1})
	require.NoError(t, err)
	require.Empty(t, res.SessionFolder)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPlannerCatalogError(t *testing.T) {
	p := &Planner{Catalog: &staticCatalog{err: errors.New("db down")}, Units: &scriptedUnits{}, TempRoot: t.TempDir()}
	_, err := p.Run(context.Background(), BatchRequest{CourseID: uint32p(2), Count: 1})
	require.ErrorContains(t, err, "db down")
}

func TestPlannerCancellationKeepsFinishedUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	units := &scriptedUnits{onCall: func(i int) {
		if i == 1 {
			cancel()
		}
	}}
	p := &Planner{Catalog: &staticCatalog{coords: threeTopics()}, Units: units, Clock: frozenClock(), TempRoot: t.TempDir()}

	res, err := p.Run(ctx, BatchRequest{CourseID: uint32p(2), Count: 1})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, units.calls, 1)

	manifest, err := ReadManifest(res.SessionFolder)
	require.NoError(t, err)
	require.Len(t, manifest, 1)
	require.EqualValues(t, 4, manifest[0].Model.TopicID)
}
