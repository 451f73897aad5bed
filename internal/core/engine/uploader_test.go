package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/ailink"
	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/store"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

const testSchema = "testdata/question.schema.json"

func openStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, config.StoreConfig{Driver: store.DriverSQLite, ConnectionString: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SeedCatalog(ctx, core.Catalog{
		Courses:  []core.Course{{CourseID: 2, Name: "Go"}},
		Chapters: []core.Chapter{{ChapterID: 3, CourseID: 2, Name: "Basics"}},
		Topics:   []core.Topic{{TopicID: 4, CourseID: 2, ChapterID: 3, Name: "Goroutines"}},
	}))
	return s
}

// newSession copies fixtures into a session folder and writes its manifest.
func newSession(t *testing.T, fixtures ...string) string {
	t.Helper()
	dir := t.TempDir()
	coord := core.CatalogCoordinate{CourseID: 2, ChapterID: 3, TopicID: 4}
	var manifest core.Manifest
	for i, name := range fixtures {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		path := filepath.Join(dir, strings.Repeat("1", i+1)+".json")
		require.NoError(t, os.WriteFile(path, data, 0644))
		manifest = append(manifest, core.ManifestEntry{FilePath: path, Model: coord})
	}
	require.NoError(t, WriteManifest(dir, manifest))
	return dir
}

func TestUploaderInsertsThenSkipsDuplicates(t *testing.T) {
	s := openStore(t)
	session := newSession(t, "two_questions.json")
	var out bytes.Buffer
	up := &Uploader{Store: s, Out: &out}

	report, err := up.Run(context.Background(), testSchema, session)
	require.NoError(t, err)
	inserted, duplicates, failed := report.Totals()
	require.Equal(t, 2, inserted)
	require.Zero(t, duplicates)
	require.Zero(t, failed)
	require.Equal(t, core.StatePersisted, report.Files[0].Questions[0].State)
	assert.Contains(t, out.String(), "inserted question")

	out.Reset()
	report, err = up.Run(context.Background(), testSchema, session)
	require.NoError(t, err)
	inserted, duplicates, _ = report.Totals()
	require.Zero(t, inserted)
	require.Equal(t, 2, duplicates)
	require.Equal(t, core.StateSkippedDuplicate, report.Files[0].Questions[1].State)
	require.Equal(t, "duplicate\nduplicate\n", out.String())

	stored, err := s.FindByCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].Radio)
	assert.False(t, stored[1].Radio)
}

func TestUploaderValidationFailureIsFatal(t *testing.T) {
	s := openStore(t)
	session := newSession(t, "two_questions.json", "bad_difficulty.json")
	up := &Uploader{Store: s}

	report, err := up.Run(context.Background(), testSchema, session)
	var failed *validator.FailedError
	require.ErrorAs(t, err, &failed)
	require.Len(t, report.Files, 1)

	// The first file went in; nothing of the second did.
	stored, err := s.FindByCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestUploaderOnlyBadFileInsertsNothing(t *testing.T) {
	s := openStore(t)
	session := newSession(t, "bad_difficulty.json")

	_, err := (&Uploader{Store: s}).Run(context.Background(), testSchema, session)
	require.Error(t, err)

	stored, err := s.FindByCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestUploaderFolderErrors(t *testing.T) {
	s := openStore(t)
	up := &Uploader{Store: s}

	_, err := up.Run(context.Background(), testSchema, filepath.Join(t.TempDir(), "missing"))
	var folderErr *FolderError
	require.ErrorAs(t, err, &folderErr)
	require.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = up.Run(context.Background(), testSchema, file)
	require.ErrorAs(t, err, &folderErr)

	_, err = up.Run(context.Background(), testSchema, t.TempDir())
	var readErr *validator.ReadError
	require.ErrorAs(t, err, &readErr)
	require.True(t, readErr.NotFound())
}

func TestUploaderResolvesMovedSessionFolder(t *testing.T) {
	s := openStore(t)
	session := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "two_questions.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(session, "42.json"), data, 0644))
	require.NoError(t, WriteManifest(session, core.Manifest{{
		FilePath: filepath.Join(".temp-data", "course-2-1", "42.json"),
		Model:    core.CatalogCoordinate{CourseID: 2, ChapterID: 3, TopicID: 4},
	}}))

	report, err := (&Uploader{Store: s}).Run(context.Background(), testSchema, session)
	require.NoError(t, err)
	inserted, _, _ := report.Totals()
	require.Equal(t, 2, inserted)
}

func TestBatchThenUploadEndToEnd(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("testdata", "two_questions.json"))
	require.NoError(t, err)

	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.Messages) > 0 && len(body.Messages[0].Content) > 0 {
			prompts = append(prompts, body.Messages[0].Content[0].Text)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": string(fixture)},
			}},
		})
	}))
	defer server.Close()

	gw, err := ailink.New(ailink.Config{BaseURL: server.URL, Model: "test-model"}, "test-key")
	require.NoError(t, err)

	s := openStore(t)
	dir := t.TempDir()
	promptPath := writePrompt(t, dir, "{{num_questions}} questions about {{topic_name}}")
	clock := &SessionClock{}

	planner := &Planner{
		Catalog:  s,
		Units:    &Autogenerator{LLM: gw, Clock: clock},
		Clock:    clock,
		TempRoot: filepath.Join(dir, "temp"),
	}
	res, err := planner.Run(context.Background(), BatchRequest{CourseID: uint32p(2), Count: 2, PromptPath: promptPath})
	require.NoError(t, err)
	require.Equal(t, 1, res.Succeeded())
	require.Equal(t, []string{"2 questions about Goroutines"}, prompts)

	report, err := (&Uploader{Store: s}).Run(context.Background(), testSchema, res.SessionFolder)
	require.NoError(t, err)
	inserted, _, _ := report.Totals()
	require.Equal(t, 2, inserted)
}

// flakyStore fails every insert after the first `allow` calls.
type flakyStore struct {
	QuestionStore
	allow int
	calls int
}

func (f *flakyStore) CreateIfAbsent(ctx context.Context, q *core.Question, fingerprint string) (store.InsertOutcome, error) {
	f.calls++
	if f.calls > f.allow {
		return store.InsertOutcome{}, &store.ConnectionError{Driver: "sqlite", Err: errors.New("connection reset")}
	}
	return f.QuestionStore.CreateIfAbsent(ctx, q, fingerprint)
}

func TestUploaderResumesAfterInterruption(t *testing.T) {
	s := openStore(t)
	session := newSession(t, "two_questions.json", "two_questions.json")

	report, err := (&Uploader{Store: &flakyStore{QuestionStore: s, allow: 1}}).Run(context.Background(), testSchema, session)
	var connErr *store.ConnectionError
	require.ErrorAs(t, err, &connErr)
	inserted, _, failed := report.Totals()
	require.Equal(t, 1, inserted)
	require.Equal(t, 1, failed)
	require.Equal(t, core.StateFailedPersist, report.Files[0].Questions[1].State)

	report, err = (&Uploader{Store: s}).Run(context.Background(), testSchema, session)
	require.NoError(t, err)
	inserted, duplicates, _ := report.Totals()
	require.Equal(t, 1, inserted)
	require.Equal(t, 3, duplicates)

	stored, err := s.FindByCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestUploaderTreatsCaseVariantsAsDuplicates(t *testing.T) {
	s := openStore(t)
	dir := t.TempDir()

	data, err := os.ReadFile(filepath.Join("testdata", "two_questions.json"))
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	records[0]["que_text"] = "Abc"
	records[1]["que_text"] = "abc"
	data, err = json.Marshal(records)
	require.NoError(t, err)

	path := filepath.Join(dir, "case.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, WriteManifest(dir, core.Manifest{{FilePath: path, Model: core.CatalogCoordinate{CourseID: 2, ChapterID: 3, TopicID: 4}}}))

	report, err := (&Uploader{Store: s}).Run(context.Background(), testSchema, dir)
	require.NoError(t, err)
	inserted, duplicates, _ := report.Totals()
	require.Equal(t, 1, inserted)
	require.Equal(t, 1, duplicates)

	stored, err := s.FindByCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Abc", stored[0].Text)
}
