package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{Driver: DriverSQLite, ConnectionString: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedTwoTopics(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.SeedCatalog(context.Background(), core.Catalog{
		Courses:  []core.Course{{CourseID: 2, Name: "CS"}},
		Chapters: []core.Chapter{{ChapterID: 3, CourseID: 2, Name: "Graphs"}, {ChapterID: 5, CourseID: 2, Name: "Trees"}},
		Topics: []core.Topic{
			{TopicID: 9, CourseID: 2, ChapterID: 5, Name: "Heaps"},
			{TopicID: 4, CourseID: 2, ChapterID: 3, Name: "BFS"},
		},
	}))
}

func sampleQuestion(text string, answers ...string) *core.Question {
	topic := uint32(4)
	q := &core.Question{
		CourseID:   2,
		ChapterID:  3,
		TopicID:    &topic,
		Text:       text,
		Choices:    []core.Choice{{ID: core.StringID("1"), Text: "a"}, {ID: core.StringID("2"), Text: "b"}},
		Difficulty: 2,
	}
	for _, a := range answers {
		q.Answers = append(q.Answers, core.Answer{ID: core.StringID(a)})
	}
	return q
}
