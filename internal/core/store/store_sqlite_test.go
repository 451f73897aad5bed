package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/core"
)

func TestListCoordinatesOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedTwoTopics(t, s)

	coords, err := s.ListCoordinates(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, coords, 2)
	require.Equal(t, core.CatalogCoordinate{CourseID: 2, CourseName: "CS", ChapterID: 3, ChapterName: "Graphs", TopicID: 4, TopicName: "BFS"}, coords[0])
	require.Equal(t, uint32(9), coords[1].TopicID)

	chapter := uint32(5)
	coords, err = s.ListCoordinates(ctx, 2, &chapter)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	require.Equal(t, "Heaps", coords[0].TopicName)

	coords, err = s.ListCoordinates(ctx, 99, nil)
	require.NoError(t, err)
	require.Empty(t, coords)
}

func TestCatalogForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.CreateChapter(ctx, core.Chapter{CourseID: 1, Name: "orphan"})
	require.Error(t, err)

	id, err := s.CreateCourse(ctx, core.Course{Name: "Math"})
	require.NoError(t, err)
	require.NotZero(t, id)

	chapterID, err := s.CreateChapter(ctx, core.Chapter{CourseID: id, Name: "Algebra"})
	require.NoError(t, err)

	_, err = s.CreateTopic(ctx, core.Topic{CourseID: id + 1, ChapterID: chapterID, Name: "wrong course"})
	require.Error(t, err)

	_, err = s.CreateCourse(ctx, core.Course{})
	require.Error(t, err)
}

func TestSeedCatalogIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.SeedCatalog(ctx, core.Catalog{
		Courses:  []core.Course{{CourseID: 1, Name: "CS"}},
		Chapters: []core.Chapter{{ChapterID: 1, CourseID: 7, Name: "missing course"}},
	})
	require.Error(t, err)

	_, err = s.GetCourse(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTopicHashIDAssigned(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedTwoTopics(t, s)

	var hash string
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT hash_id FROM topics WHERE topic_id = 4`).Scan(&hash))
	require.Equal(t, core.TopicHashID("CS", "Graphs", "BFS"), hash)
}

func TestCreateIfAbsentDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := sampleQuestion("Abc", "1")
	outcome, err := s.CreateIfAbsent(ctx, first, core.Fingerprint(first.Text))
	require.NoError(t, err)
	require.Equal(t, Inserted, outcome.Status)
	require.NotZero(t, outcome.ID)

	second := sampleQuestion("abc", "1", "2")
	outcome2, err := s.CreateIfAbsent(ctx, second, core.Fingerprint(second.Text))
	require.NoError(t, err)
	require.Equal(t, Skipped, outcome2.Status)
	require.Equal(t, outcome.ID, outcome2.ID)

	id, found, err := s.FindDuplicate(ctx, core.Fingerprint("ABC"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, outcome.ID, id)

	_, found, err = s.FindDuplicate(ctx, core.Fingerprint("other"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestCreateQuestionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	q := sampleQuestion("What is BFS?", "1", "2")
	q.Explanation = "because"
	q.Prepare()
	created, err := s.CreateQuestion(ctx, q)
	require.NoError(t, err)
	require.EqualValues(t, 1, created.RowsAffected)

	got, err := s.FindOne(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "What is BFS?", got.Text)
	require.Equal(t, core.Fingerprint("what is bfs?"), got.Fingerprint)
	require.False(t, got.Radio)
	require.Len(t, got.Choices, 2)
	require.Equal(t, core.StringID("2"), got.Answers[1].ID)
	require.NotNil(t, got.TopicID)
	require.Equal(t, uint32(4), *got.TopicID)
	require.False(t, got.AddedTimestamp.IsZero())

	dup := sampleQuestion("what is bfs?", "1")
	dup.Prepare()
	_, err = s.CreateQuestion(ctx, dup)
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)

	_, err = s.FindOne(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRadioStoredFromAnswers(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	single := sampleQuestion("single", "1")
	out, err := s.CreateIfAbsent(ctx, single, core.Fingerprint(single.Text))
	require.NoError(t, err)
	got, err := s.FindOne(ctx, out.ID)
	require.NoError(t, err)
	require.True(t, got.Radio)

	multi := sampleQuestion("multi", "1", "2")
	out, err = s.CreateIfAbsent(ctx, multi, core.Fingerprint(multi.Text))
	require.NoError(t, err)
	got, err = s.FindOne(ctx, out.ID)
	require.NoError(t, err)
	require.False(t, got.Radio)
}

func TestRejectsOutOfRangeDifficulty(t *testing.T) {
	s := openTestStore(t)
	q := sampleQuestion("hard", "1")
	q.Difficulty = 7
	_, err := s.CreateIfAbsent(context.Background(), q, core.Fingerprint(q.Text))
	require.Error(t, err)
}

func TestFindProjections(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, text := range []string{"q1", "q2", "q3"} {
		q := sampleQuestion(text, "1")
		_, err := s.CreateIfAbsent(ctx, q, core.Fingerprint(text))
		require.NoError(t, err)
	}
	other := sampleQuestion("elsewhere", "1")
	other.ChapterID = 8
	other.Difficulty = 5
	_, err := s.CreateIfAbsent(ctx, other, core.Fingerprint(other.Text))
	require.NoError(t, err)

	byCourse, err := s.FindByCourse(ctx, 2)
	require.NoError(t, err)
	require.Len(t, byCourse, 4)
	require.Equal(t, "q1", byCourse[0].Text)

	byChapter, err := s.FindByChapter(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byChapter, 3)

	top, err := s.FindTopN(ctx, core.QuestionFilter{CourseID: 2}, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, []string{"q1", "q2"}, []string{top[0].Text, top[1].Text})

	hard, err := s.FindTopN(ctx, core.QuestionFilter{Difficulty: 5}, 10)
	require.NoError(t, err)
	require.Len(t, hard, 1)

	random, err := s.FindRandomN(ctx, core.QuestionFilter{ChapterID: 3}, 2)
	require.NoError(t, err)
	require.Len(t, random, 2)
	for _, q := range random {
		require.Equal(t, uint32(3), q.ChapterID)
	}

	_, err = s.FindTopN(ctx, core.QuestionFilter{}, 0)
	require.Error(t, err)
}

func TestInsertLosingRaceIsSkipped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Another writer commits between the duplicate check and the insert.
	winner := sampleQuestion("Which traversal uses a queue?", "1")
	winner.Prepare()
	created, err := s.CreateQuestion(ctx, winner)
	require.NoError(t, err)

	loser := sampleQuestion("which traversal uses a queue?", "2")
	outcome, err := s.insertIfAbsent(ctx, loser, core.Fingerprint(loser.Text))
	require.NoError(t, err)
	require.Equal(t, Skipped, outcome.Status)
	require.Equal(t, created.ID, outcome.ID)
	require.Zero(t, loser.QuestionID)

	all, err := s.FindByCourse(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestChoiceIDShapesPersist(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	q := sampleQuestion("Pick the padded id")
	q.Choices = []core.Choice{{ID: core.StringID("007"), Text: "a"}, {ID: core.StringID("+5"), Text: "b"}, {ID: core.NumberID(1), Text: "c"}}
	q.Answers = []core.Answer{{ID: core.StringID("007")}}
	outcome, err := s.CreateIfAbsent(ctx, q, core.Fingerprint(q.Text))
	require.NoError(t, err)
	require.Equal(t, Inserted, outcome.Status)

	got, err := s.FindOne(ctx, outcome.ID)
	require.NoError(t, err)
	require.Equal(t, q.Choices, got.Choices)
	require.Equal(t, q.Answers, got.Answers)
}
