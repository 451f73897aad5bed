package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sonit33/aarya-sub000/internal/core"
)

// InsertStatus tells whether CreateIfAbsent wrote a row.
type InsertStatus int

const (
	Inserted InsertStatus = iota + 1
	Skipped
)

func (s InsertStatus) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// InsertOutcome is the result of CreateIfAbsent. ID is the new row on Inserted
// and the existing row on Skipped when it is known.
type InsertOutcome struct {
	Status InsertStatus
	ID     uint32
}

// Created is the result of CreateQuestion.
type Created struct {
	ID           uint32
	RowsAffected int64
}

const questionColumns = `question_id, course_id, chapter_id, topic_id, que_text, que_description,
	choices, answers, ans_explanation, ans_hint, difficulty, diff_reason, fingerprint, radio, added_timestamp`

const insertQuestion = `
	INSERT INTO questions (course_id, chapter_id, topic_id, que_text, que_description,
		choices, answers, ans_explanation, ans_hint, difficulty, diff_reason, fingerprint, radio, added_timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateQuestion writes q with its fingerprint and the current UTC timestamp.
// A fingerprint collision is reported as a QueryError.
func (s *Store) CreateQuestion(ctx context.Context, q *core.Question) (Created, error) {
	if s == nil || s.DB == nil {
		return Created{}, ErrNotInitialized
	}
	args, err := s.insertArgs(q, q.Fingerprint)
	if err != nil {
		return Created{}, err
	}

	var id uint32
	if err := s.DB.QueryRowContext(ctx, s.rebind(insertQuestion+` RETURNING question_id`), args...).Scan(&id); err != nil {
		return Created{}, s.wrap("create question", err)
	}
	q.QuestionID = id
	return Created{ID: id, RowsAffected: 1}, nil
}

// CreateIfAbsent inserts q unless a question with fingerprint already exists.
// A concurrent writer winning the race is reported as Skipped.
func (s *Store) CreateIfAbsent(ctx context.Context, q *core.Question, fingerprint string) (InsertOutcome, error) {
	if s == nil || s.DB == nil {
		return InsertOutcome{}, ErrNotInitialized
	}

	existing, found, err := s.FindDuplicate(ctx, fingerprint)
	if err != nil {
		return InsertOutcome{}, err
	}
	if found {
		return InsertOutcome{Status: Skipped, ID: existing}, nil
	}

	return s.insertIfAbsent(ctx, q, fingerprint)
}

// insertIfAbsent relies on the unique fingerprint index alone; losing the
// race to another writer reports the winner's row as Skipped.
func (s *Store) insertIfAbsent(ctx context.Context, q *core.Question, fingerprint string) (InsertOutcome, error) {
	args, err := s.insertArgs(q, fingerprint)
	if err != nil {
		return InsertOutcome{}, err
	}

	var id uint32
	err = s.DB.QueryRowContext(ctx, s.rebind(insertQuestion+`
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING question_id`), args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		existing, _, err := s.FindDuplicate(ctx, fingerprint)
		if err != nil {
			return InsertOutcome{}, err
		}
		return InsertOutcome{Status: Skipped, ID: existing}, nil
	case err != nil:
		return InsertOutcome{}, s.wrap("create question", err)
	}

	q.QuestionID = id
	return InsertOutcome{Status: Inserted, ID: id}, nil
}

// FindDuplicate returns the id of the question carrying fingerprint.
func (s *Store) FindDuplicate(ctx context.Context, fingerprint string) (uint32, bool, error) {
	if s == nil || s.DB == nil {
		return 0, false, ErrNotInitialized
	}
	var id uint32
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT question_id FROM questions WHERE fingerprint = ?`), fingerprint).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.wrap("find duplicate", err)
	}
	return id, true, nil
}

// FindOne loads a question by id. It returns ErrNotFound when absent.
func (s *Store) FindOne(ctx context.Context, questionID uint32) (*core.Question, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}
	row := s.DB.QueryRowContext(ctx, s.rebind(`SELECT `+questionColumns+` FROM questions WHERE question_id = ?`), questionID)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, s.wrap(fmt.Sprintf("find question %d", questionID), err)
	}
	return q, nil
}

// FindByCourse lists the questions of a course in insertion order.
func (s *Store) FindByCourse(ctx context.Context, courseID uint32) ([]core.Question, error) {
	return s.findQuestions(ctx, core.QuestionFilter{CourseID: courseID}, "question_id", 0)
}

// FindByChapter lists the questions of a chapter in insertion order.
func (s *Store) FindByChapter(ctx context.Context, chapterID uint32) ([]core.Question, error) {
	return s.findQuestions(ctx, core.QuestionFilter{ChapterID: chapterID}, "question_id", 0)
}

// FindTopN returns the first limit questions matching filter.
func (s *Store) FindTopN(ctx context.Context, filter core.QuestionFilter, limit int) ([]core.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	return s.findQuestions(ctx, filter, "question_id", limit)
}

// FindRandomN returns up to limit questions matching filter in random order.
func (s *Store) FindRandomN(ctx context.Context, filter core.QuestionFilter, limit int) ([]core.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	return s.findQuestions(ctx, filter, "RANDOM()", limit)
}

func (s *Store) findQuestions(ctx context.Context, filter core.QuestionFilter, orderBy string, limit int) ([]core.Question, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	var (
		where []string
		args  []any
	)
	if filter.CourseID != 0 {
		where = append(where, "course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.ChapterID != 0 {
		where = append(where, "chapter_id = ?")
		args = append(args, filter.ChapterID)
	}
	if filter.TopicID != 0 {
		where = append(where, "topic_id = ?")
		args = append(args, filter.TopicID)
	}
	if filter.Difficulty != 0 {
		where = append(where, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}

	query := `SELECT ` + questionColumns + ` FROM questions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + orderBy
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrap("find questions", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var out []core.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, s.wrap("scan question", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("find questions", err)
	}
	return out, nil
}

func (s *Store) insertArgs(q *core.Question, fingerprint string) ([]any, error) {
	if q == nil {
		return nil, errors.New("question is required")
	}
	if strings.TrimSpace(fingerprint) == "" {
		return nil, errors.New("fingerprint is required")
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		return nil, &QueryError{Op: "create question", Err: fmt.Errorf("difficulty %d out of range 1..5", q.Difficulty)}
	}

	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return nil, fmt.Errorf("encode choices: %w", err)
	}
	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	q.Fingerprint = fingerprint
	q.Radio = q.IsRadio()
	q.AddedTimestamp = time.Now().UTC()

	var topic any
	if q.TopicID != nil {
		topic = *q.TopicID
	}
	radio := 0
	if q.Radio {
		radio = 1
	}

	return []any{
		q.CourseID, q.ChapterID, topic, q.Text, q.Description,
		string(choices), string(answers), q.Explanation, q.Hint, q.Difficulty, q.DifficultyReason,
		fingerprint, radio, q.AddedTimestamp.UnixMilli(),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*core.Question, error) {
	var (
		q       core.Question
		topic   sql.NullInt64
		choices string
		answers string
		radio   int64
		added   int64
	)
	if err := row.Scan(&q.QuestionID, &q.CourseID, &q.ChapterID, &topic, &q.Text, &q.Description,
		&choices, &answers, &q.Explanation, &q.Hint, &q.Difficulty, &q.DifficultyReason,
		&q.Fingerprint, &radio, &added); err != nil {
		return nil, err
	}
	if topic.Valid {
		v := uint32(topic.Int64)
		q.TopicID = &v
	}
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return nil, fmt.Errorf("decode choices: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &q.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	q.Radio = radio != 0
	q.AddedTimestamp = time.UnixMilli(added).UTC()
	return &q, nil
}
