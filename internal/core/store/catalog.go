package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sonit33/aarya-sub000/internal/core"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCourse inserts a course. A zero CourseID lets the store assign one.
func (s *Store) CreateCourse(ctx context.Context, c core.Course) (uint32, error) {
	if s == nil || s.DB == nil {
		return 0, ErrNotInitialized
	}
	return s.createCourse(ctx, s.DB, c)
}

// CreateChapter inserts a chapter under an existing course.
func (s *Store) CreateChapter(ctx context.Context, ch core.Chapter) (uint32, error) {
	if s == nil || s.DB == nil {
		return 0, ErrNotInitialized
	}
	return s.createChapter(ctx, s.DB, ch)
}

// CreateTopic inserts a topic under an existing (course, chapter) pair.
func (s *Store) CreateTopic(ctx context.Context, t core.Topic) (uint32, error) {
	if s == nil || s.DB == nil {
		return 0, ErrNotInitialized
	}
	return s.createTopic(ctx, s.DB, t)
}

// SeedCatalog inserts a whole catalog in one transaction.
func (s *Store) SeedCatalog(ctx context.Context, cat core.Catalog) (err error) {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}
	if err := core.ValidateStruct(cat); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("begin catalog seed", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range cat.Courses {
		if _, err = s.createCourse(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, ch := range cat.Chapters {
		if _, err = s.createChapter(ctx, tx, ch); err != nil {
			return err
		}
	}
	for _, t := range cat.Topics {
		if _, err = s.createTopic(ctx, tx, t); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return s.wrap("commit catalog seed", err)
	}
	return nil
}

func (s *Store) createCourse(ctx context.Context, db execer, c core.Course) (uint32, error) {
	if err := core.ValidateStruct(c); err != nil {
		return 0, err
	}
	var id uint32
	var err error
	if c.CourseID != 0 {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO courses (course_id, name, description) VALUES (?, ?, ?)
			RETURNING course_id
		`), c.CourseID, c.Name, c.Description).Scan(&id)
	} else {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO courses (name, description) VALUES (?, ?)
			RETURNING course_id
		`), c.Name, c.Description).Scan(&id)
	}
	if err != nil {
		return 0, s.wrap("create course", err)
	}
	return id, nil
}

func (s *Store) createChapter(ctx context.Context, db execer, ch core.Chapter) (uint32, error) {
	if err := core.ValidateStruct(ch); err != nil {
		return 0, err
	}
	var id uint32
	var err error
	if ch.ChapterID != 0 {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO chapters (chapter_id, course_id, name, description) VALUES (?, ?, ?, ?)
			RETURNING chapter_id
		`), ch.ChapterID, ch.CourseID, ch.Name, ch.Description).Scan(&id)
	} else {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO chapters (course_id, name, description) VALUES (?, ?, ?)
			RETURNING chapter_id
		`), ch.CourseID, ch.Name, ch.Description).Scan(&id)
	}
	if err != nil {
		return 0, s.wrap("create chapter", err)
	}
	return id, nil
}

func (s *Store) createTopic(ctx context.Context, db execer, t core.Topic) (uint32, error) {
	if err := core.ValidateStruct(t); err != nil {
		return 0, err
	}

	var owner uint32
	err := db.QueryRowContext(ctx, s.rebind(`SELECT course_id FROM chapters WHERE chapter_id = ?`), t.ChapterID).Scan(&owner)
	if err != nil {
		return 0, s.wrap(fmt.Sprintf("lookup chapter %d", t.ChapterID), err)
	}
	if owner != t.CourseID {
		return 0, &QueryError{Op: "create topic", Err: fmt.Errorf("chapter %d belongs to course %d, not %d", t.ChapterID, owner, t.CourseID)}
	}

	var courseName, chapterName string
	if err := db.QueryRowContext(ctx, s.rebind(`
		SELECT c.name, ch.name FROM chapters ch JOIN courses c ON c.course_id = ch.course_id
		WHERE ch.chapter_id = ?
	`), t.ChapterID).Scan(&courseName, &chapterName); err != nil {
		return 0, s.wrap("lookup topic scope", err)
	}
	hashID := strings.TrimSpace(t.HashID)
	if hashID == "" {
		hashID = core.TopicHashID(courseName, chapterName, t.Name)
	}

	var id uint32
	if t.TopicID != 0 {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO topics (topic_id, course_id, chapter_id, name, description, hash_id) VALUES (?, ?, ?, ?, ?, ?)
			RETURNING topic_id
		`), t.TopicID, t.CourseID, t.ChapterID, t.Name, t.Description, hashID).Scan(&id)
	} else {
		err = db.QueryRowContext(ctx, s.rebind(`
			INSERT INTO topics (course_id, chapter_id, name, description, hash_id) VALUES (?, ?, ?, ?, ?)
			RETURNING topic_id
		`), t.CourseID, t.ChapterID, t.Name, t.Description, hashID).Scan(&id)
	}
	if err != nil {
		return 0, s.wrap("create topic", err)
	}
	return id, nil
}

// GetCourse loads one course.
func (s *Store) GetCourse(ctx context.Context, courseID uint32) (core.Course, error) {
	if s == nil || s.DB == nil {
		return core.Course{}, ErrNotInitialized
	}
	var c core.Course
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT course_id, name, description FROM courses WHERE course_id = ?`), courseID).
		Scan(&c.CourseID, &c.Name, &c.Description)
	if err != nil {
		return core.Course{}, s.wrap(fmt.Sprintf("get course %d", courseID), err)
	}
	return c, nil
}

// ListCoordinates enumerates the topics of a course, or of one chapter when
// chapterID is non-nil, ordered by (chapter_id, topic_id).
func (s *Store) ListCoordinates(ctx context.Context, courseID uint32, chapterID *uint32) ([]core.CatalogCoordinate, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT c.course_id, c.name, ch.chapter_id, ch.name, t.topic_id, t.name
		FROM topics t
		JOIN chapters ch ON ch.chapter_id = t.chapter_id
		JOIN courses c ON c.course_id = t.course_id
		WHERE t.course_id = ?`
	args := []any{courseID}
	if chapterID != nil {
		query += ` AND t.chapter_id = ?`
		args = append(args, *chapterID)
	}
	query += ` ORDER BY t.chapter_id, t.topic_id`

	rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrap("list coordinates", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var out []core.CatalogCoordinate
	for rows.Next() {
		var c core.CatalogCoordinate
		if err := rows.Scan(&c.CourseID, &c.CourseName, &c.ChapterID, &c.ChapterName, &c.TopicID, &c.TopicName); err != nil {
			return nil, s.wrap("scan coordinate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list coordinates", err)
	}
	return out, nil
}
