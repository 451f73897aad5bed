package store

import (
	"context"
	"strings"
)

// Statements are written for SQLite and adjusted per dialect by schemaFor.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		course_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL CHECK (name <> ''),
		description TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS chapters (
		chapter_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL REFERENCES courses(course_id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_chapters_course ON chapters(course_id);`,
	`CREATE TABLE IF NOT EXISTS topics (
		topic_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL REFERENCES courses(course_id),
		chapter_id INTEGER NOT NULL REFERENCES chapters(chapter_id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		hash_id TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_topics_scope ON topics(course_id, chapter_id);`,
	`CREATE TABLE IF NOT EXISTS questions (
		question_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		chapter_id INTEGER NOT NULL,
		topic_id INTEGER,
		que_text TEXT NOT NULL,
		que_description TEXT NOT NULL DEFAULT '',
		choices TEXT NOT NULL,
		answers TEXT NOT NULL,
		ans_explanation TEXT NOT NULL DEFAULT '',
		ans_hint TEXT NOT NULL DEFAULT '',
		difficulty INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 5),
		diff_reason TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL UNIQUE,
		radio INTEGER NOT NULL,
		added_timestamp BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_questions_course ON questions(course_id);`,
	`CREATE INDEX IF NOT EXISTS idx_questions_chapter ON questions(chapter_id);`,
}

func schemaFor(driver string) []string {
	if driver != DriverPostgres {
		return schemaStatements
	}
	out := make([]string, 0, len(schemaStatements))
	for _, stmt := range schemaStatements {
		out = append(out, strings.ReplaceAll(stmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"))
	}
	return out
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return s.wrap("store migration failed", err)
		}
	}

	return nil
}
