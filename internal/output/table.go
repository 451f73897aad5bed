package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// FormatUpload renders one row per question plus a totals footer.
func (f *TableFormatter) FormatUpload(report *engine.UploadReport) (string, error) {
	if report == nil {
		return "", nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"File", "#", "State", "Notes"})
	for _, file := range report.Files {
		for _, q := range file.Questions {
			t.AppendRow(table.Row{file.Path, q.Index, q.State.Label(), outcomeNote(q)})
		}
	}

	inserted, duplicates, failed := report.Totals()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d file(s)", len(report.Files)),
		"",
		fmt.Sprintf("%d inserted, %d duplicate", inserted, duplicates),
		fmt.Sprintf("%d failed", failed),
	})
	return t.Render(), nil
}

func (f *TableFormatter) FormatCoordinates(coords []core.CatalogCoordinate) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Course", "Chapter", "Topic", "Names"})
	for _, c := range coords {
		t.AppendRow(table.Row{c.CourseID, c.ChapterID, c.TopicID,
			strings.Join([]string{c.CourseName, c.ChapterName, c.TopicName}, " / ")})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d topic(s)", len(coords))})
	return t.Render(), nil
}

func (f *TableFormatter) FormatQuestions(questions []core.Question) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Chapter", "Topic", "Difficulty", "Kind", "Question"})
	for i := range questions {
		q := &questions[i]
		t.AppendRow(table.Row{q.QuestionID, q.ChapterID, topicLabel(q), q.Difficulty, kindLabel(q), truncate(q.Text)})
	}
	return t.Render(), nil
}

// FormatQuestion renders a two-column detail view with choices marked.
func (f *TableFormatter) FormatQuestion(q *core.Question) (string, error) {
	if q == nil {
		return "", nil
	}

	t := newTable()
	t.AppendRow(table.Row{"ID", q.QuestionID})
	t.AppendRow(table.Row{"Coordinate", fmt.Sprintf("%d / %d / %s", q.CourseID, q.ChapterID, topicLabel(q))})
	t.AppendRow(table.Row{"Question", q.Text})
	if q.Description != "" {
		t.AppendRow(table.Row{"Description", q.Description})
	}
	t.AppendSeparator()
	for _, c := range q.Choices {
		mark := " "
		if isAnswer(q, c.ID) {
			mark = "*"
		}
		t.AppendRow(table.Row{fmt.Sprintf("%s %s", mark, c.ID), c.Text})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Answers", answerLabel(q)})
	t.AppendRow(table.Row{"Explanation", q.Explanation})
	t.AppendRow(table.Row{"Hint", q.Hint})
	t.AppendRow(table.Row{"Difficulty", fmt.Sprintf("%d (%s)", q.Difficulty, q.DifficultyReason)})
	t.AppendRow(table.Row{"Fingerprint", q.Fingerprint})
	if !q.AddedTimestamp.IsZero() {
		t.AppendRow(table.Row{"Added", q.AddedTimestamp.UTC().Format("2006-01-02 15:04:05Z")})
	}
	return t.Render(), nil
}

// FormatValidation prints "<source>: valid" or one row per violation.
func (f *TableFormatter) FormatValidation(source string, result *validator.Result) (string, error) {
	if result.OK() {
		return fmt.Sprintf("%s: valid", source), nil
	}

	t := newTable()
	t.SetTitle(source)
	t.AppendHeader(table.Row{"Pointer", "Message"})
	for _, e := range result.Errors {
		pointer := e.Pointer
		if pointer == "" {
			pointer = "/"
		}
		t.AppendRow(table.Row{pointer, e.Message})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d error(s)", len(result.Errors))})
	return t.Render(), nil
}
