package output

import (
	"fmt"
	"strings"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

// MarkdownFormatter renders results as markdown, mostly for pasting into reviews.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatUpload(report *engine.UploadReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Upload of %s\n\n", escapeMarkdownCell(report.SessionFolder)))
	sb.WriteString("| File | Inserted | Duplicate | Failed |\n")
	sb.WriteString("|------|----------|-----------|--------|\n")
	for _, file := range report.Files {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n",
			escapeMarkdownCell(file.Path), file.Inserted, file.Duplicates, file.Failed))
	}
	inserted, duplicates, failed := report.Totals()
	sb.WriteString(fmt.Sprintf("\n**Total**: %d inserted, %d duplicate, %d failed\n", inserted, duplicates, failed))
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatCoordinates(coords []core.CatalogCoordinate) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Course | Chapter | Topic |\n")
	sb.WriteString("|--------|---------|-------|\n")
	for _, c := range coords {
		sb.WriteString(fmt.Sprintf("| %d %s | %d %s | %d %s |\n",
			c.CourseID, escapeMarkdownCell(c.CourseName),
			c.ChapterID, escapeMarkdownCell(c.ChapterName),
			c.TopicID, escapeMarkdownCell(c.TopicName)))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatQuestions(questions []core.Question) (string, error) {
	rendered := make([]string, 0, len(questions))
	for i := range questions {
		value, err := f.FormatQuestion(&questions[i])
		if err != nil {
			return "", err
		}
		rendered = append(rendered, value)
	}
	return strings.Join(rendered, "\n"), nil
}

// FormatQuestion renders the question as a task list with the answers checked.
func (f *MarkdownFormatter) FormatQuestion(q *core.Question) (string, error) {
	if q == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### Q%d (difficulty %d)\n\n", q.QuestionID, q.Difficulty))
	sb.WriteString(q.Text + "\n\n")
	for _, c := range q.Choices {
		box := "[ ]"
		if isAnswer(q, c.ID) {
			box = "[x]"
		}
		sb.WriteString(fmt.Sprintf("- %s %s\n", box, c.Text))
	}
	if q.Explanation != "" {
		sb.WriteString("\n**Explanation**: " + q.Explanation + "\n")
	}
	if q.Hint != "" {
		sb.WriteString("\n**Hint**: " + q.Hint + "\n")
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatValidation(source string, result *validator.Result) (string, error) {
	if result.OK() {
		return fmt.Sprintf("`%s`: valid\n", source), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## `%s` failed validation\n\n", source))
	sb.WriteString("| Pointer | Message |\n")
	sb.WriteString("|---------|---------|\n")
	for _, e := range result.Errors {
		sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", e.Pointer, escapeMarkdownCell(e.Message)))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
