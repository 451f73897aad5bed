package prompt

import (
	"strconv"
	"strings"

	"github.com/sonit33/aarya-sub000/internal/core"
)

// ScreenshotSentence replaces {{screenshot}} when an image is attached.
const ScreenshotSentence = "Use the attached screenshot as an example to generate variants of the question."

// Recognised placeholders. Anything else in a template is left as written.
const (
	PlaceholderNumQuestions = "{{num_questions}}"
	PlaceholderCourseName   = "{{course_name}}"
	PlaceholderChapterName  = "{{chapter_name}}"
	PlaceholderTopicName    = "{{topic_name}}"
	PlaceholderCourseID     = "{{course_id}}"
	PlaceholderChapterID    = "{{chapter_id}}"
	PlaceholderTopicID      = "{{topic_id}}"
	PlaceholderScreenshot   = "{{screenshot}}"
)

// Compose substitutes args into text. Substitution is a single pass, so values
// that themselves look like placeholders are not expanded again.
func Compose(text string, args core.AutogenArgs, withScreenshot bool) string {
	screenshot := ""
	if withScreenshot {
		screenshot = ScreenshotSentence
	}
	r := strings.NewReplacer(
		PlaceholderNumQuestions, formatUint(args.Count),
		PlaceholderCourseName, args.CourseName,
		PlaceholderChapterName, args.ChapterName,
		PlaceholderTopicName, args.TopicName,
		PlaceholderCourseID, formatUint(args.CourseID),
		PlaceholderChapterID, formatUint(args.ChapterID),
		PlaceholderTopicID, formatUint(args.TopicID),
		PlaceholderScreenshot, screenshot,
	)
	return r.Replace(text)
}

// Compose renders the template body.
func (t *Template) Compose(args core.AutogenArgs, withScreenshot bool) string {
	if t == nil {
		return ""
	}
	return Compose(t.Body, args, withScreenshot)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
