package output

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
)

const maxCellWidth = 60

// truncate shortens s to maxCellWidth runes on one line.
func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxCellWidth {
		return s
	}
	return string(runes[:maxCellWidth-3]) + "..."
}

func answerLabel(q *core.Question) string {
	ids := lo.Map(q.AnswerIDs(), func(id core.ChoiceID, _ int) string { return id.String() })
	return strings.Join(ids, ",")
}

func kindLabel(q *core.Question) string {
	if q.Radio || q.IsRadio() {
		return "single"
	}
	return "multi"
}

func topicLabel(q *core.Question) string {
	if q.TopicID == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*q.TopicID), 10)
}

func isAnswer(q *core.Question, id core.ChoiceID) bool {
	return q.HasAnswer(id)
}

func outcomeNote(o engine.QuestionOutcome) string {
	if o.Error != "" {
		return o.Error
	}
	if o.QuestionID != 0 {
		return "question " + strconv.FormatUint(uint64(o.QuestionID), 10)
	}
	return ""
}
