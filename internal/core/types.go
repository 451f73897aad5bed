package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Course is the top level of the catalog.
type Course struct {
	CourseID    uint32 `json:"course_id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Chapter belongs to exactly one course.
type Chapter struct {
	ChapterID   uint32 `json:"chapter_id"`
	CourseID    uint32 `json:"course_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Topic belongs to a (course, chapter) pair.
type Topic struct {
	TopicID     uint32 `json:"topic_id"`
	CourseID    uint32 `json:"course_id" validate:"required"`
	ChapterID   uint32 `json:"chapter_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	HashID      string `json:"hash_id,omitempty"`
}

// Catalog is a seed document for courses, chapters and topics.
type Catalog struct {
	Courses  []Course  `json:"courses" validate:"dive"`
	Chapters []Chapter `json:"chapters" validate:"dive"`
	Topics   []Topic   `json:"topics" validate:"dive"`
}

// CatalogCoordinate is the read-only projection identifying where a question belongs.
type CatalogCoordinate struct {
	CourseID    uint32 `json:"course_id" validate:"required"`
	CourseName  string `json:"course_name"`
	ChapterID   uint32 `json:"chapter_id" validate:"required"`
	ChapterName string `json:"chapter_name"`
	TopicID     uint32 `json:"topic_id" validate:"required"`
	TopicName   string `json:"topic_name"`
}

// AutogenArgs carries the values substituted into a prompt template for one unit.
type AutogenArgs struct {
	CourseName  string
	ChapterName string
	TopicName   string
	CourseID    uint32
	ChapterID   uint32
	TopicID     uint32
	Count       uint32 `validate:"gte=1"`
}

// ArgsForCoordinate builds AutogenArgs from a catalog coordinate.
func ArgsForCoordinate(c CatalogCoordinate, count uint32) AutogenArgs {
	return AutogenArgs{
		CourseName:  c.CourseName,
		ChapterName: c.ChapterName,
		TopicName:   c.TopicName,
		CourseID:    c.CourseID,
		ChapterID:   c.ChapterID,
		TopicID:     c.TopicID,
		Count:       count,
	}
}

// ManifestEntry links a generated file to the coordinate it was generated for.
type ManifestEntry struct {
	FilePath string            `json:"file_path" validate:"required"`
	Model    CatalogCoordinate `json:"model"`
}

// Manifest is the ordered list of entries produced by one batch.
type Manifest []ManifestEntry

// ManifestFileName is the manifest file name inside a session folder.
const ManifestFileName = "manifest.json"

// ChoiceID is a choice id as written in the generated file: a JSON string or
// a JSON number. Numeric records whether it was written unquoted so it is
// encoded back in the same shape.
type ChoiceID struct {
	Value   string
	Numeric bool
}

// StringID returns a quoted choice id.
func StringID(v string) ChoiceID { return ChoiceID{Value: v} }

// NumberID returns an unquoted choice id.
func NumberID(n int64) ChoiceID {
	return ChoiceID{Value: strconv.FormatInt(n, 10), Numeric: true}
}

func (c ChoiceID) String() string { return c.Value }

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChoiceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ChoiceID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("choice id must be a string or number: %w", err)
	}
	*c = ChoiceID{Value: n.String(), Numeric: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c ChoiceID) MarshalJSON() ([]byte, error) {
	if c.Numeric {
		if !json.Valid([]byte(c.Value)) {
			return nil, fmt.Errorf("choice id %q is not a JSON number", c.Value)
		}
		return []byte(c.Value), nil
	}
	return json.Marshal(c.Value)
}

// Choice is one selectable option of a question.
type Choice struct {
	ID   ChoiceID `json:"id"`
	Text string   `json:"text"`
}

// Answer references a correct choice by id.
type Answer struct {
	ID ChoiceID `json:"id"`
}

// Question is a generated question record. JSON tags follow the generated-file format.
type Question struct {
	QuestionID       uint32    `json:"question_id,omitempty"`
	CourseID         uint32    `json:"course_id" validate:"required"`
	ChapterID        uint32    `json:"chapter_id" validate:"required"`
	TopicID          *uint32   `json:"topic_id,omitempty"`
	Text             string    `json:"que_text" validate:"required"`
	Description      string    `json:"que_description"`
	Choices          []Choice  `json:"choices" validate:"required,min=1"`
	Answers          []Answer  `json:"answers" validate:"required,min=1"`
	Explanation      string    `json:"ans_explanation"`
	Hint             string    `json:"ans_hint"`
	Difficulty       int       `json:"difficulty" validate:"gte=1,lte=5"`
	DifficultyReason string    `json:"diff_reason"`
	Fingerprint      string    `json:"fingerprint,omitempty"`
	Radio            bool      `json:"radio,omitempty"`
	AddedTimestamp   time.Time `json:"added_timestamp,omitempty"`
}

// AnswerIDs returns the distinct answer ids in file order. Ids match by
// their text, so 1 and "1" name the same choice.
func (q *Question) AnswerIDs() []ChoiceID {
	return lo.UniqBy(lo.Map(q.Answers, func(a Answer, _ int) ChoiceID { return a.ID }), ChoiceID.String)
}

// HasAnswer reports whether id is one of the correct answers.
func (q *Question) HasAnswer(id ChoiceID) bool {
	return lo.ContainsBy(q.Answers, func(a Answer) bool { return a.ID.Value == id.Value })
}

// IsRadio reports whether the question has exactly one correct answer.
func (q *Question) IsRadio() bool {
	return len(q.AnswerIDs()) == 1
}

// UnknownAnswers returns answer ids that do not reference any choice.
func (q *Question) UnknownAnswers() []ChoiceID {
	ids := lo.Map(q.Choices, func(c Choice, _ int) string { return c.ID.Value })
	return lo.Filter(q.AnswerIDs(), func(id ChoiceID, _ int) bool { return !lo.Contains(ids, id.Value) })
}

// Prepare fills the derived fields (fingerprint, radio) before persistence.
func (q *Question) Prepare() {
	q.Fingerprint = Fingerprint(q.Text)
	q.Radio = q.IsRadio()
}

// QuestionFilter narrows question projections.
type QuestionFilter struct {
	CourseID   uint32
	ChapterID  uint32
	TopicID    uint32
	Difficulty int
}

// IsZero reports whether no filter field is set.
func (f QuestionFilter) IsZero() bool {
	return f.CourseID == 0 && f.ChapterID == 0 && f.TopicID == 0 && f.Difficulty == 0
}

// QuestionState tracks one question through a batch.
type QuestionState string

const (
	StatePlanned          QuestionState = "PLANNED"
	StateGenerated        QuestionState = "GENERATED"
	StateValidated        QuestionState = "VALIDATED"
	StatePersisted        QuestionState = "PERSISTED"
	StateSkippedDuplicate QuestionState = "SKIPPED_DUPLICATE"
	StateFailedGeneration QuestionState = "FAILED_GENERATION"
	StateFailedValidation QuestionState = "FAILED_VALIDATION"
	StateFailedPersist    QuestionState = "FAILED_PERSIST"
)

var stateTransitions = map[QuestionState][]QuestionState{
	StatePlanned:   {StateGenerated, StateFailedGeneration},
	StateGenerated: {StateValidated, StateFailedValidation},
	StateValidated: {StatePersisted, StateSkippedDuplicate, StateFailedPersist},
}

// CanTransition reports whether next is a legal successor of s.
func (s QuestionState) CanTransition(next QuestionState) bool {
	return lo.Contains(stateTransitions[s], next)
}

// Terminal reports whether no transition leaves s.
func (s QuestionState) Terminal() bool {
	return len(stateTransitions[s]) == 0
}

// Label returns a short lowercase label for user-facing output.
func (s QuestionState) Label() string {
	switch s {
	case StatePersisted:
		return "inserted"
	case StateSkippedDuplicate:
		return "duplicate"
	default:
		return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
	}
}
