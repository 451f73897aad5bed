package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChoiceIDAcceptsStringsAndNumbers(t *testing.T) {
	var q Question
	err := json.Unmarshal([]byte(`{"que_text":"t","choices":[{"id":1,"text":"a"},{"id":"b","text":"b"}],"answers":[{"id":1}]}`), &q)
	require.NoError(t, err)
	require.Equal(t, NumberID(1), q.Choices[0].ID)
	require.Equal(t, StringID("b"), q.Choices[1].ID)
	require.Equal(t, NumberID(1), q.Answers[0].ID)
	require.Equal(t, "1", q.Answers[0].ID.String())

	out, err := json.Marshal(q.Choices)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"text":"a"},{"id":"b","text":"b"}]`, string(out))
}

func TestChoiceIDKeepsQuotedDigits(t *testing.T) {
	in := `[{"id":"007","text":"a"},{"id":"+5","text":"b"},{"id":"1","text":"c"},{"id":1,"text":"d"}]`
	var choices []Choice
	require.NoError(t, json.Unmarshal([]byte(in), &choices))
	require.Equal(t, StringID("007"), choices[0].ID)
	require.NotEqual(t, choices[2].ID, choices[3].ID)

	q := Question{Choices: choices, Answers: []Answer{{ID: NumberID(1)}, {ID: StringID("1")}}}
	require.True(t, q.IsRadio())
	require.True(t, q.HasAnswer(choices[2].ID))
	require.Empty(t, q.UnknownAnswers())

	out, err := json.Marshal(choices)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestQuestionRadioDerivation(t *testing.T) {
	cases := []struct {
		name    string
		answers []Answer
		radio   bool
	}{
		{name: "single", answers: []Answer{{ID: StringID("a")}}, radio: true},
		{name: "multiple", answers: []Answer{{ID: StringID("a")}, {ID: StringID("b")}}, radio: false},
		{name: "repeated id counts once", answers: []Answer{{ID: StringID("a")}, {ID: StringID("a")}}, radio: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{Text: "T", Answers: tc.answers}
			q.Prepare()
			require.Equal(t, tc.radio, q.Radio)
			require.Equal(t, len(q.AnswerIDs()) == 1, q.Radio)
			require.Equal(t, Fingerprint("t"), q.Fingerprint)
		})
	}
}

func TestQuestionUnknownAnswers(t *testing.T) {
	q := Question{
		Choices: []Choice{{ID: StringID("a")}, {ID: StringID("b")}},
		Answers: []Answer{{ID: StringID("b")}, {ID: StringID("z")}},
	}
	require.Equal(t, []ChoiceID{StringID("z")}, q.UnknownAnswers())
}

func TestQuestionStateTransitions(t *testing.T) {
	require.True(t, StatePlanned.CanTransition(StateGenerated))
	require.True(t, StatePlanned.CanTransition(StateFailedGeneration))
	require.True(t, StateGenerated.CanTransition(StateFailedValidation))
	require.True(t, StateValidated.CanTransition(StateSkippedDuplicate))
	require.False(t, StatePlanned.CanTransition(StatePersisted))
	require.False(t, StatePersisted.CanTransition(StatePlanned))
	require.True(t, StatePersisted.Terminal())
	require.True(t, StateFailedPersist.Terminal())
	require.False(t, StateValidated.Terminal())
	require.Equal(t, "duplicate", StateSkippedDuplicate.Label())
	require.Equal(t, "failed persist", StateFailedPersist.Label())
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(AutogenArgs{Count: 1}))

	err := ValidateStruct(AutogenArgs{Count: 0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Count")

	err = ValidateStruct(Course{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Name")
}
