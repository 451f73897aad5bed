package output

import (
	"encoding/json"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatUpload(report *engine.UploadReport) (string, error) {
	if report == nil {
		return "", nil
	}
	return f.marshal(report)
}

func (f *JSONFormatter) FormatCoordinates(coords []core.CatalogCoordinate) (string, error) {
	if coords == nil {
		coords = []core.CatalogCoordinate{}
	}
	return f.marshal(coords)
}

func (f *JSONFormatter) FormatQuestions(questions []core.Question) (string, error) {
	if questions == nil {
		questions = []core.Question{}
	}
	return f.marshal(questions)
}

func (f *JSONFormatter) FormatQuestion(q *core.Question) (string, error) {
	if q == nil {
		return "", nil
	}
	return f.marshal(q)
}

// FormatValidation emits {"source", "valid", "errors"}.
func (f *JSONFormatter) FormatValidation(source string, result *validator.Result) (string, error) {
	payload := struct {
		Source string                      `json:"source"`
		Valid  bool                        `json:"valid"`
		Errors []validator.ValidationError `json:"errors"`
	}{Source: source, Valid: result.OK(), Errors: []validator.ValidationError{}}
	if result != nil && result.Errors != nil {
		payload.Errors = result.Errors
	}
	return f.marshal(payload)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
