package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/store"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
	"github.com/sonit33/aarya-sub000/internal/metrics"
)

// QuestionStore persists questions idempotently by fingerprint.
type QuestionStore interface {
	CreateIfAbsent(ctx context.Context, q *core.Question, fingerprint string) (store.InsertOutcome, error)
}

// FolderError reports a session folder that is missing or not a directory.
type FolderError struct {
	Path string
	Err  error
}

func (e *FolderError) Error() string { return fmt.Sprintf("session folder %s: %v", e.Path, e.Err) }
func (e *FolderError) Unwrap() error { return e.Err }

// InvalidQuestionError reports a schema-valid record that cannot be persisted.
type InvalidQuestionError struct {
	File  string
	Index int
	Err   error
}

func (e *InvalidQuestionError) Error() string {
	return fmt.Sprintf("%s: question %d: %v", e.File, e.Index, e.Err)
}

func (e *InvalidQuestionError) Unwrap() error { return e.Err }

// QuestionOutcome is the final state of one question record.
type QuestionOutcome struct {
	Index       int                `json:"index"`
	QuestionID  uint32             `json:"question_id,omitempty"`
	Fingerprint string             `json:"fingerprint"`
	State       core.QuestionState `json:"state"`
	Error       string             `json:"error,omitempty"`
}

// FileReport aggregates the outcomes of one generated file.
type FileReport struct {
	Path       string                 `json:"path"`
	Coordinate core.CatalogCoordinate `json:"coordinate"`
	Inserted   int                    `json:"inserted"`
	Duplicates int                    `json:"duplicates"`
	Failed     int                    `json:"failed"`
	Questions  []QuestionOutcome      `json:"questions"`
}

// UploadReport is the result of one upload run, complete up to the point it stopped.
type UploadReport struct {
	SessionFolder string       `json:"session_folder"`
	Schema        string       `json:"schema"`
	Files         []FileReport `json:"files"`
}

// Totals sums the per-file counters.
func (r *UploadReport) Totals() (inserted, duplicates, failed int) {
	if r == nil {
		return 0, 0, 0
	}
	for _, f := range r.Files {
		inserted += f.Inserted
		duplicates += f.Duplicates
		failed += f.Failed
	}
	return inserted, duplicates, failed
}

// Uploader validates a session's generated files and persists their questions.
type Uploader struct {
	Store  QuestionStore
	Logger Logger
	Out    io.Writer
}

// Run uploads every file listed in the session manifest, in manifest order.
// A file that fails schema validation stops the run before any of its
// questions are written; so does any store error. The returned report covers
// everything processed up to that point.
func (u *Uploader) Run(ctx context.Context, schemaFile, sessionFolder string) (*UploadReport, error) {
	logger := loggerOrNop(u.Logger)
	out := u.Out
	if out == nil {
		out = io.Discard
	}
	report := &UploadReport{SessionFolder: sessionFolder, Schema: schemaFile}

	info, err := os.Stat(sessionFolder)
	if err != nil {
		return report, &FolderError{Path: sessionFolder, Err: err}
	}
	if !info.IsDir() {
		return report, &FolderError{Path: sessionFolder, Err: errors.New("not a directory")}
	}
	if u.Store == nil {
		return report, errors.New("uploader requires a question store")
	}

	manifest, err := ReadManifest(sessionFolder)
	if err != nil {
		return report, err
	}
	compiled, err := validator.Compile(schemaFile)
	if err != nil {
		return report, err
	}

	for _, entry := range manifest {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fr, err := u.uploadFile(ctx, compiled, sessionFolder, entry, logger, out)
		if fr != nil {
			report.Files = append(report.Files, *fr)
		}
		metrics.RecordUploadFile(err == nil)
		if err != nil {
			logger.Error("Upload stopped", zap.String("file", entry.FilePath), zap.Error(err))
			return report, err
		}
	}

	inserted, duplicates, failed := report.Totals()
	logger.Info("Upload finished",
		zap.String("session_folder", sessionFolder),
		zap.Int("files", len(report.Files)),
		zap.Int("inserted", inserted),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", failed))
	return report, nil
}

func (u *Uploader) uploadFile(ctx context.Context, compiled *validator.Compiled, sessionFolder string, entry core.ManifestEntry, logger Logger, out io.Writer) (*FileReport, error) {
	path := resolveEntryPath(sessionFolder, entry.FilePath)

	res, err := compiled.ValidateFile(path)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("%s: %w", path, res.Err())
	}

	questions, err := validator.LoadArray[core.Question](path)
	if err != nil {
		return nil, err
	}

	// Everything in the file is checked before the first insert.
	for i := range questions {
		fillCoordinate(&questions[i], entry.Model)
		if err := core.ValidateStruct(questions[i]); err != nil {
			return nil, &InvalidQuestionError{File: path, Index: i, Err: err}
		}
		if unknown := questions[i].UnknownAnswers(); len(unknown) > 0 {
			logger.Warn("Answer references no choice",
				zap.String("file", path), zap.Int("index", i), zap.Any("answer_ids", unknown))
		}
	}

	fr := &FileReport{Path: path, Coordinate: entry.Model}
	for i := range questions {
		if err := ctx.Err(); err != nil {
			return fr, err
		}
		q := &questions[i]
		outcome := QuestionOutcome{Index: i, State: core.StateGenerated}
		outcome.Fingerprint = core.Fingerprint(q.Text)
		advance(&outcome, core.StateValidated)
		q.Prepare()

		res, err := u.Store.CreateIfAbsent(ctx, q, outcome.Fingerprint)
		if err != nil {
			advance(&outcome, core.StateFailedPersist)
			outcome.Error = err.Error()
			fr.Failed++
			fr.Questions = append(fr.Questions, outcome)
			metrics.RecordQuestion(string(outcome.State))
			return fr, fmt.Errorf("persist question %d of %s: %w", i, path, err)
		}

		switch res.Status {
		case store.Inserted:
			advance(&outcome, core.StatePersisted)
			outcome.QuestionID = res.ID
			fr.Inserted++
			_, _ = fmt.Fprintf(out, "inserted question %d\n", res.ID)
		default:
			advance(&outcome, core.StateSkippedDuplicate)
			outcome.QuestionID = res.ID
			fr.Duplicates++
			_, _ = fmt.Fprintln(out, "duplicate")
		}
		metrics.RecordQuestion(string(outcome.State))
		fr.Questions = append(fr.Questions, outcome)
	}

	logger.Debug("File uploaded",
		zap.String("file", path),
		zap.Int("inserted", fr.Inserted),
		zap.Int("duplicates", fr.Duplicates))
	return fr, nil
}

func advance(o *QuestionOutcome, next core.QuestionState) {
	if !o.State.CanTransition(next) {
		panic(fmt.Sprintf("illegal question state transition %s -> %s", o.State, next))
	}
	o.State = next
}

// resolveEntryPath falls back to the session folder when a relative manifest
// path does not exist from the working directory.
func resolveEntryPath(sessionFolder, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	if _, err := os.Stat(filePath); err == nil {
		return filePath
	}
	return filepath.Join(sessionFolder, filepath.Base(filePath))
}

func fillCoordinate(q *core.Question, c core.CatalogCoordinate) {
	if q.CourseID == 0 {
		q.CourseID = c.CourseID
	}
	if q.ChapterID == 0 {
		q.ChapterID = c.ChapterID
	}
	if q.TopicID == nil && c.TopicID != 0 {
		id := c.TopicID
		q.TopicID = &id
	}
}
