package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/ailink"
	"github.com/sonit33/aarya-sub000/internal/ailink/encode"
	"github.com/sonit33/aarya-sub000/internal/ailink/prompt"
	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/metrics"
)

// Completer sends one prompt (plus optional image) and returns the reply text.
type Completer interface {
	Send(ctx context.Context, req ailink.Request) (string, error)
}

// Stage names the step of a unit that failed.
type Stage string

const (
	StagePrompt Stage = "prompt"
	StageLLM    Stage = "llm"
	StageWrite  Stage = "write"
)

// GenerationError reports why a unit produced no file.
type GenerationError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("autogen %s %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("autogen %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Autogenerator runs one generation unit: compose a prompt, optionally attach
// a screenshot, call the LLM, and write the reply verbatim to a session file.
type Autogenerator struct {
	LLM    Completer
	Clock  *SessionClock
	Logger Logger

	// MaxImageDimension > 0 normalises screenshots to JPEG within that bound;
	// 0 sends them as read.
	MaxImageDimension int
}

// Run is Generate with failures logged and reduced to ok=false.
func (a *Autogenerator) Run(ctx context.Context, screenshotPath, promptPath string, args core.AutogenArgs, outputFolder string) (string, bool) {
	path, err := a.Generate(ctx, screenshotPath, promptPath, args, outputFolder)
	if err != nil {
		loggerOrNop(a.Logger).Error("Autogeneration failed",
			zap.String("prompt", promptPath),
			zap.Uint32("course_id", args.CourseID),
			zap.Uint32("chapter_id", args.ChapterID),
			zap.Uint32("topic_id", args.TopicID),
			zap.Error(err))
		return "", false
	}
	return path, true
}

// Generate produces <outputFolder>/<session_id>.json and returns its path.
// The reply is not validated; there are no retries.
func (a *Autogenerator) Generate(ctx context.Context, screenshotPath, promptPath string, args core.AutogenArgs, outputFolder string) (string, error) {
	logger := loggerOrNop(a.Logger)
	clock := a.Clock
	if clock == nil {
		clock = &SessionClock{}
		a.Clock = clock
	}
	sessionID := clock.NextString()

	if _, err := os.Stat(promptPath); err != nil {
		return "", &GenerationError{Stage: StagePrompt, Path: promptPath, Err: err}
	}
	tpl, err := prompt.LoadFile(promptPath)
	if err != nil {
		return "", &GenerationError{Stage: StagePrompt, Path: promptPath, Err: err}
	}
	if err := core.ValidateStruct(args); err != nil {
		return "", &GenerationError{Stage: StagePrompt, Err: err}
	}

	image := a.loadScreenshot(screenshotPath, logger)
	text := tpl.Compose(args, image != "")

	if a.LLM == nil {
		return "", &GenerationError{Stage: StageLLM, Err: errors.New("no LLM gateway configured")}
	}
	start := time.Now()
	reply, err := a.LLM.Send(ctx, ailink.Request{
		Prompt:      text,
		ImageBase64: image,
		Model:       tpl.Config.Model,
		Temperature: tpl.Config.Temperature,
		MaxTokens:   tpl.Config.MaxTokens,
	})
	metrics.RecordLLMRequest(tpl.Config.Model, time.Since(start), err == nil)
	if err != nil {
		metrics.RecordUnit(false)
		if f := ailink.Classify(err); f != nil {
			logger.Debug("LLM request failed", zap.String("failure_code", string(f.Code)), zap.String("details", f.Details))
		}
		return "", &GenerationError{Stage: StageLLM, Err: err}
	}

	// #nosec G301 -- output directories are shared with the operator
	if err := os.MkdirAll(outputFolder, 0755); err != nil {
		metrics.RecordUnit(false)
		return "", &GenerationError{Stage: StageWrite, Path: outputFolder, Err: err}
	}
	outPath := filepath.Join(outputFolder, sessionID+".json")
	if err := writeNew(outPath, []byte(reply)); err != nil {
		metrics.RecordUnit(false)
		return "", &GenerationError{Stage: StageWrite, Path: outPath, Err: err}
	}

	metrics.RecordUnit(true)
	logger.Debug("Autogeneration complete", zap.String("file", outPath), zap.Bool("screenshot", image != ""))
	return outPath, nil
}

// loadScreenshot returns the base64 payload, or "" to proceed text-only.
func (a *Autogenerator) loadScreenshot(path string, logger Logger) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	shot, err := encode.LoadScreenshot(path, a.MaxImageDimension)
	if err != nil {
		logger.Debug("Screenshot unavailable, continuing text-only", zap.String("file", path), zap.Error(err))
		return ""
	}
	if a.MaxImageDimension > 0 && !shot.Normalized {
		logger.Debug("Screenshot not decodable, sending as-is", zap.String("file", path))
	}
	return shot.Base64
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644) // #nosec G302 G304 -- generated output
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
