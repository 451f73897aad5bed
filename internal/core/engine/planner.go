package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/metrics"
)

// DefaultTempRoot holds session folders when no root is configured.
const DefaultTempRoot = "./.temp-data"

// ErrNoScope is returned when a batch has no course to enumerate.
var ErrNoScope = errors.New("no course id given; nothing to generate")

// CatalogReader enumerates the coordinates a batch covers.
type CatalogReader interface {
	ListCoordinates(ctx context.Context, courseID uint32, chapterID *uint32) ([]core.CatalogCoordinate, error)
}

// UnitRunner generates one file per coordinate.
type UnitRunner interface {
	Run(ctx context.Context, screenshotPath, promptPath string, args core.AutogenArgs, outputFolder string) (string, bool)
}

// BatchRequest selects the coordinates of one batch.
type BatchRequest struct {
	CourseID         *uint32
	ChapterID        *uint32
	Count            uint32
	PromptPath       string
	ScreenshotFolder string
}

// BatchResult summarises a finished (or cancelled) batch.
type BatchResult struct {
	RunID         string
	SessionFolder string
	Planned       int
	Manifest      core.Manifest
	Failed        []core.CatalogCoordinate
}

// Succeeded is the number of manifest entries written.
func (r *BatchResult) Succeeded() int {
	if r == nil {
		return 0
	}
	return len(r.Manifest)
}

// Planner drives the autogenerator over every topic of a course or chapter.
type Planner struct {
	Catalog  CatalogReader
	Units    UnitRunner
	Clock    *SessionClock
	Logger   Logger
	TempRoot string
	Out      io.Writer
}

// Run executes one batch sequentially. Unit failures are reported and
// skipped; only session folder creation, catalog errors, manifest writes and
// cancellation stop the batch. A request without a course returns ErrNoScope.
func (p *Planner) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	logger := loggerOrNop(p.Logger)
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	if req.CourseID == nil {
		_, _ = fmt.Fprintln(out, "No course id given; nothing to generate.")
		return nil, ErrNoScope
	}
	if req.ChapterID != nil && *req.ChapterID == 0 {
		req.ChapterID = nil
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if p.Catalog == nil || p.Units == nil {
		return nil, errors.New("planner requires a catalog and a unit runner")
	}
	if p.Clock == nil {
		p.Clock = &SessionClock{}
	}

	runID := uuid.NewString()

	coords, err := p.Catalog.ListCoordinates(ctx, *req.CourseID, req.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("list catalog coordinates: %w", err)
	}
	if len(coords) == 0 {
		_, _ = fmt.Fprintln(out, "No topics found for the requested course/chapter.")
		return &BatchResult{RunID: runID}, nil
	}

	folder := p.sessionFolder(req)
	// #nosec G301 -- session folders are operator-owned
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("create session folder %s: %w", folder, err)
	}
	logger.Info("Batch started",
		zap.String("run_id", runID),
		zap.String("session_folder", folder),
		zap.Int("coordinates", len(coords)),
		zap.Uint32("count", req.Count))

	result := &BatchResult{
		RunID:         runID,
		SessionFolder: folder,
		Planned:       len(coords),
		Manifest:      core.Manifest{},
	}

	for i, coord := range coords {
		if err := ctx.Err(); err != nil {
			if werr := WriteManifest(folder, result.Manifest); werr != nil {
				logger.Error("Failed to write manifest after cancellation", zap.Error(werr))
			}
			return result, err
		}

		shot := ""
		if req.ScreenshotFolder != "" {
			shot = ScreenshotPath(req.ScreenshotFolder, coord)
		}
		args := core.ArgsForCoordinate(coord, req.Count)

		path, ok := p.Units.Run(ctx, shot, req.PromptPath, args, folder)
		if ok {
			result.Manifest = append(result.Manifest, core.ManifestEntry{FilePath: path, Model: coord})
			if err := WriteManifest(folder, result.Manifest); err != nil {
				return result, err
			}
			_, _ = fmt.Fprintln(out, path)
		} else {
			result.Failed = append(result.Failed, coord)
			metrics.RecordQuestion(string(core.StateFailedGeneration))
			_, _ = fmt.Fprintf(out, "Failed to generate questions for course %d chapter %d topic %d\n",
				coord.CourseID, coord.ChapterID, coord.TopicID)
		}
		_, _ = fmt.Fprintf(out, "Finished %d of %d\n", i+1, len(coords))
	}

	if err := WriteManifest(folder, result.Manifest); err != nil {
		return result, err
	}
	logger.Info("Batch finished",
		zap.String("run_id", runID),
		zap.String("manifest", ManifestPath(folder)),
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (p *Planner) sessionFolder(req BatchRequest) string {
	root := p.TempRoot
	if root == "" {
		root = DefaultTempRoot
	}
	name := "course-" + strconv.FormatUint(uint64(*req.CourseID), 10)
	if req.ChapterID != nil {
		name += "-chapter-" + strconv.FormatUint(uint64(*req.ChapterID), 10)
	}
	return filepath.Join(root, name+"-"+p.Clock.NextString())
}

// ScreenshotPath is <folder>/<course_id>-<chapter_id>-<topic_id>.png.
func ScreenshotPath(folder string, c core.CatalogCoordinate) string {
	return filepath.Join(folder, fmt.Sprintf("%d-%d-%d.png", c.CourseID, c.ChapterID, c.TopicID))
}
