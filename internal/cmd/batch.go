package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate questions for every topic of a course or chapter",
	Long: `Enumerate the topics of a course (or of one chapter of it), generate one
file per topic, and record them in <session>/manifest.json.

Topics are processed one at a time. A topic whose generation fails is reported
and left out of the manifest; the batch continues. The manifest is rewritten
after every generated file, so an interrupted batch can still be uploaded.

Screenshots are looked up as <screenshot-path>/<course>-<chapter>-<topic>.png.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Uint32("course-id", 0, "Course to generate for")
	batchCmd.Flags().Uint32("chapter-id", 0, "Restrict to one chapter of the course")
	batchCmd.Flags().Uint32("count", 1, "Questions to request per topic")
	batchCmd.Flags().String("prompt-path", "", "Prompt template file")
	batchCmd.Flags().String("screenshot-path", "", "Directory of per-topic screenshots (optional)")
	_ = batchCmd.MarkFlagRequired("count")
	_ = batchCmd.MarkFlagRequired("prompt-path")
}

func batchRequestFromFlags(cmd *cobra.Command) (engine.BatchRequest, error) {
	var req engine.BatchRequest
	flags := cmd.Flags()

	if flags.Changed("course-id") {
		id, err := flags.GetUint32("course-id")
		if err != nil {
			return req, err
		}
		req.CourseID = &id
	}
	if flags.Changed("chapter-id") {
		id, err := flags.GetUint32("chapter-id")
		if err != nil {
			return req, err
		}
		req.ChapterID = &id
	}

	count, err := flags.GetUint32("count")
	if err != nil {
		return req, err
	}
	if count < 1 {
		return req, usageError("--count must be at least 1")
	}
	req.Count = count

	if req.PromptPath, err = flags.GetString("prompt-path"); err != nil {
		return req, err
	}
	if req.ScreenshotFolder, err = flags.GetString("screenshot-path"); err != nil {
		return req, err
	}
	return req, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	req, err := batchRequestFromFlags(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if req.CourseID == nil {
		_, _ = fmt.Fprintln(out, "No course id given; nothing to generate.")
		return usageError("--course-id is required")
	}

	cfg := currentConfig()
	gen, err := newAutogenerator(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck

	planner := &engine.Planner{
		Catalog:  db,
		Units:    gen,
		Clock:    sessionClock,
		Logger:   engineLogger(),
		TempRoot: tempRoot(cfg),
		Out:      out,
	}

	result, err := planner.Run(ctx, req)
	if err != nil && !errors.Is(err, engine.ErrNoScope) && result != nil && result.SessionFolder != "" {
		_, _ = fmt.Fprintf(out, "Batch stopped; partial manifest at %s\n", engine.ManifestPath(result.SessionFolder))
	}
	if err != nil {
		return err
	}

	if result.SessionFolder == "" {
		return nil
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Batch summary",
			zap.String("run_id", result.RunID),
			zap.Int("planned", result.Planned),
			zap.Int("succeeded", result.Succeeded()))
	}
	_, _ = fmt.Fprintf(out, "Generated %d of %d file(s); manifest: %s\n",
		result.Succeeded(), result.Planned, engine.ManifestPath(result.SessionFolder))
	return nil
}
