package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/store"
	errwrap "github.com/sonit33/aarya-sub000/internal/errors"
	"github.com/sonit33/aarya-sub000/internal/output"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect stored questions",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions of a course or chapter",
	Args:  cobra.NoArgs,
	RunE:  runQuestionsList,
}

var questionsShowCmd = &cobra.Command{
	Use:   "show <question-id>",
	Short: "Show one question",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestionsShow,
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsShowCmd)

	questionsListCmd.Flags().Uint32("course-id", 0, "Course filter")
	questionsListCmd.Flags().Uint32("chapter-id", 0, "Chapter filter")
	questionsListCmd.Flags().Uint32("topic-id", 0, "Topic filter")
	questionsListCmd.Flags().Int("difficulty", 0, "Difficulty filter (1-5)")
	questionsListCmd.Flags().Int("limit", 0, "Maximum number of questions (0 lists all)")
	questionsListCmd.Flags().Bool("random", false, "Pick questions at random (requires --limit)")
	questionsListCmd.Flags().String("output", "table", "Output format: table, json, markdown")

	questionsShowCmd.Flags().String("output", "table", "Output format: table, json, markdown")
}

func questionFilterFromFlags(cmd *cobra.Command) (core.QuestionFilter, error) {
	var (
		filter core.QuestionFilter
		err    error
	)
	flags := cmd.Flags()
	if filter.CourseID, err = flags.GetUint32("course-id"); err != nil {
		return filter, err
	}
	if filter.ChapterID, err = flags.GetUint32("chapter-id"); err != nil {
		return filter, err
	}
	if filter.TopicID, err = flags.GetUint32("topic-id"); err != nil {
		return filter, err
	}
	if filter.Difficulty, err = flags.GetInt("difficulty"); err != nil {
		return filter, err
	}
	if filter.Difficulty < 0 || filter.Difficulty > 5 {
		return filter, usageError("--difficulty must be between 1 and 5")
	}
	if filter.CourseID == 0 && filter.ChapterID == 0 {
		return filter, usageError("--course-id or --chapter-id is required")
	}
	return filter, nil
}

func runQuestionsList(cmd *cobra.Command, _ []string) error {
	filter, err := questionFilterFromFlags(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	random, err := cmd.Flags().GetBool("random")
	if err != nil {
		return err
	}
	if limit < 0 || (random && limit == 0) {
		return usageError("--limit must be positive with --random")
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return usageError(err.Error())
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck

	var questions []core.Question
	onlyCourse := filter == core.QuestionFilter{CourseID: filter.CourseID}
	onlyChapter := filter == core.QuestionFilter{ChapterID: filter.ChapterID}
	switch {
	case random:
		questions, err = db.FindRandomN(ctx, filter, limit)
	case limit > 0:
		questions, err = db.FindTopN(ctx, filter, limit)
	case onlyCourse:
		questions, err = db.FindByCourse(ctx, filter.CourseID)
	case onlyChapter:
		questions, err = db.FindByChapter(ctx, filter.ChapterID)
	default:
		return usageError("--limit is required when combining filters")
	}
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatQuestions(questions)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

func runQuestionsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return usageError(fmt.Sprintf("invalid question id %q", args[0]))
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return usageError(err.Error())
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck

	q, err := db.FindOne(ctx, uint32(id))
	if errors.Is(err, store.ErrNotFound) {
		return errwrap.NewNotFoundError(fmt.Sprintf("question %d not found", id))
	}
	if err != nil {
		return err
	}
	rendered, err := output.NewFormatter(format).FormatQuestion(q)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}
