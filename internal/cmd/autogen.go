package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonit33/aarya-sub000/internal/core"
)

var autogenCmd = &cobra.Command{
	Use:   "autogen",
	Short: "Generate one file of questions from a prompt template",
	Long: `Compose the prompt template with the given catalog values, optionally attach
a screenshot, and write the LLM reply verbatim to <output-path>/<session_id>.json.

Placeholders: {{num_questions}} {{course_name}} {{chapter_name}} {{topic_name}}
{{course_id}} {{chapter_id}} {{topic_id}} {{screenshot}}.`,
	Args: cobra.NoArgs,
	RunE: runAutogen,
}

func init() {
	rootCmd.AddCommand(autogenCmd)

	autogenCmd.Flags().String("prompt-path", "", "Prompt template file")
	autogenCmd.Flags().String("screenshot-path", "", "Screenshot to attach (optional)")
	autogenCmd.Flags().String("output-path", "", "Output directory (defaults to pipeline.temp_root)")
	autogenCmd.Flags().Uint32("count", 1, "Number of questions to request")
	autogenCmd.Flags().String("course-name", "", "Course name placeholder value")
	autogenCmd.Flags().String("chapter-name", "", "Chapter name placeholder value")
	autogenCmd.Flags().String("topic-name", "", "Topic name placeholder value")
	autogenCmd.Flags().Uint32("course-id", 0, "Course id placeholder value")
	autogenCmd.Flags().Uint32("chapter-id", 0, "Chapter id placeholder value")
	autogenCmd.Flags().Uint32("topic-id", 0, "Topic id placeholder value")
	_ = autogenCmd.MarkFlagRequired("prompt-path")
}

func autogenArgsFromFlags(cmd *cobra.Command) (core.AutogenArgs, error) {
	var (
		args core.AutogenArgs
		err  error
	)
	flags := cmd.Flags()
	if args.Count, err = flags.GetUint32("count"); err != nil {
		return args, err
	}
	if args.CourseName, err = flags.GetString("course-name"); err != nil {
		return args, err
	}
	if args.ChapterName, err = flags.GetString("chapter-name"); err != nil {
		return args, err
	}
	if args.TopicName, err = flags.GetString("topic-name"); err != nil {
		return args, err
	}
	if args.CourseID, err = flags.GetUint32("course-id"); err != nil {
		return args, err
	}
	if args.ChapterID, err = flags.GetUint32("chapter-id"); err != nil {
		return args, err
	}
	if args.TopicID, err = flags.GetUint32("topic-id"); err != nil {
		return args, err
	}
	if args.Count < 1 {
		return args, usageError("--count must be at least 1")
	}
	return args, nil
}

func runAutogen(cmd *cobra.Command, _ []string) error {
	promptPath, err := cmd.Flags().GetString("prompt-path")
	if err != nil {
		return err
	}
	screenshotPath, err := cmd.Flags().GetString("screenshot-path")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output-path")
	if err != nil {
		return err
	}
	args, err := autogenArgsFromFlags(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(promptPath); err != nil {
		return err
	}

	cfg := currentConfig()
	if outputPath == "" {
		outputPath = tempRoot(cfg)
	}

	gen, err := newAutogenerator(cfg)
	if err != nil {
		return err
	}

	path, err := gen.Generate(cmd.Context(), screenshotPath, promptPath, args, outputPath)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
