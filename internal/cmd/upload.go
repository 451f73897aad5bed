package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/output"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Validate and upload a batch session into the content store",
	Long: `Read <directory>/manifest.json, validate every generated file against the
schema and insert its questions, skipping any whose fingerprint is already
stored.

A file that fails validation stops the run before any of its questions are
inserted; so does a database error. Re-running the same session inserts only
the questions that are still missing.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().String("schema-file", "", "JSON Schema for generated question files")
	uploadCmd.Flags().String("directory", "", "Session folder containing manifest.json")
	uploadCmd.Flags().String("output", "table", "Report format: table, json, markdown")
	_ = uploadCmd.MarkFlagRequired("schema-file")
	_ = uploadCmd.MarkFlagRequired("directory")
}

func runUpload(cmd *cobra.Command, _ []string) error {
	schemaFile, err := cmd.Flags().GetString("schema-file")
	if err != nil {
		return err
	}
	directory, err := cmd.Flags().GetString("directory")
	if err != nil {
		return err
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

	progress := cmd.OutOrStdout()
	if format == output.FormatJSON {
		progress = cmd.ErrOrStderr()
	}

	uploader := &engine.Uploader{
		Store:  db,
		Logger: engineLogger(),
		Out:    progress,
	}
	report, runErr := uploader.Run(ctx, schemaFile, directory)

	if report != nil && len(report.Files) > 0 {
		rendered, err := output.NewFormatter(format).FormatUpload(report)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	}
	return runErr
}
