package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/core/validator"
	"github.com/sonit33/aarya-sub000/internal/observability"
	"github.com/sonit33/aarya-sub000/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a JSON Schema",
	Long: `Validate a JSON data file against a JSON Schema (Draft-7).

Every violation is printed to stderr with the JSON Pointer of the failing node.
Exit status is 0 when the file conforms, 2 when a file is missing and 3 when
the schema does not compile or the data does not conform.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("schema-file", "", "JSON Schema file")
	validateCmd.Flags().String("data-file", "", "JSON data file to validate")
	validateCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	_ = validateCmd.MarkFlagRequired("schema-file")
	_ = validateCmd.MarkFlagRequired("data-file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	schemaFile, err := cmd.Flags().GetString("schema-file")
	if err != nil {
		return err
	}
	dataFile, err := cmd.Flags().GetString("data-file")
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

	result, err := validator.ValidateFile(schemaFile, dataFile)
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatValidation(dataFile, result)
	if err != nil {
		return err
	}

	if !result.OK() {
		if observability.CLILogger != nil {
			observability.CLILogger.Debug("Validation failed",
				zap.String("schema", schemaFile),
				zap.String("file", dataFile),
				zap.Int("errors", len(result.Errors)))
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), rendered)
		return result.Err()
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}
