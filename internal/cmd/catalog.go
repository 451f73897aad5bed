package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
	"github.com/sonit33/aarya-sub000/internal/output"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Seed and inspect the course catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert courses, chapters and topics from a JSON file",
	Long: `Insert a catalog document of the form
  {"courses": [...], "chapters": [...], "topics": [...]}
in a single transaction. Explicit ids are kept; missing ids are assigned.`,
	Args: cobra.NoArgs,
	RunE: runCatalogSeed,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog coordinates a batch would cover",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSeedCmd)
	catalogCmd.AddCommand(catalogListCmd)

	catalogSeedCmd.Flags().String("file", "", "Catalog JSON file")
	_ = catalogSeedCmd.MarkFlagRequired("file")

	catalogListCmd.Flags().Uint32("course-id", 0, "Course to list")
	catalogListCmd.Flags().Uint32("chapter-id", 0, "Restrict to one chapter")
	catalogListCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	_ = catalogListCmd.MarkFlagRequired("course-id")
}

func loadCatalog(path string) (core.Catalog, error) {
	var cat core.Catalog
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return cat, err
	}
	if err := json.Unmarshal(data, &cat); err != nil {
		return cat, &validator.ParseError{Source: path, Err: err}
	}
	return cat, nil
}

func runCatalogSeed(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck

	if err := db.SeedCatalog(ctx, cat); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d course(s), %d chapter(s), %d topic(s)\n",
		len(cat.Courses), len(cat.Chapters), len(cat.Topics))
	return nil
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	courseID, err := cmd.Flags().GetUint32("course-id")
	if err != nil {
		return err
	}
	var chapterID *uint32
	if cmd.Flags().Changed("chapter-id") {
		id, err := cmd.Flags().GetUint32("chapter-id")
		if err != nil {
			return err
		}
		chapterID = &id
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

	coords, err := db.ListCoordinates(ctx, courseID, chapterID)
	if err != nil {
		return err
	}
	rendered, err := output.NewFormatter(format).FormatCoordinates(coords)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}
