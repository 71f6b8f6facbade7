package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/keyword-cli/internal/categorize"
	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/keywords"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize an existing keyword ideas file against a blog post",
	Long: "Reads keyword ideas from a CSV or XLSX file written by generate, keeps the top ideas by " +
		"volume, and asks the configured language model to categorize them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("categorize"); err != nil {
			return err
		}
		flags := cmd.Flags()

		blogText, _ := flags.GetString("blog")
		blogFile, _ := flags.GetString("blog-file")
		blog, err := readInput(blogText, blogFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ideasFile, _ := flags.GetString("ideas")
		ideas, err := loadIdeas(ideasFile)
		if err != nil {
			return err
		}

		topK := cfg.Keywords.TopK
		if flags.Changed("top-k") {
			topK, _ = flags.GetInt("top-k")
		}
		csvText, err := export.IdeasCSV(keywords.TopByVolume(ideas, topK))
		if err != nil {
			return err
		}

		completer, err := initCompleter()
		if err != nil {
			return err
		}
		rec := categorize.New(completer).Categorize(cmd.Context(), blog, csvText)

		format, _ := flags.GetString("format")
		if err := writeRecord(cmd.OutOrStdout(), rec, format); err != nil {
			return err
		}
		if rec.IsError() {
			return eris.Errorf("categorization failed: %s", summarize(rec))
		}
		return nil
	},
}

// loadIdeas reads ideas from a CSV or XLSX export.
func loadIdeas(path string) ([]keywords.Idea, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := export.ReadIdeasXLSX(path)
		if err != nil {
			return nil, err
		}
		return export.IdeasFromTable(rows)
	}
	text, err := readInput("", path, nil)
	if err != nil {
		return nil, err
	}
	return export.ParseIdeasCSV(text)
}

func init() {
	f := categorizeCmd.Flags()
	f.String("blog", "", "blog post text")
	f.String("blog-file", "", "file holding the blog post text (- for stdin)")
	f.String("ideas", "", "keyword ideas file (.csv or .xlsx)")
	f.Int("top-k", 0, "ideas by volume sent to the model (default from config)")
	f.String("format", "text", "stdout format: text, json or yaml")
	_ = categorizeCmd.MarkFlagRequired("ideas")
	rootCmd.AddCommand(categorizeCmd)
}
