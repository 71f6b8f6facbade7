package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/repair"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and categorize keyword ideas for a blog post",
	Long: "Resolves the target countries, pulls keyword ideas seeded by --seed-url, and asks the " +
		"configured language model to categorize them against the blog text.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}
		ctx := cmd.Context()
		flags := cmd.Flags()

		blogText, _ := flags.GetString("blog")
		blogFile, _ := flags.GetString("blog-file")
		blog, err := readInput(blogText, blogFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		req := baseRequest()
		req.Blog = blog
		req.SeedURL, _ = flags.GetString("seed-url")
		if flags.Changed("countries") {
			req.Countries, _ = flags.GetStringSlice("countries")
		}
		if flags.Changed("max-keywords") {
			req.MaxKeywords, _ = flags.GetInt("max-keywords")
		}
		if flags.Changed("top-k") {
			req.TopK, _ = flags.GetInt("top-k")
		}
		if flags.Changed("language") {
			req.Language, _ = flags.GetString("language")
		}
		if flags.Changed("include-adult") {
			req.IncludeAdult, _ = flags.GetBool("include-adult")
		}
		if err := req.Validate(); err != nil {
			return err
		}

		noStore, _ := flags.GetBool("no-store")
		env, err := initKeywordEnv(ctx, !noStore)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			explainAdsError(cmd.ErrOrStderr(), err)
			return eris.Wrap(err, "generate")
		}

		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d keyword ideas across %d geo targets\n",
			len(result.Ideas), len(result.GeoTargets))

		if outDir, _ := flags.GetString("out-dir"); outDir != "" {
			paths, err := export.WriteAll(outDir, result.Ideas, result.Record)
			if err != nil {
				return err
			}
			zap.L().Info("exports written", zap.String("dir", outDir), zap.Strings("files", paths))
		}

		format, _ := flags.GetString("format")
		if err := writeRecord(cmd.OutOrStdout(), result.Record, format); err != nil {
			return err
		}
		if result.Record.IsError() {
			return eris.Errorf("categorization failed: %s", summarize(result.Record))
		}
		return nil
	},
}

func summarize(rec repair.Record) string {
	msg := rec.Error
	if i := strings.Index(msg, ". Response preview"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

func init() {
	f := generateCmd.Flags()
	f.String("blog", "", "blog post text")
	f.String("blog-file", "", "file holding the blog post text (- for stdin)")
	f.String("seed-url", "", "URL that seeds keyword ideas")
	f.StringSlice("countries", nil, "target countries (default from config or built-in list)")
	f.Int("max-keywords", 0, "maximum keyword ideas to collect (default from config)")
	f.Int("top-k", 0, "ideas by volume sent to the model (default from config)")
	f.String("language", "", "keyword language tag or languageConstants id (default from config)")
	f.Bool("include-adult", false, "include adult keyword ideas")
	f.String("out-dir", "", "write CSV, XLSX, text, JSON and YAML exports here")
	f.String("format", "text", "stdout format: text, json or yaml")
	f.Bool("no-store", false, "do not record the run in the store")
	_ = generateCmd.MarkFlagRequired("seed-url")
	rootCmd.AddCommand(generateCmd)
}
