package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/keyword-cli/internal/config"
)

type setting struct {
	Key    string
	Value  string
	Secret bool
}

// requiredSettings lists what generate needs for the configured provider.
func requiredSettings(c *config.Config) []setting {
	out := []setting{
		{"ads.developer_token", c.Ads.DeveloperToken, true},
		{"ads.client_id", c.Ads.ClientID, true},
		{"ads.client_secret", c.Ads.ClientSecret, true},
		{"ads.refresh_token", c.Ads.RefreshToken, true},
		{"ads.customer_id", c.Ads.CustomerID, false},
	}
	switch c.LLM.Provider {
	case config.ProviderOpenAI:
		out = append(out, setting{"openai.key", c.OpenAI.Key, true})
	default:
		out = append(out, setting{"anthropic.key", c.Anthropic.Key, true})
	}
	return out
}

// maskSecret keeps the first 8 and last 4 characters of long secrets.
func maskSecret(s string) string {
	if len(s) > 12 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	return "***"
}

// checkSetup prints each setting and tries to build the clients. It returns
// the number of problems found.
func checkSetup(w io.Writer, c *config.Config) int {
	problems := 0

	fmt.Fprintln(w, "Configuration:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range requiredSettings(c) {
		val := s.Value
		switch {
		case val == "":
			val = "NOT SET"
			problems++
		case s.Secret:
			val = "set (" + maskSecret(val) + ")"
		default:
			val = "set (" + val + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", s.Key, val)
	}
	fmt.Fprintf(tw, "  llm.provider\t%s\n", c.LLM.Provider)
	fmt.Fprintf(tw, "  geo.cache_backend\t%s\n", c.Geo.CacheBackend)
	fmt.Fprintf(tw, "  store.driver\t%s\n", c.Store.Driver)
	_ = tw.Flush()

	fmt.Fprintln(w, "\nClients:")
	if _, err := initAdsClient(); err != nil {
		fmt.Fprintf(w, "  google ads: FAILED (%v)\n", err)
		problems++
	} else {
		fmt.Fprintln(w, "  google ads: ok")
	}
	if completer, err := initCompleter(); err != nil {
		fmt.Fprintf(w, "  llm: FAILED (%v)\n", err)
		problems++
	} else {
		fmt.Fprintf(w, "  llm: ok (%s)\n", completer.Name())
	}
	return problems
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check credentials and client setup",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if n := checkSetup(cmd.OutOrStdout(), cfg); n > 0 {
			return eris.Errorf("%d setup problem(s) found", n)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nAll checks passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
