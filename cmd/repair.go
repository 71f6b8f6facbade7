package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair [file]",
	Short: "Recover a categorization record from a raw model reply",
	Long:  "Reads a model reply from a file or stdin and runs it through the JSON repair strategies.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		raw, err := readInput("", path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		rec, strategy := repair.Attempt(raw)
		zap.L().Debug("repair finished", zap.String("strategy", strategy))

		if show, _ := cmd.Flags().GetBool("strategy"); show {
			out, err := json.MarshalIndent(struct {
				Strategy string        `json:"strategy"`
				Record   repair.Record `json:"record"`
			}{strategy, rec}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		return writeRecord(cmd.OutOrStdout(), rec, format)
	},
}

func init() {
	repairCmd.Flags().String("format", "json", "output format: text, json or yaml")
	repairCmd.Flags().Bool("strategy", false, "also report which repair strategy succeeded")
	rootCmd.AddCommand(repairCmd)
}
