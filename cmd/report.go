package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var repFlags reportFlags

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Analyze a CSV/TSV and write a Markdown report with charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := repFlags.options(cmd)
		if err != nil {
			return err
		}
		opt.Input = args[0]
		res, err := pipeline.Run(opt)
		if err != nil {
			return err
		}
		printWarnings(cmd, res)
		if !repFlags.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s (%d chart(s))\n", res.ReportPath, len(res.Images))
			if res.FindingsPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote findings to %s\n", res.FindingsPath)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repFlags.register(reportCmd)
}
