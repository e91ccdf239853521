package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datastory-cli/internal/config"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataStory configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		path, err := cfgpkg.Path(cfgFile)
		if err == nil {
			fmt.Fprintf(out, "# %s\n", path)
		}
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "significance_threshold: %.3f\n", c.SignificanceThreshold)
		fmt.Fprintf(out, "outlier_rule: %s\n", c.OutlierRule)
		if c.OutlierMultiplier > 0 {
			fmt.Fprintf(out, "outlier_multiplier: %g\n", c.OutlierMultiplier)
		} else {
			fmt.Fprintln(out, "outlier_multiplier: (rule default)")
		}
		fmt.Fprintf(out, "charts: %t\n", c.Charts)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		} else {
			fmt.Fprintln(out, "delimiter: (auto)")
		}
		fmt.Fprintf(out, "stamp_reports: %t\n", c.StampReports)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := cfgpkg.LoadUnchecked(cfgFile)
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// applySetting validates val for key and stores it on c.
func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "output_dir":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("output_dir must not be empty")
		}
		c.OutputDir = val
	case "significance_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for significance_threshold: %w", err)
		}
		if err := analysis.CheckThreshold(f); err != nil {
			return fmt.Errorf("invalid significance_threshold: %w", err)
		}
		c.SignificanceThreshold = f
	case "outlier_rule":
		r, err := analysis.ParseRule(val)
		if err != nil {
			return err
		}
		c.OutlierRule = string(r)
	case "outlier_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for outlier_multiplier: %w", err)
		}
		if err := (analysis.Detector{Multiplier: f}).Validate(); err != nil {
			return fmt.Errorf("invalid outlier_multiplier: %w", err)
		}
		c.OutlierMultiplier = f
	case "charts":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for charts: %w", err)
		}
		c.Charts = b
	case "chart_width", "chart_height":
		i, err := strconv.Atoi(val)
		if err != nil || i < 200 {
			return fmt.Errorf("invalid %s: %v (minimum 200)", key, val)
		}
		if key == "chart_width" {
			c.ChartWidth = i
		} else {
			c.ChartHeight = i
		}
	case "delimiter":
		if _, err := dataset.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "stamp_reports":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for stamp_reports: %w", err)
		}
		c.StampReports = b
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(cfgpkg.Keys, ", "))
	}
	return nil
}
