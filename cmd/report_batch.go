package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
	"github.com/spf13/cobra"
)

var batchFlags reportFlags

var reportBatchCmd = &cobra.Command{
	Use:   "report-batch <files...>",
	Short: "Write one report per CSV/TSV file, each into its own subdirectory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		base, err := batchFlags.options(cmd)
		if err != nil {
			return err
		}
		dirs := batchOutputDirs(base.OutputDir, files)

		out := cmd.OutOrStdout()
		total := len(files)
		var failed []string
		for i, path := range files {
			if !batchFlags.quiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			opt := base
			opt.Input = path
			opt.OutputDir = dirs[i]
			res, err := pipeline.Run(opt)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				failed = append(failed, filepath.Base(path))
				continue
			}
			printWarnings(cmd, res)
			if !batchFlags.quiet {
				fmt.Fprintf(out, "✓ Wrote report to %s\n", res.ReportPath)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d file(s) failed: %s", len(failed), total, strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportBatchCmd)
	batchFlags.register(reportBatchCmd)
}

// expandInputs resolves globs, keeps literal paths that exist, drops
// duplicates and sorts the result.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputDirs assigns each input a subdirectory named after its basename.
// Later inputs sharing a name get __2, __3 and so on.
func batchOutputDirs(root string, files []string) []string {
	dirs := make([]string, len(files))
	used := map[string]int{}
	for i, path := range files {
		name := filepath.Base(path)
		name = utils.Slug(strings.TrimSuffix(name, filepath.Ext(name)), "dataset")
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s__%d", name, n)
		}
		dirs[i] = filepath.Join(root, name)
	}
	return dirs
}
