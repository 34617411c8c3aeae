package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astra-sim/tracetools/trace/chrome"
)

var (
	mergeTemplate string
	mergeGlobs    string
	mergeOutput   string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge sharded Chrome traces into one",
	Long: "Concatenate the traceEvents lists of several trace files in input order. Inputs are either " +
		"the siblings of a \"%d\" name template or a comma-separated list of glob patterns.",
	Run: func(cmd *cobra.Command, args []string) {
		inputs, err := mergeInputs(mergeTemplate, mergeGlobs, mergeOutput)
		if err != nil {
			logrus.Fatalf("Failed to find input traces: %v", err)
		}
		if err := chrome.MergeFiles(inputs, mergeOutput); err != nil {
			logrus.Fatalf("Merge failed: %v", err)
		}
	},
}

func mergeInputs(template, globs, output string) ([]string, error) {
	if template != "" {
		return chrome.ExpandTemplate(template, output)
	}
	return chrome.ExpandGlobs(globs)
}

func init() {
	mergeCmd.Flags().StringVar(&mergeTemplate, "input-trace-name", "", "Input trace name template, e.g. trace.%d.json")
	mergeCmd.Flags().StringVar(&mergeGlobs, "input-files", "", "Comma-separated glob patterns of input traces")
	mergeCmd.Flags().StringVar(&mergeOutput, "output-filename", "", "Merged output trace (.json or .json.sz)")
	mergeCmd.MarkFlagsMutuallyExclusive("input-trace-name", "input-files")
	mergeCmd.MarkFlagsOneRequired("input-trace-name", "input-files")
	_ = mergeCmd.MarkFlagRequired("output-filename")

	rootCmd.AddCommand(mergeCmd)
}
