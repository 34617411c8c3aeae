package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astra-sim/tracetools/trace/torchmem"
)

var (
	summaryInput      string
	summaryConfigPath string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Report allocation statistics and allocations never freed",
	Long:  "Replay the alloc spans of a Chrome trace and print address-space statistics plus a table of the allocations still live at the end.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadBuilderConfig(summaryConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		b, err := torchmem.LoadBuilder(summaryInput, cfg)
		if err != nil {
			logrus.Fatalf("Summary failed: %v", err)
		}
		torchmem.WriteSummary(os.Stdout, b)
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryInput, "input-filename", "", "Chrome trace with alloc spans")
	summaryCmd.Flags().StringVar(&summaryConfigPath, "config", "", "YAML file overriding the allocator trace defaults")
	_ = summaryCmd.MarkFlagRequired("input-filename")

	rootCmd.AddCommand(summaryCmd)
}
