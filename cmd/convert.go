package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astra-sim/tracetools/trace/debuglog"
	"github.com/astra-sim/tracetools/trace/torchmem"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between trace formats",
	Long:  "Convert simulator debug logs to Chrome trace timelines, and Chrome traces with allocation spans to allocator memory traces.",
}

// --- tracetools convert timeline ---

var (
	timelineInput   string
	timelineOutput  string
	timelineNumNPUs int
	timelineNPUFreq int
)

var convertTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Convert a simulator debug log to a Chrome trace timeline",
	Run: func(cmd *cobra.Command, args []string) {
		opts := debuglog.Options{NumNPUs: timelineNumNPUs, NPUFrequencyMHz: timelineNPUFreq}
		if err := debuglog.ConvertFile(timelineInput, timelineOutput, opts); err != nil {
			logrus.Fatalf("Timeline conversion failed: %v", err)
		}
	},
}

// --- tracetools convert memtrace ---

var (
	memtraceInput        string
	memtraceOutput       string
	memtraceConfigPath   string
	memtraceStrict       bool
	memtraceEmitSegments bool
)

var convertMemtraceCmd = &cobra.Command{
	Use:   "memtrace",
	Short: "Convert a Chrome trace with alloc spans to an allocator memory trace",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := builderConfigFromFlags(cmd, memtraceConfigPath, memtraceStrict, memtraceEmitSegments)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := torchmem.ConvertFile(memtraceInput, memtraceOutput, cfg); err != nil {
			logrus.Fatalf("Memory trace conversion failed: %v", err)
		}
	},
}

// builderConfigFromFlags loads the config file and applies the flags the
// user set explicitly on top of it.
func builderConfigFromFlags(cmd *cobra.Command, path string, strict, emitSegments bool) (torchmem.Config, error) {
	cfg, err := loadBuilderConfig(path)
	if err != nil {
		return cfg, err
	}
	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		cfg.Finalize = torchmem.FinalizeLenient
		if strict {
			cfg.Finalize = torchmem.FinalizeStrict
		}
	}
	if f := cmd.Flags().Lookup("emit-segments"); f != nil && f.Changed {
		cfg.EmitSegments = emitSegments
	}
	return cfg, nil
}

func init() {
	convertTimelineCmd.Flags().StringVar(&timelineInput, "input-filename", "", "Simulator debug log")
	convertTimelineCmd.Flags().StringVar(&timelineOutput, "output-filename", "", "Output trace (.json or .json.sz)")
	convertTimelineCmd.Flags().IntVar(&timelineNumNPUs, "num-npus", 0, "Number of NPUs in the system")
	convertTimelineCmd.Flags().IntVar(&timelineNPUFreq, "npu-frequency", 0, "NPU frequency in MHz")
	_ = convertTimelineCmd.MarkFlagRequired("input-filename")
	_ = convertTimelineCmd.MarkFlagRequired("output-filename")
	_ = convertTimelineCmd.MarkFlagRequired("num-npus")
	_ = convertTimelineCmd.MarkFlagRequired("npu-frequency")

	convertMemtraceCmd.Flags().StringVar(&memtraceInput, "input-filename", "", "Chrome trace with alloc spans")
	convertMemtraceCmd.Flags().StringVar(&memtraceOutput, "output-filename", "", "Output memory trace (.json or .json.sz)")
	convertMemtraceCmd.Flags().StringVar(&memtraceConfigPath, "config", "", "YAML file overriding the allocator trace defaults")
	convertMemtraceCmd.Flags().BoolVar(&memtraceStrict, "strict", false, "Fail if allocations are still live at the end of the trace")
	convertMemtraceCmd.Flags().BoolVar(&memtraceEmitSegments, "emit-segments", false, "Also emit segment_alloc/segment_free actions and live segments")
	_ = convertMemtraceCmd.MarkFlagRequired("input-filename")
	_ = convertMemtraceCmd.MarkFlagRequired("output-filename")

	convertCmd.AddCommand(convertTimelineCmd)
	convertCmd.AddCommand(convertMemtraceCmd)

	rootCmd.AddCommand(convertCmd)
}
