package torchmem

import "fmt"

// Default timing offsets applied to event timestamps.
const (
	// DefaultEpochOffsetUs shifts relative timestamps so that traces look like
	// wall-clock captures (2024-06-24T20:22:33Z).
	DefaultEpochOffsetUs int64 = 1719260553557947
	// DefaultCompletionDelayUs orders an alloc after its event time and a
	// free_completed after its free_requested.
	DefaultCompletionDelayUs int64 = 10
	// DefaultSegmentFreeDelayUs places segment_free after free_completed.
	DefaultSegmentFreeDelayUs int64 = 15
	// DefaultAllocType is the args.type of spans that describe allocations.
	DefaultAllocType = "alloc"
)

// Only a single device with a single stream is modeled.
const (
	DeviceIndex = 0
	StreamIndex = 0
)

// FinalizeMode decides what Finalize does with allocations that are still live.
type FinalizeMode string

const (
	// FinalizeLenient returns the trace and only warns about live allocations.
	FinalizeLenient FinalizeMode = "lenient"
	// FinalizeStrict fails with *trace.UnfreedError if anything is still live.
	FinalizeStrict FinalizeMode = "strict"
)

// Config parameterizes a Builder.
type Config struct {
	EpochOffsetUs      int64        `yaml:"epoch_offset_us"`
	CompletionDelayUs  int64        `yaml:"completion_delay_us"`
	SegmentFreeDelayUs int64        `yaml:"segment_free_delay_us"`
	AllocType          string       `yaml:"alloc_type"`
	Finalize           FinalizeMode `yaml:"finalize"`
	EmitSegments       bool         `yaml:"emit_segments"`
}

// DefaultConfig returns the configuration matching captures from the
// reference tooling.
func DefaultConfig() Config {
	return Config{
		EpochOffsetUs:      DefaultEpochOffsetUs,
		CompletionDelayUs:  DefaultCompletionDelayUs,
		SegmentFreeDelayUs: DefaultSegmentFreeDelayUs,
		AllocType:          DefaultAllocType,
		Finalize:           FinalizeLenient,
	}
}

// Validate checks the configuration for values the builder cannot honor.
func (c Config) Validate() error {
	if c.CompletionDelayUs <= 0 {
		return fmt.Errorf("completion_delay_us must be positive, got %d", c.CompletionDelayUs)
	}
	if c.SegmentFreeDelayUs < 0 {
		return fmt.Errorf("segment_free_delay_us must not be negative, got %d", c.SegmentFreeDelayUs)
	}
	if c.AllocType == "" {
		return fmt.Errorf("alloc_type must not be empty")
	}
	switch c.Finalize {
	case FinalizeLenient, FinalizeStrict:
	default:
		return fmt.Errorf("unknown finalize mode %q (want %q or %q)", c.Finalize, FinalizeLenient, FinalizeStrict)
	}
	return nil
}
