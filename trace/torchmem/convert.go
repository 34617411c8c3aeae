package torchmem

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/astra-sim/tracetools/trace"
	"github.com/astra-sim/tracetools/trace/chrome"
	"github.com/astra-sim/tracetools/trace/traceio"
)

// Consume feeds events to the builder in order. Events whose args.type is not
// the configured allocation type are ignored. Begin spans allocate, end spans
// free; any other phase on an allocation span is a parse error.
func (b *Builder) Consume(events []chrome.Event) error {
	skipped := 0
	for i := range events {
		ev := &events[i]
		if ev.Type() != b.cfg.AllocType {
			skipped++
			continue
		}
		if err := b.consume(ev); err != nil {
			return fmt.Errorf("event %d (%q): %w", i, ev.Name, err)
		}
	}
	logrus.Debugf("consumed %d events, skipped %d non-%s events", len(events)-skipped, skipped, b.cfg.AllocType)
	return nil
}

func (b *Builder) consume(ev *chrome.Event) error {
	ts, err := ev.TimestampUs()
	if err != nil {
		return &trace.ParseError{Reason: err.Error()}
	}
	switch ev.Phase {
	case chrome.PhaseBegin:
		size, err := ev.SizeBytes()
		if err != nil {
			return &trace.ParseError{Reason: err.Error()}
		}
		return b.RecordAllocation(ev.Name, size, ts)
	case chrome.PhaseEnd:
		return b.RecordDeallocation(ev.Name, ts)
	default:
		return &trace.ParseError{Reason: fmt.Sprintf("unsupported phase %q for %s event", ev.Phase, b.cfg.AllocType)}
	}
}

// Convert runs a fresh builder over events and finalizes it.
func Convert(events []chrome.Event, cfg Config) (*Snapshot, error) {
	b := NewBuilder(cfg)
	if err := b.Consume(events); err != nil {
		return nil, err
	}
	return b.Finalize()
}

// LoadBuilder reads the event trace at input and returns a builder that has
// consumed all of its events.
func LoadBuilder(input string, cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid allocator trace config: %w", err)
	}
	f, err := chrome.LoadFile(input)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(cfg)
	if err := b.Consume(f.TraceEvents); err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return b, nil
}

// ConvertFile converts the event trace at input into an allocator trace at
// output. Nothing is written when any event is rejected.
func ConvertFile(input, output string, cfg Config) error {
	if err := traceio.CheckJSONPath(output); err != nil {
		return err
	}
	b, err := LoadBuilder(input, cfg)
	if err != nil {
		return err
	}
	snapshot, err := b.Finalize()
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if err := traceio.WriteJSON(output, snapshot); err != nil {
		return err
	}
	stats := b.Stats()
	logrus.Infof("wrote %d allocator actions (%d allocs, %d frees) to %s",
		len(snapshot.Actions()), stats.Allocations, stats.Frees, output)
	return nil
}
