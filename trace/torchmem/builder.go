package torchmem

import (
	"cmp"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/astra-sim/tracetools/trace"
)

// Allocation is a live span: the address range assigned to a name.
type Allocation struct {
	Name        string
	Addr        int64
	Size        int64
	AllocatedAt int64 // event time in microseconds, without offsets
}

// Stats summarizes the address space of a builder.
type Stats struct {
	Allocations   int
	Frees         int
	Live          int
	LiveBytes     int64
	PeakLiveBytes int64
	AddressEnd    int64
}

// Builder turns allocation and deallocation events into a Snapshot. It is not
// safe for concurrent use; create one per conversion.
type Builder struct {
	cfg      Config
	snapshot *Snapshot
	live     map[string]Allocation
	next     int64
	stats    Stats
}

// NewBuilder returns a builder with an empty address space.
func NewBuilder(cfg Config) *Builder {
	return &Builder{
		cfg:      cfg,
		snapshot: newSnapshot(),
		live:     make(map[string]Allocation),
	}
}

func (b *Builder) emit(kind ActionKind, a Allocation, timeUs int64) {
	act := Action{
		Action: kind,
		Addr:   a.Addr,
		Size:   a.Size,
		Device: DeviceIndex,
		Stream: StreamIndex,
		TimeUs: timeUs,
		Frames: frameFor(a.Name),
	}
	logrus.Tracef("%s addr=%d size=%d time_us=%d name=%q", kind, a.Addr, a.Size, timeUs, a.Name)
	b.snapshot.DeviceTraces[DeviceIndex] = append(b.snapshot.DeviceTraces[DeviceIndex], act)
}

// RecordAllocation assigns name the next size bytes of the address space.
// A non-zero allocation emits an alloc action shortly after timeUs; a zero
// size allocation only becomes live. Allocating a live name fails with a
// *trace.NameError wrapping trace.ErrDuplicateName.
func (b *Builder) RecordAllocation(name string, size, timeUs int64) error {
	if _, ok := b.live[name]; ok {
		return &trace.NameError{Name: name, Err: trace.ErrDuplicateName}
	}
	if size < 0 {
		return &trace.ParseError{Reason: fmt.Sprintf("allocation %q has negative size %d", name, size)}
	}

	a := Allocation{Name: name, Addr: b.next, Size: size, AllocatedAt: timeUs}
	b.next += size
	if size != 0 {
		t := timeUs + b.cfg.EpochOffsetUs
		if b.cfg.EmitSegments {
			b.emit(ActionSegmentAlloc, a, t)
		}
		b.emit(ActionAlloc, a, t+b.cfg.CompletionDelayUs)
	}
	b.live[name] = a

	b.stats.Allocations++
	b.stats.LiveBytes += size
	b.stats.PeakLiveBytes = max(b.stats.PeakLiveBytes, b.stats.LiveBytes)
	return nil
}

// RecordDeallocation releases the allocation of name, emitting free_requested
// at timeUs and free_completed shortly after. The address is not reused.
// Freeing a name that is not live fails with a *trace.NameError wrapping
// trace.ErrUnknownName.
func (b *Builder) RecordDeallocation(name string, timeUs int64) error {
	a, ok := b.live[name]
	if !ok {
		return &trace.NameError{Name: name, Err: trace.ErrUnknownName}
	}

	t := timeUs + b.cfg.EpochOffsetUs
	b.emit(ActionFreeRequested, a, t)
	b.emit(ActionFreeCompleted, a, t+b.cfg.CompletionDelayUs)
	if b.cfg.EmitSegments && a.Size != 0 {
		b.emit(ActionSegmentFree, a, t+b.cfg.SegmentFreeDelayUs)
	}
	delete(b.live, name)

	b.stats.Frees++
	b.stats.LiveBytes -= a.Size
	return nil
}

// Live returns the live allocations ordered by address.
func (b *Builder) Live() []Allocation {
	live := make([]Allocation, 0, len(b.live))
	for _, a := range b.live {
		live = append(live, a)
	}
	// Zero-size allocations can share an address with their successor.
	slices.SortFunc(live, func(x, y Allocation) int {
		return cmp.Or(cmp.Compare(x.Addr, y.Addr), cmp.Compare(x.Size, y.Size), cmp.Compare(x.Name, y.Name))
	})
	return live
}

// IsLive reports whether name has been allocated and not yet freed.
func (b *Builder) IsLive(name string) bool {
	_, ok := b.live[name]
	return ok
}

// NextAddress returns the address the next allocation will receive.
func (b *Builder) NextAddress() int64 { return b.next }

// Stats returns counters describing the events recorded so far.
func (b *Builder) Stats() Stats {
	s := b.stats
	s.Live = len(b.live)
	s.AddressEnd = b.next
	return s
}

// Finalize returns the accumulated snapshot. What happens to allocations
// that are still live depends on the configured FinalizeMode: lenient keeps
// them (with a warning), strict fails with a *trace.UnfreedError.
func (b *Builder) Finalize() (*Snapshot, error) {
	live := b.Live()
	if len(live) > 0 {
		if b.cfg.Finalize == FinalizeStrict {
			names := make([]string, len(live))
			for i, a := range live {
				names[i] = a.Name
			}
			return nil, &trace.UnfreedError{Names: names}
		}
		logrus.Warnf("%d allocations (%d bytes) are never freed", len(live), b.stats.LiveBytes)
	}

	if b.cfg.EmitSegments {
		segments := make([]Segment, 0, len(live))
		for _, a := range live {
			if a.Size != 0 {
				segments = append(segments, segmentFor(a))
			}
		}
		b.snapshot.Segments = segments
	}
	return b.snapshot, nil
}
