// Package torchmem builds allocator traces in the PyTorch memory snapshot
// layout from begin/end allocation spans.
//
// Each live span gets an address from a single ever-growing address space:
// the counter advances by the span size and addresses are never reused.
package torchmem

import "strconv"

// ActionKind is the allocator-visible event recorded in a device trace.
type ActionKind string

const (
	ActionSegmentAlloc  ActionKind = "segment_alloc"
	ActionAlloc         ActionKind = "alloc"
	ActionFreeRequested ActionKind = "free_requested"
	ActionFreeCompleted ActionKind = "free_completed"
	ActionSegmentFree   ActionKind = "segment_free"
)

// UnknownFilename and UnknownLine fill the source location of every frame.
const (
	UnknownFilename = "??"
	UnknownLine     = 0
)

// Frame attributes an action to the allocation that caused it.
type Frame struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Line     int    `json:"line"`
}

func frameFor(name string) []Frame {
	return []Frame{{Name: name, Filename: UnknownFilename, Line: UnknownLine}}
}

// Action is one entry of a device trace.
type Action struct {
	Action ActionKind `json:"action"`
	Addr   int64      `json:"addr"`
	Size   int64      `json:"size"`
	Device int        `json:"device"`
	Stream int        `json:"stream"`
	TimeUs int64      `json:"time_us"`
	Frames []Frame    `json:"frames"`
}

// Block is an allocated range inside a segment.
type Block struct {
	Addr          int64   `json:"address"`
	Size          int64   `json:"size"`
	RequestedSize int64   `json:"requested_size"`
	State         string  `json:"state"`
	Frames        []Frame `json:"frames"`
}

// Segment describes memory reserved from the device at snapshot time.
type Segment struct {
	Device        int     `json:"device"`
	Addr          int64   `json:"address"`
	TotalSize     int64   `json:"total_size"`
	AllocatedSize int64   `json:"allocated_size"`
	ActiveSize    int64   `json:"active_size"`
	RequestedSize int64   `json:"requested_size"`
	Stream        int     `json:"stream"`
	SegmentType   string  `json:"segment_type"`
	SegmentPoolID [2]int  `json:"segment_pool_id"`
	IsExpandable  bool    `json:"is_expandable"`
	Frames        []Frame `json:"frames"`
	Blocks        []Block `json:"blocks"`
}

func segmentFor(a Allocation) Segment {
	return Segment{
		Device:        DeviceIndex,
		Addr:          a.Addr,
		TotalSize:     a.Size,
		AllocatedSize: a.Size,
		ActiveSize:    a.Size,
		RequestedSize: a.Size,
		Stream:        StreamIndex,
		SegmentType:   "large",
		Frames:        []Frame{},
		Blocks: []Block{{
			Addr:          a.Addr,
			Size:          a.Size,
			RequestedSize: a.Size,
			State:         "active_allocated",
			Frames:        frameFor(a.Name),
		}},
	}
}

// AllocatorSettings is the static allocator configuration block.
type AllocatorSettings struct {
	AllocConf                  string         `json:"PYTORCH_CUDA_ALLOC_CONF"`
	MaxSplitSize               int64          `json:"max_split_size"`
	GarbageCollectionThreshold float64        `json:"garbage_collection_threshold"`
	ExpandableSegments         bool           `json:"expandable_segments"`
	PinnedNumRegisterThreads   int            `json:"pinned_num_register_threads"`
	ReleaseLockOnCudaMalloc    bool           `json:"release_lock_on_cudamalloc"`
	PinnedUseCudaHostRegister  bool           `json:"pinned_use_cuda_host_register"`
	RoundupPower2Divisions     map[string]int `json:"roundup_power2_divisions"`
}

// DefaultAllocatorSettings returns the settings of an untuned allocator.
func DefaultAllocatorSettings() AllocatorSettings {
	divisions := make(map[string]int)
	for size := 1; size <= 32768; size *= 2 {
		divisions[strconv.Itoa(size)] = 0
	}
	return AllocatorSettings{
		MaxSplitSize:             -1,
		PinnedNumRegisterThreads: 1,
		RoundupPower2Divisions:   divisions,
	}
}

// Snapshot is the output container: segments, one action list per device and
// the allocator settings.
type Snapshot struct {
	Segments          []Segment         `json:"segments"`
	DeviceTraces      [][]Action        `json:"device_traces"`
	AllocatorSettings AllocatorSettings `json:"allocator_settings"`
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Segments:          []Segment{},
		DeviceTraces:      [][]Action{{}},
		AllocatorSettings: DefaultAllocatorSettings(),
	}
}

// Actions returns the action list of the modeled device.
func (s *Snapshot) Actions() []Action {
	return s.DeviceTraces[DeviceIndex]
}
