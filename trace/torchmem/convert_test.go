package torchmem

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astra-sim/tracetools/internal/testutil"
	"github.com/astra-sim/tracetools/trace"
	"github.com/astra-sim/tracetools/trace/chrome"
)

type goldenDataset struct {
	Tests []goldenCase `json:"tests"`
}

type goldenCase struct {
	Name        string         `json:"name"`
	Events      []chrome.Event `json:"events"`
	Actions     []Action       `json:"actions"`
	NextAddress int64          `json:"next_address"`
	Live        []string       `json:"live"`
}

func TestConsume_GoldenDataset(t *testing.T) {
	var dataset goldenDataset
	testutil.LoadGolden(t, "memtrace_golden.json", &dataset)
	require.NotEmpty(t, dataset.Tests)

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			b := NewBuilder(DefaultConfig())
			require.NoError(t, b.Consume(tc.Events))

			snap, err := b.Finalize()
			require.NoError(t, err)

			assert.Equal(t, tc.Actions, snap.Actions())
			assert.Equal(t, tc.NextAddress, b.NextAddress())
			live := []string{}
			for _, a := range b.Live() {
				live = append(live, a.Name)
			}
			assert.Equal(t, tc.Live, live)
		})
	}
}

func allocEvent(name string, ph chrome.Phase, ts float64, size string) chrome.Event {
	return chrome.Event{Name: name, Phase: ph, Timestamp: ts, Args: &chrome.Args{Type: DefaultAllocType, Size: json.Number(size)}}
}

func TestConsume_ErrorsCarryEventIndex(t *testing.T) {
	events := []chrome.Event{
		allocEvent("a", chrome.PhaseBegin, 0, "1"),
		allocEvent("a", chrome.PhaseBegin, 1, "1"),
	}

	err := NewBuilder(DefaultConfig()).Consume(events)

	require.Error(t, err)
	assert.True(t, errors.Is(err, trace.ErrDuplicateName))
	assert.Contains(t, err.Error(), "event 1")
}

func TestConsume_MalformedAllocEvents(t *testing.T) {
	tests := []struct {
		name  string
		event chrome.Event
	}{
		{"begin without size", allocEvent("a", chrome.PhaseBegin, 0, "")},
		{"fractional size", allocEvent("a", chrome.PhaseBegin, 0, "1.5")},
		{"negative size", allocEvent("a", chrome.PhaseBegin, 0, "-4")},
		{"complete phase", allocEvent("a", "X", 0, "4")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBuilder(DefaultConfig()).Consume([]chrome.Event{tt.event})
			assert.True(t, errors.Is(err, trace.ErrParse), "got %v", err)
		})
	}
}

func TestConsume_CustomAllocType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllocType = "tensor"
	b := NewBuilder(cfg)
	events := []chrome.Event{
		allocEvent("ignored", chrome.PhaseBegin, 0, "8"),
		{Name: "t", Phase: chrome.PhaseBegin, Args: &chrome.Args{Type: "tensor", Size: "4"}},
	}

	require.NoError(t, b.Consume(events))

	assert.False(t, b.IsLive("ignored"))
	assert.True(t, b.IsLive("t"))
}

func TestConvertFile_WritesSnapshot(t *testing.T) {
	// GIVEN an event trace on disk
	dir := t.TempDir()
	input := testutil.WriteJSONFile(t, dir, "trace.json", chrome.File{TraceEvents: []chrome.Event{
		allocEvent("t0", chrome.PhaseBegin, 0, "100"),
		allocEvent("t0", chrome.PhaseEnd, 5, ""),
	}})
	output := filepath.Join(dir, "memory.json")

	// WHEN it is converted
	require.NoError(t, ConvertFile(input, output, DefaultConfig()))

	// THEN the output has the snapshot layout
	var doc map[string]any
	testutil.ReadJSONFile(t, output, &doc)
	assert.Equal(t, []any{}, doc["segments"])
	traces, ok := doc["device_traces"].([]any)
	require.True(t, ok)
	require.Len(t, traces, 1)
	assert.Len(t, traces[0], 3)
	settings, ok := doc["allocator_settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "", settings["PYTORCH_CUDA_ALLOC_CONF"])
	assert.Equal(t, float64(-1), settings["max_split_size"])
}

func TestConvertFile_IgnoresMalformedNonAllocEvents(t *testing.T) {
	skipped := []struct {
		name  string
		event string
	}{
		{"non-numeric size", `{"name": "op", "ph": "B", "ts": 2, "args": {"type": "op", "size": "large"}}`},
		{"numeric type", `{"name": "op", "ph": "B", "ts": 2, "args": {"type": 3}}`},
		{"string tid", `{"name": "op", "ph": "X", "ts": 2, "tid": "stream 7", "args": {"type": "kernel"}}`},
		{"fractional pid", `{"name": "op", "ph": "X", "ts": 2, "pid": 1.5}`},
		{"string ts and args", `{"name": "op", "ph": "i", "ts": "later", "args": "none"}`},
	}
	for _, tt := range skipped {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a balanced alloc pair with an ill-typed unrelated event between them
			dir := t.TempDir()
			input := filepath.Join(dir, "trace.json")
			doc := `{"traceEvents": [
				{"name": "t0", "ph": "B", "ts": 0, "pid": 0, "tid": 0, "args": {"type": "alloc", "size": 100}},
				` + tt.event + `,
				{"name": "t0", "ph": "E", "ts": 5, "pid": 0, "tid": 0, "args": {"type": "alloc"}}
			]}`
			require.NoError(t, os.WriteFile(input, []byte(doc), 0644))
			output := filepath.Join(dir, "memory.json")

			// WHEN it is converted
			require.NoError(t, ConvertFile(input, output, DefaultConfig()))

			// THEN only the alloc pair produces actions
			var snap Snapshot
			testutil.ReadJSONFile(t, output, &snap)
			require.Len(t, snap.DeviceTraces, 1)
			assert.Len(t, snap.DeviceTraces[0], 3)
		})
	}
}

func TestConsume_QuotedSizeRejected(t *testing.T) {
	f, err := chrome.Decode([]byte(`{"traceEvents": [{"name": "a", "ph": "B", "ts": 0, "args": {"type": "alloc", "size": "100"}}]}`))
	require.NoError(t, err)

	err = NewBuilder(DefaultConfig()).Consume(f.TraceEvents)

	assert.True(t, errors.Is(err, trace.ErrParse), "got %v", err)
}

func TestConvertFile_NoOutputOnError(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteJSONFile(t, dir, "trace.json", chrome.File{TraceEvents: []chrome.Event{
		allocEvent("ghost", chrome.PhaseEnd, 5, ""),
	}})
	output := filepath.Join(dir, "memory.json")

	err := ConvertFile(input, output, DefaultConfig())

	assert.True(t, errors.Is(err, trace.ErrUnknownName))
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertFile_StrictLeak(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteJSONFile(t, dir, "trace.json", chrome.File{TraceEvents: []chrome.Event{
		allocEvent("leak", chrome.PhaseBegin, 0, "1"),
	}})
	output := filepath.Join(dir, "memory.json")
	cfg := DefaultConfig()
	cfg.Finalize = FinalizeStrict

	err := ConvertFile(input, output, cfg)

	assert.True(t, errors.Is(err, trace.ErrUnfreed))
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertFile_RejectsPickleOutput(t *testing.T) {
	err := ConvertFile("unused.json", filepath.Join(t.TempDir(), "memory.pkl"), DefaultConfig())

	assert.True(t, errors.Is(err, trace.ErrIO))
}

func TestConvertFile_MissingInput(t *testing.T) {
	dir := t.TempDir()

	err := ConvertFile(filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"), DefaultConfig())

	var ioErr *trace.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, filepath.Join(dir, "missing.json"), ioErr.Path)
}
