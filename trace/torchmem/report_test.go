package torchmem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{3 << 20, "3.00 MB"},
		{5 << 30, "5.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.n))
	}
}

func TestWriteSummary_ListsLiveAllocations(t *testing.T) {
	// GIVEN a builder with one freed and two live allocations
	b := newTestBuilder()
	require.NoError(t, b.RecordAllocation("weights", 2048, 0))
	require.NoError(t, b.RecordAllocation("scratch", 16, 1))
	require.NoError(t, b.RecordDeallocation("scratch", 2))
	require.NoError(t, b.RecordAllocation("activations", 4096, 3))

	// WHEN the summary is written
	var buf bytes.Buffer
	WriteSummary(&buf, b)
	out := buf.String()

	// THEN statistics and the live table are present
	assert.Contains(t, out, "allocations:     3")
	assert.Contains(t, out, "frees:           1")
	assert.Contains(t, out, "live:            2 (6.00 KB)")
	assert.Contains(t, out, "weights")
	assert.Contains(t, out, "activations")
	assert.Contains(t, out, "0x810")
	assert.NotContains(t, out, "scratch")
}

func TestWriteSummary_NoTableWhenBalanced(t *testing.T) {
	b := newTestBuilder()
	require.NoError(t, b.RecordAllocation("a", 1, 0))
	require.NoError(t, b.RecordDeallocation("a", 1))

	var buf bytes.Buffer
	WriteSummary(&buf, b)

	assert.Contains(t, buf.String(), "live:            0 (0.00 B)")
	assert.NotContains(t, buf.String(), "NAME")
}
