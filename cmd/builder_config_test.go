package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astra-sim/tracetools/trace/torchmem"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memtrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBuilderConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := loadBuilderConfig("")

	require.NoError(t, err)
	assert.Equal(t, torchmem.DefaultConfig(), cfg)
}

func TestLoadBuilderConfig_OverlaysFile(t *testing.T) {
	// GIVEN a config overriding two fields
	path := writeConfig(t, "epoch_offset_us: 0\nfinalize: strict\n")

	// WHEN it is loaded
	cfg, err := loadBuilderConfig(path)

	// THEN the overrides apply and the rest keeps defaults
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.EpochOffsetUs)
	assert.Equal(t, torchmem.FinalizeStrict, cfg.Finalize)
	assert.Equal(t, torchmem.DefaultCompletionDelayUs, cfg.CompletionDelayUs)
	assert.Equal(t, torchmem.DefaultAllocType, cfg.AllocType)
}

func TestLoadBuilderConfig_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "epoch_ofset_us: 0\n")

	_, err := loadBuilderConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "epoch_ofset_us")
}

func TestLoadBuilderConfig_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "finalize: maybe\n")

	_, err := loadBuilderConfig(path)

	assert.Error(t, err)
}

func TestLoadBuilderConfig_MissingFile(t *testing.T) {
	_, err := loadBuilderConfig(filepath.Join(t.TempDir(), "none.yaml"))

	assert.Error(t, err)
}

func newFlagCommand() (*cobra.Command, *bool, *bool) {
	var strict, segments bool
	c := &cobra.Command{Use: "test"}
	c.Flags().BoolVar(&strict, "strict", false, "")
	c.Flags().BoolVar(&segments, "emit-segments", false, "")
	return c, &strict, &segments
}

func TestBuilderConfigFromFlags_ExplicitFlagsWin(t *testing.T) {
	// GIVEN a config file asking for strict mode
	path := writeConfig(t, "finalize: strict\nemit_segments: true\n")
	c, strict, segments := newFlagCommand()
	require.NoError(t, c.Flags().Parse([]string{"--strict=false"}))

	// WHEN only --strict is passed explicitly
	cfg, err := builderConfigFromFlags(c, path, *strict, *segments)

	// THEN the flag overrides the file and the untouched flag does not
	require.NoError(t, err)
	assert.Equal(t, torchmem.FinalizeLenient, cfg.Finalize)
	assert.True(t, cfg.EmitSegments)
}

func TestBuilderConfigFromFlags_StrictFlag(t *testing.T) {
	c, strict, segments := newFlagCommand()
	require.NoError(t, c.Flags().Parse([]string{"--strict", "--emit-segments"}))

	cfg, err := builderConfigFromFlags(c, "", *strict, *segments)

	require.NoError(t, err)
	assert.Equal(t, torchmem.FinalizeStrict, cfg.Finalize)
	assert.True(t, cfg.EmitSegments)
}

func TestLoadBuilderConfig_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "# nothing to override\n")

	cfg, err := loadBuilderConfig(path)

	require.NoError(t, err)
	assert.Equal(t, torchmem.DefaultConfig(), cfg)
}
