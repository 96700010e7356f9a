package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Int("buffer", 8, "")
	cmd.Flags().Int("max", 20, "")
	cmd.Flags().String("outfolder", "./out/", "")
	cmd.Flags().Float64("text-duration", 15.0, "")
	cmd.Flags().Bool("delete", false, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestSettingsFallBackToConfig(t *testing.T) {
	cmd := newSettingsCmd(t)

	assert.Equal(t, 12, intSetting(cmd, "buffer", 8, 12))
	assert.Equal(t, 30, intSetting(cmd, "max", 20, 30))
	assert.Equal(t, "/srv/clips", stringSetting(cmd, "outfolder", "./out/", "/srv/clips"))
	assert.Equal(t, 10.0, floatSetting(cmd, "text-duration", 15.0, 10.0))
	assert.True(t, boolSetting(cmd, "delete", false, true))
}

func TestSettingsExplicitFlagsWin(t *testing.T) {
	cmd := newSettingsCmd(t,
		"--buffer", "3",
		"--outfolder", "/tmp/x",
		"--text-duration", "5",
		"--delete=false",
	)

	assert.Equal(t, 3, intSetting(cmd, "buffer", 3, 12))
	assert.Equal(t, "/tmp/x", stringSetting(cmd, "outfolder", "/tmp/x", "/srv/clips"))
	assert.Equal(t, 5.0, floatSetting(cmd, "text-duration", 5.0, 10.0))
	assert.False(t, boolSetting(cmd, "delete", false, true))
}

func TestSettingsZeroConfigKeepsFlagDefault(t *testing.T) {
	cmd := newSettingsCmd(t)

	// A sparse config file must not blank out a flag default.
	assert.Equal(t, 8, intSetting(cmd, "buffer", 8, 0))
	assert.Equal(t, "./out/", stringSetting(cmd, "outfolder", "./out/", ""))
	assert.Equal(t, 15.0, floatSetting(cmd, "text-duration", 15.0, 0))
	assert.False(t, boolSetting(cmd, "delete", false, false))
}
