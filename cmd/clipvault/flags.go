package main

import "github.com/spf13/cobra"

// Settings resolve in two layers: a flag set explicitly on the command line
// wins, otherwise the config file value applies. Zero config values fall back
// to the flag default so a sparse config file never blanks a setting.

func stringSetting(cmd *cobra.Command, name, flagVal, cfgVal string) string {
	if cmd.Flags().Changed(name) || cfgVal == "" {
		return flagVal
	}
	return cfgVal
}

func intSetting(cmd *cobra.Command, name string, flagVal, cfgVal int) int {
	if cmd.Flags().Changed(name) || cfgVal == 0 {
		return flagVal
	}
	return cfgVal
}

func floatSetting(cmd *cobra.Command, name string, flagVal, cfgVal float64) float64 {
	if cmd.Flags().Changed(name) || cfgVal == 0 {
		return flagVal
	}
	return cfgVal
}

func boolSetting(cmd *cobra.Command, name string, flagVal, cfgVal bool) bool {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	return cfgVal
}
