package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	OutDir string `yaml:"out_dir"`
	Output string `yaml:"output"`

	// Compile settings
	Compile CompileConfig `yaml:"compile"`

	// Archive settings
	Archive ArchiveConfig `yaml:"archive"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Overlay text settings
	Overlay OverlayConfig `yaml:"overlay"`
}

type CompileConfig struct {
	Channel      string  `yaml:"channel"`
	Timezone     string  `yaml:"timezone"`
	BufferHours  int     `yaml:"buffer_hours"`
	MaxClips     int     `yaml:"max_clips"`
	PageSize     int     `yaml:"page_size"`
	LowWaterMark int     `yaml:"low_water_mark"`
	TextDuration float64 `yaml:"text_duration"`
	Attribution  string  `yaml:"attribution"`
}

type ArchiveConfig struct {
	Broadcaster string `yaml:"broadcaster"`
	MinViews    int    `yaml:"min_views"`
	PageSize    int    `yaml:"page_size"`
	DeleteAfter bool   `yaml:"delete_after"`
}

type FFmpegConfig struct {
	Threads int    `yaml:"threads"`
	Preset  string `yaml:"preset"`
}

type OverlayConfig struct {
	FontFile string `yaml:"font_file"`
	FontSize int    `yaml:"font_size"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		OutDir: "./out",
		Output: "./output.mp4",
		Compile: CompileConfig{
			Channel:      "itswill",
			Timezone:     "America/Los_Angeles",
			BufferHours:  8,
			MaxClips:     20,
			PageSize:     5,
			LowWaterMark: 5,
			TextDuration: 15.0,
			Attribution:  "Compiled by clipvault.",
		},
		Archive: ArchiveConfig{
			Broadcaster: "itswill",
			MinViews:    25,
			PageSize:    50,
			DeleteAfter: false,
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
			Preset:  "fast",
		},
		Overlay: OverlayConfig{
			FontFile: "./runescape_uf.ttf",
			FontSize: 36,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".clipvault", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
