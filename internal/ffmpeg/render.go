package ffmpeg

import (
	"context"
	"fmt"
)

// Reencode rescales and re-encodes a clip to the compilation format.
func (e *Executor) Reencode(ctx context.Context, opts ReencodeOptions) error {
	if opts.Input == "" || opts.Output == "" {
		return fmt.Errorf("input and output paths are required")
	}

	scale := opts.Scale
	if scale == "" {
		scale = DefaultScale
	}
	codec := opts.VideoCodec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("scale", scale).
		Msg("re-encoding clip")

	args := []string{
		"-i", opts.Input,
		"-c:v", codec,
		"-preset", preset,
		"-vf", fmt.Sprintf("scale=%s", scale),
		opts.Output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("re-encode output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("re-encode failed: %w", err)
	}

	return nil
}

// DrawText burns a drawtext filter chain into the video.
func (e *Executor) DrawText(ctx context.Context, input, output, filter string) error {
	if input == "" || output == "" {
		return fmt.Errorf("input and output paths are required")
	}
	if filter == "" {
		return fmt.Errorf("drawtext filter cannot be empty")
	}

	e.logger.Info().Str("input", input).Msg("burning in overlay text")

	args := []string{
		"-i", input,
		"-vf", filter,
		output,
	}

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("drawtext output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("drawtext failed: %w", err)
	}

	return nil
}

// ConvertVideo re-encodes a downloaded VOD transport stream into an archival
// mp4 (h265, crf 24).
func (e *Executor) ConvertVideo(ctx context.Context, input, output string) error {
	if input == "" || output == "" {
		return fmt.Errorf("input and output paths are required")
	}

	e.logger.Info().Str("input", input).Str("output", output).Msg("converting vod")

	args := []string{
		"-i", input,
		"-map", "0:v",
		"-map", "0:a",
		"-vcodec", "libx265",
		"-crf", "24",
		output,
	}

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("convert output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("vod conversion failed: %w", err)
	}

	return nil
}
