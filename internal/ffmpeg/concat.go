package ffmpeg

import (
	"context"
	"fmt"
)

// Concat stitches the clips listed in a concat manifest into one output using
// stream copy. The manifest holds one "file <name>" line per clip.
func (e *Executor) Concat(ctx context.Context, manifest, output string) error {
	if manifest == "" {
		return fmt.Errorf("concat manifest path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("manifest", manifest).
		Str("output", output).
		Msg("concatenating clips")

	args := []string{
		"-f", "concat",
		"-i", manifest,
		"-c", "copy",
		output,
	}

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concat output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("concat completed")
	return nil
}
