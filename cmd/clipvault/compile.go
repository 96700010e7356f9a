package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipvault/internal/compile"
	"github.com/keagan/clipvault/internal/config"
	"github.com/keagan/clipvault/internal/ffmpeg"
	"github.com/keagan/clipvault/internal/selection"
	"github.com/keagan/clipvault/internal/timewindow"
)

var compileFlags struct {
	start        string
	end          string
	buffer       int
	stream       string
	channel      string
	max          int
	outFolder    string
	output       string
	chrono       bool
	stats        bool
	textDuration float64
	timezone     string
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile top clips from a period into one video",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		channel := stringSetting(cmd, "channel", compileFlags.channel, cfg.Compile.Channel)
		timezone := stringSetting(cmd, "timezone", compileFlags.timezone, cfg.Compile.Timezone)
		buffer := intSetting(cmd, "buffer", compileFlags.buffer, cfg.Compile.BufferHours)
		maxClips := intSetting(cmd, "max", compileFlags.max, cfg.Compile.MaxClips)
		outFolder := stringSetting(cmd, "outfolder", compileFlags.outFolder, cfg.OutDir)
		output := stringSetting(cmd, "output", compileFlags.output, cfg.Output)
		textDuration := floatSetting(cmd, "text-duration", compileFlags.textDuration, cfg.Compile.TextDuration)

		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("unknown timezone %q: %w", timezone, err)
		}

		client, err := newTwitchClient(ctx)
		if err != nil {
			return err
		}
		gql := newGQLClient()

		userID, err := client.GetUserID(ctx, channel)
		if err != nil {
			return err
		}
		if userID == "" {
			return fmt.Errorf("failed to find %s in the Twitch directory", channel)
		}

		var window timewindow.Window
		if compileFlags.stream == "" {
			window, err = timewindow.ResolveRange(compileFlags.start, compileFlags.end, loc,
				time.Duration(buffer)*time.Hour)
		} else {
			video, verr := client.GetVideo(ctx, compileFlags.stream)
			if verr != nil {
				return verr
			}
			window, err = timewindow.ResolveVideo(video, loc)
		}
		if err != nil {
			return err
		}

		log.Info().
			Time("start", window.Start).
			Time("end", window.End).
			Msg("searching for clips")

		engine := selection.New(log.Logger, client, client, selection.Config{
			MaxClips:     maxClips,
			PageSize:     cfg.Compile.PageSize,
			LowWaterMark: cfg.Compile.LowWaterMark,
			CollectAll:   compileFlags.stats,
		})

		result, err := engine.Run(ctx, userID, window)
		if err != nil {
			return err
		}

		log.Info().Int("clips", len(result.Picks)).Msg("got clips")

		if compileFlags.stats {
			collector := compile.NewCollector(log.Logger, client, gql)
			stats, serr := collector.Collect(ctx, userID, window, result.Log)
			if serr != nil {
				return serr
			}
			if serr := stats.WriteFiles(outFolder); serr != nil {
				return serr
			}
		}

		executor, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		pipeline := compile.New(log.Logger, gql, executor, compile.Options{
			OutDir:        outFolder,
			Output:        output,
			FontFile:      cfg.Overlay.FontFile,
			FontSize:      cfg.Overlay.FontSize,
			TextDuration:  textDuration,
			Preset:        cfg.FFmpeg.Preset,
			Chronological: compileFlags.chrono,
			Attribution:   cfg.Compile.Attribution,
			Location:      loc,
		})

		return pipeline.Compile(ctx, result.Picks, window)
	},
}

func init() {
	flags := compileCmd.Flags()
	flags.StringVarP(&compileFlags.start, "start", "s", "2022-12-01T00:00:01Z", "start of clip search")
	flags.StringVarP(&compileFlags.end, "end", "e", "2022-12-31T12:59:59Z", "end of clip search")
	flags.IntVarP(&compileFlags.buffer, "buffer", "b", 8, "hours before/after the period to consider")
	flags.StringVar(&compileFlags.stream, "stream", "", "limit clips to one stream (video ID)")
	flags.StringVarP(&compileFlags.channel, "channel", "c", "", "Twitch channel name")
	flags.IntVarP(&compileFlags.max, "max", "m", 20, "max clips to compile into the video")
	flags.StringVarP(&compileFlags.outFolder, "outfolder", "f", "./out/", "temporary folder for holding clips")
	flags.StringVarP(&compileFlags.output, "output", "o", "./output.mp4", "output file name")
	flags.BoolVar(&compileFlags.chrono, "chrono", false, "sort the clips chronologically")
	flags.BoolVar(&compileFlags.stats, "stats", false, "compile statistics for the period")
	flags.Float64Var(&compileFlags.textDuration, "text-duration", 15.0, "duration of the clip info text")
	flags.StringVarP(&compileFlags.timezone, "timezone", "z", "", "timezone for start/end timestamps")
}
