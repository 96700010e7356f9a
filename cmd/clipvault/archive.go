package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipvault/internal/archive"
	"github.com/keagan/clipvault/internal/config"
	"github.com/keagan/clipvault/internal/ffmpeg"
	"github.com/keagan/clipvault/pkg/util"
)

var archiveFlags struct {
	mediaURL    string
	folder      string
	deleteAfter bool

	file        string
	id          string
	start       string
	end         string
	minimum     int
	broadcaster string
	timezone    string
	category    string
	period      string
	vodType     string
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive clips and VODs into the media library",
}

func newArchiver(cmd *cobra.Command) (*archive.Archiver, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	client, err := newTwitchClient(ctx)
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDir(archiveFlags.folder); err != nil {
		return nil, err
	}

	return archive.New(log.Logger, client, newGQLClient(), newMediaCMSClient(ctx, archiveFlags.mediaURL), archive.Options{
		OutDir:      archiveFlags.folder,
		DeleteAfter: boolSetting(cmd, "delete", archiveFlags.deleteAfter, cfg.Archive.DeleteAfter),
	}), nil
}

var archiveSingleCmd = &cobra.Command{
	Use:   "single",
	Short: "Archive a single clip from its clip ID or link",
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver(cmd)
		if err != nil {
			return err
		}

		_, err = archiver.ArchiveClip(cmd.Context(), archiveFlags.id)
		return err
	},
}

var archiveFileCmd = &cobra.Command{
	Use:   "file",
	Short: "Archive clips from a file containing IDs/links",
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver(cmd)
		if err != nil {
			return err
		}

		return archiver.ArchiveFile(cmd.Context(), archiveFlags.file)
	},
}

var archiveRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Archive clips within a time range",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		archiver, err := newArchiver(cmd)
		if err != nil {
			return err
		}

		archived, err := archiver.ArchiveRange(ctx, archive.RangeOptions{
			Broadcaster: stringSetting(cmd, "broadcaster", archiveFlags.broadcaster, cfg.Archive.Broadcaster),
			Start:       archiveFlags.start,
			End:         archiveFlags.end,
			Timezone:    archiveFlags.timezone,
			MinViews:    intSetting(cmd, "minimum", archiveFlags.minimum, cfg.Archive.MinViews),
			Category:    archiveFlags.category,
			PageSize:    cfg.Archive.PageSize,
		})
		if err != nil {
			return err
		}

		log.Info().Int("clips", archived).Msg("new clips found & archived")
		return nil
	},
}

var archiveVodsCmd = &cobra.Command{
	Use:   "vods",
	Short: "Archive VODs within a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		broadcaster := stringSetting(cmd, "broadcaster", archiveFlags.broadcaster, cfg.Archive.Broadcaster)

		client, err := newTwitchClient(ctx)
		if err != nil {
			return err
		}

		executor, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		archiver := archive.NewVODArchiver(log.Logger, client, newGQLClient(), executor)

		downloaded, err := archiver.ArchiveVODs(ctx, archive.VODOptions{
			Broadcaster: broadcaster,
			Period:      archiveFlags.period,
			Type:        archiveFlags.vodType,
			Category:    archiveFlags.category,
			OutDir:      archiveFlags.folder,
			DeleteAfter: boolSetting(cmd, "delete", archiveFlags.deleteAfter, cfg.Archive.DeleteAfter),
		})
		if err != nil {
			return err
		}

		log.Info().Int("videos", downloaded).Msg("videos downloaded")
		return nil
	},
}

func init() {
	pf := archiveCmd.PersistentFlags()
	pf.StringVarP(&archiveFlags.mediaURL, "mediaurl", "m", "", "media library URL (default: secrets file)")
	pf.StringVarP(&archiveFlags.folder, "folder", "o", "./output/", "folder to download clips into")
	pf.BoolVarP(&archiveFlags.deleteAfter, "delete", "d", false, "delete clips after archiving")

	archiveSingleCmd.Flags().StringVarP(&archiveFlags.id, "id", "i", "", "clip ID")
	archiveSingleCmd.MarkFlagRequired("id")

	archiveFileCmd.Flags().StringVarP(&archiveFlags.file, "file", "f", "", "filepath containing clip IDs or links")
	archiveFileCmd.MarkFlagRequired("file")

	rf := archiveRangeCmd.Flags()
	rf.StringVarP(&archiveFlags.start, "start", "s", "", "start of clip search")
	rf.StringVarP(&archiveFlags.end, "end", "e", time.Now().UTC().Format("2006-01-02T15:04:05Z"), "end of clip search")
	rf.IntVar(&archiveFlags.minimum, "minimum", 25, "minimum number of views for a clip to get downloaded")
	rf.StringVarP(&archiveFlags.broadcaster, "broadcaster", "b", "", "broadcaster name")
	rf.StringVarP(&archiveFlags.timezone, "timezone", "z", "America/Los_Angeles", "timezone for start/end timestamps")
	rf.StringVarP(&archiveFlags.category, "category", "c", "", "only fetch clips in one game/category")
	archiveRangeCmd.MarkFlagRequired("start")

	vf := archiveVodsCmd.Flags()
	vf.StringVar(&archiveFlags.period, "period", "all", "period of vod search (all, day, week, month)")
	vf.StringVarP(&archiveFlags.vodType, "type", "t", "archive", "type of vods (all, archive, highlight, upload)")
	vf.StringVarP(&archiveFlags.broadcaster, "broadcaster", "b", "", "broadcaster name")
	vf.StringVarP(&archiveFlags.category, "category", "c", "", "only fetch vods in one game/category")

	archiveCmd.AddCommand(archiveSingleCmd)
	archiveCmd.AddCommand(archiveFileCmd)
	archiveCmd.AddCommand(archiveRangeCmd)
	archiveCmd.AddCommand(archiveVodsCmd)
}
