package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keagan/clipvault/internal/logging"
)

var checkFlags struct {
	mediaURL string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report library entries missing categories, tags or clip links",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.WithComponent("check")
		cms := newMediaCMSClient(ctx, checkFlags.mediaURL)

		items, err := cms.ListMedia(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("clips", len(items)).Msg("got library entries")

		noCategories, err := os.Create("./nocategories.txt")
		if err != nil {
			return err
		}
		defer noCategories.Close()
		noTags, err := os.Create("./notags.txt")
		if err != nil {
			return err
		}
		defer noTags.Close()
		noClipID, err := os.Create("./noclipid.txt")
		if err != nil {
			return err
		}
		defer noClipID.Close()

		catCount, tagCount, linkCount := 0, 0, 0
		for _, item := range items {
			if !strings.Contains(item.Description, "clip") {
				linkCount++
				log.Info().Str("title", item.Title).Msg("entry has no clip link in its description")
				fmt.Fprintln(noClipID, item.URL)
			}

			details, err := cms.GetMediaInfo(ctx, item.FriendlyToken)
			if err != nil {
				log.Warn().Err(err).Str("token", item.FriendlyToken).Msg("failed to fetch entry details")
				continue
			}

			if len(details.CategoriesInfo) == 0 {
				catCount++
				log.Info().Str("title", details.Title).Msg("entry has no category assigned")
				fmt.Fprintln(noCategories, details.URL)
			}
			if len(details.TagsInfo) == 0 {
				tagCount++
				log.Info().Str("title", details.Title).Msg("entry has no tag assigned")
				fmt.Fprintln(noTags, details.URL)
			}
		}

		log.Info().
			Int("no_category", catCount).
			Int("no_tags", tagCount).
			Int("no_clip_link", linkCount).
			Msg("library check complete")
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkFlags.mediaURL, "mediaurl", "m", "", "media library URL (default: secrets file)")
}
