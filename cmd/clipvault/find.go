package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keagan/clipvault/internal/twitch"
)

var findFlags struct {
	start       string
	end         string
	minimum     int
	broadcaster string
	title       string
	user        string
	category    string
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "List clips in a range matching title/creator/category filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := newTwitchClient(ctx)
		if err != nil {
			return err
		}

		broadcasterID, err := client.GetUserID(ctx, findFlags.broadcaster)
		if err != nil {
			return err
		}
		if broadcasterID == "" {
			return fmt.Errorf("failed to find %s in the Twitch directory", findFlags.broadcaster)
		}

		categoryID := ""
		if findFlags.category != "" {
			categoryID, err = client.GetCategoryID(ctx, findFlags.category)
			if err != nil {
				return err
			}
			fmt.Printf("%s - %s\n", findFlags.category, categoryID)
		}

		start, err := parseAPITime(findFlags.start)
		if err != nil {
			return err
		}
		end, err := parseAPITime(findFlags.end)
		if err != nil {
			return err
		}

		filter := twitch.ClipFilter{
			BroadcasterID: broadcasterID,
			StartedAt:     start,
			EndedAt:       end,
			First:         50,
		}

		count := 0
		fetching := true
		for fetching {
			clips, cursor, err := client.GetClips(ctx, filter)
			if err != nil {
				return err
			}

			if cursor != "" {
				filter.After = cursor
			} else {
				fetching = false
			}

			for _, clip := range clips {
				if clip.ViewCount < findFlags.minimum {
					fetching = false
					break
				}

				if findFlags.title != "" && !strings.Contains(strings.ToLower(clip.Title), strings.ToLower(findFlags.title)) {
					continue
				}
				if findFlags.user != "" && !strings.Contains(strings.ToLower(clip.CreatorName), strings.ToLower(findFlags.user)) {
					continue
				}
				if categoryID != "" && categoryID != clip.GameID {
					continue
				}

				count++
				fmt.Printf("%d. %-60s by %-20s (%d views) (%s) https://clips.twitch.tv/%s\n",
					count, fmt.Sprintf("%q", clip.Title), clip.CreatorName, clip.ViewCount, clip.CreatedAt, clip.ID)
			}
		}

		fmt.Printf("Clip count: %d\n", count)
		return nil
	},
}

func parseAPITime(s string) (time.Time, error) {
	t, err := time.Parse(twitch.TimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func init() {
	flags := findCmd.Flags()
	flags.StringVarP(&findFlags.start, "start", "s", "2022-01-01T00:00:01Z", "start of clip search")
	flags.StringVarP(&findFlags.end, "end", "e", "2022-12-31T12:59:59Z", "end of clip search")
	flags.IntVarP(&findFlags.minimum, "minimum", "m", 50, "minimum number of views")
	flags.StringVarP(&findFlags.broadcaster, "broadcaster", "b", "itswill", "broadcaster name")
	flags.StringVarP(&findFlags.title, "find", "f", "", "find clips with a title substring")
	flags.StringVarP(&findFlags.user, "user", "u", "", "find clips by creator")
	flags.StringVarP(&findFlags.category, "category", "c", "", "find clips in a category")
}
