package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/keagan/clipvault/internal/config"
	"github.com/keagan/clipvault/internal/mediacms"
	"github.com/keagan/clipvault/internal/twitch"
)

func newTwitchClient(ctx context.Context) (*twitch.Client, error) {
	secrets := config.SecretsFromContext(ctx)

	return twitch.NewClient(ctx, log.Logger, twitch.Options{
		ClientID:     secrets.Twitch.ClientID,
		ClientSecret: secrets.Twitch.ClientSecret,
	})
}

func newGQLClient() *twitch.GQLClient {
	return twitch.NewGQLClient(log.Logger, twitch.GQLOptions{})
}

func newMediaCMSClient(ctx context.Context, urlOverride string) *mediacms.Client {
	secrets := config.SecretsFromContext(ctx)

	baseURL := secrets.MediaCMS.URL
	if urlOverride != "" {
		baseURL = urlOverride
	}

	return mediacms.NewClient(log.Logger, baseURL, secrets.MediaCMS.Username, secrets.MediaCMS.Password)
}
