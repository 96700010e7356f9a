package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/keagan/clipvault/internal/config"
	"github.com/keagan/clipvault/internal/logging"
)

var (
	cfgFile     string
	secretsFile string
	verbose     bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "clipvault",
	Short:         "clipvault - Twitch clip archiver and top-clips compiler",
	Long:          "Archives Twitch clips and VODs into a self-hosted media library and compiles top-clip highlight videos.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		secrets, err := config.LoadSecrets(secretsFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		ctx = config.WithSecrets(ctx, secrets)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&secretsFile, "secrets", "p", "./secrets.json", "JSON file with credentials")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(checkCmd)
}
