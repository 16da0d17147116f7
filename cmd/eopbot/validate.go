package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eopbot/internal/config"
)

func validateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and list the sources it enables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfigManager(*cfgPath).Load()
			if err != nil {
				return fmt.Errorf("%s: %w", *cfgPath, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", *cfgPath)
			fmt.Fprintf(out, "channel: %d\n", cfg.Telegram.ChannelID)
			for _, s := range []struct {
				name string
				sc   config.SourceConfig
			}{
				{"mediawiki", cfg.MediaWiki.SourceConfig},
				{"github", cfg.GitHub.SourceConfig},
				{"jira", cfg.Jira.SourceConfig},
				{"paypal", cfg.PayPal.SourceConfig},
			} {
				if !s.sc.IsEnabled() {
					fmt.Fprintf(out, "  %-9s disabled\n", s.name)
					continue
				}
				fmt.Fprintf(out, "  %-9s %s (%s, %s)\n", s.name, s.sc.Listen, s.sc.Label, s.sc.ParseMode)
			}
			if cfg.Shortener.Enabled {
				fmt.Fprintf(out, "shortener: %s (min %d)\n", cfg.Shortener.Endpoint, cfg.Shortener.MinLength)
			}
			return nil
		},
	}
}
