package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lanraragi/lrrctl/internal/model"
)

// applyOverrides layers LRRCTL_* environment variables and the --server and
// --api-key flags over the loaded file. Flags win over the environment.
func applyOverrides(cmd *cobra.Command, cfg *model.Config) error {
	v := viper.New()
	v.SetEnvPrefix("LRRCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"server.url", "server.api_key", "server.timeout", "poll.interval"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("server.url", flags.Lookup("server")); err != nil {
		return err
	}
	if err := v.BindPFlag("server.api_key", flags.Lookup("api-key")); err != nil {
		return err
	}

	if s := v.GetString("server.url"); s != "" {
		cfg.Server.URL = s
	}
	if s := v.GetString("server.api_key"); s != "" {
		cfg.Server.APIKey = s
	}
	if s := v.GetString("server.timeout"); s != "" {
		if _, err := model.ParseDuration(s); err != nil {
			return fmt.Errorf("LRRCTL_SERVER_TIMEOUT: %w", err)
		}
		cfg.Server.Timeout = s
	}
	if s := v.GetString("poll.interval"); s != "" {
		if _, err := model.ParseDuration(s); err != nil {
			return fmt.Errorf("LRRCTL_POLL_INTERVAL: %w", err)
		}
		if cfg.Poll == nil {
			cfg.Poll = &model.Poll{}
		}
		cfg.Poll.Interval = s
	}
	return nil
}
