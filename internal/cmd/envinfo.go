package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ninjaexa/ninjaexa/internal/config"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, rate limiter and version information.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("configuration not loaded")
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(envInfoLines(a), "\n"), 0))
		return err
	},
}

func envInfoLines(a *app) []string {
	version := crucible.GetVersion()
	cfg := a.cfg
	limits := cfg.RateLimit.Limits()

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.DefaultConfigPath() + " (not found)"
	}
	apiKey := "(not set)"
	if a.client.HasAPIKey() {
		apiKey = "(set)"
	}

	lines := []string{
		"NinjaExa Environment Information",
		"",
		"Application:",
		"  Name:       " + config.AppName,
		"  Version:    " + versionInfo.Version,
		"  Commit:     " + versionInfo.Commit,
		"  Built:      " + versionInfo.BuildDate,
		"",
		"SSOT:",
		"  Gofulmen:   " + version.Gofulmen,
		"  Crucible:   " + version.Crucible,
		"",
		"Runtime:",
		"  Go Version: " + runtime.Version(),
		"  GOOS:       " + runtime.GOOS,
		"  GOARCH:     " + runtime.GOARCH,
		"",
		"Configuration:",
		"  Config File:  " + configFile,
		"  Log Level:    " + cfg.Logging.Level,
		"  MCP URL:      " + cfg.API.MCPURL,
		"  API URL:      " + cfg.API.BaseURL,
		"  Timeout:      " + cfg.API.Timeout.String(),
		"  API Key:      " + apiKey,
		"",
		"Rate Limiter:",
		"  State File:   " + cfg.StateFile,
		fmt.Sprintf("  Limits:       %d/min, %d/10min, %d/hour, %d/day", limits.PerMinute, limits.Per10Min, limits.PerHour, limits.PerDay),
		fmt.Sprintf("  Penalty:      base %s, max %s, decay %s", cfg.RateLimit.BasePenalty, cfg.RateLimit.MaxPenalty, cfg.RateLimit.DecayPeriod),
		fmt.Sprintf("  Disabled:     %t", cfg.RateLimit.Disabled),
	}
	return lines
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
