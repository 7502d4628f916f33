package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"bettersaved/domain/core/valueobjects"
	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/di"

	"github.com/spf13/cobra"
)

var (
	configFile string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bettersaved-admin",
	Short: "Operator tooling for the BetterSaved bot",
	Long: `Inspect and repair user profiles, register the bot command menu
and issue tokens for the operator API.

Configuration is read the same way the server reads it: the YAML file
named by --config or CONFIG_FILE, then environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	return config.LoadConfig()
}

// withAdmin builds the operator container and runs fn under the command timeout
func withAdmin(cmd *cobra.Command, fn func(ctx context.Context, admin *di.AdminContainer) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	admin, cleanup, err := di.InitializeAdmin(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()
	defer admin.Logger.Sync()

	return fn(ctx, admin)
}

// parseUserID accepts either a user ID or a bare Telegram ID
func parseUserID(arg string) (string, error) {
	if telegramID, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return valueobjects.NewUserIDFromTelegram(telegramID).String(), nil
	}
	id, err := valueobjects.ParseUserID(arg)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
