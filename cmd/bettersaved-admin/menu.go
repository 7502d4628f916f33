package main

import (
	"context"
	"fmt"

	tgtransport "bettersaved/infrastructure/telegram"
	tginterface "bettersaved/interfaces/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var webhookURL string

// botCmd talks to the Bot API directly instead of going through the container
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Configure the bot on the Telegram side",
}

var botRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Publish the command menu and optionally point the webhook at URL",
	RunE:  runBotRegister,
}

func init() {
	botRegisterCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Public URL of POST /webhook/telegram")
	botCmd.AddCommand(botRegisterCmd)
}

func runBotRegister(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	bot, err := tgtransport.NewBot(cfg.TelegramBotToken, cfg.TelegramAPIEndpoint, zap.NewNop())
	if err != nil {
		return err
	}
	menu := tginterface.Menu()
	if err := tgtransport.NewCommandMenu(bot).SetCommands(ctx, menu); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered %d commands for @%s\n", len(menu), bot.Self.UserName)

	if webhookURL == "" {
		return nil
	}
	// WebhookConfig predates secret_token, so the call is made with raw params
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", cfg.TelegramWebhookSecret)
	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", webhookURL)
	return nil
}
