package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command is one entry of the bot menu
type Command struct {
	Name        string
	Description string
}

// CommandMenu registers the bot's command list with Telegram
type CommandMenu struct {
	bot BotAPI
}

// NewCommandMenu creates a new CommandMenu
func NewCommandMenu(bot BotAPI) *CommandMenu {
	return &CommandMenu{bot: bot}
}

// SetCommands replaces the whole menu in one call
func (m *CommandMenu) SetCommands(ctx context.Context, commands []Command) error {
	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}

	if _, err := m.bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}
