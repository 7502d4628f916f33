package telegram

import (
	"context"
	"fmt"
	"strings"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/ports"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/domain/core/valueobjects"
	tgtransport "bettersaved/infrastructure/telegram"
	pkgerrors "bettersaved/pkg/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	msgWelcome = "👋 Hi %s! I'm BetterSaved.\n\nForward me anything you want to keep: messages go to your spreadsheet, " +
		"files go to your Google Drive.\n\nUse /connect_drive to link your Google Drive and /help to see everything I can do."
	msgHelp = "Here's what I can do:\n\n" +
		"- Send me any text message, and I'll save it to your Google Sheets\n" +
		"- Send me images, videos, audio, PDFs, and other files to save them to your Google Drive\n" +
		"- Use /start to get started\n" +
		"- Use /user to see your user information\n" +
		"- Use /connect_drive to connect your Google Drive\n" +
		"- Use /disconnect_drive to revoke Drive access\n" +
		"- Use /fix_spreadsheet if you're having issues saving messages\n" +
		"- Use /nuke_user to completely delete your account data\n" +
		"- Use /help to see this message again"
	msgCancelled          = "Operation cancelled."
	msgUnknownCommand     = "I don't know that command. Use /help to see what I can do."
	msgNotRegistered      = "You're not registered yet. Send /start to get started."
	msgUserInfo           = "📊 Your User Information\n\n🆔 User ID: %s\n👤 Name: %s\nLanguage: %s\n🔑 Google Drive Connection: %s"
	msgConnectDrive       = "🔗 Connect Google Drive\n\n1. Open the link below and allow access to your Google Drive\n2. Once approved, your account is linked automatically\n\n%s\n\nThis will create a 'BetterSaved' folder in your Google Drive where all your saved messages will be stored."
	msgConnectUnavailable = "Google Drive connections are not available right now. Please try again later."
	msgAlreadyConnected   = "✅ Your Google Drive is already connected. Use /disconnect_drive first if you want to link another account."
	msgNoConnection       = "❌ You don't have a Google Drive connection to disconnect."
	msgDisconnected       = "✅ Your Google Drive connection has been removed. Your saved messages will no longer be stored in Google Drive. You can reconnect anytime using /connect_drive."
	msgNeedConnection     = "❌ You need to connect your Google Drive first. Use /connect_drive to get started."
	msgFixing             = "🔄 Fixing your spreadsheet information..."
	msgFixed              = "✅ Your BetterSaved setup is ready.\n\n📁 Folder: %s\n📊 Spreadsheet: %s"
	msgFixFailed          = "❌ I couldn't repair your BetterSaved folder or spreadsheet. Please try again later."
	msgNukeWarning        = "⚠️ DANGER ZONE - ACCOUNT DELETION ⚠️\n\nYou are about to delete your account and all associated data from BetterSaved.\n\n" +
		"This action cannot be undone!\n\n• All your settings will be deleted\n• Your Google Drive connection will be removed\n\n" +
		"Note: This will NOT delete any files already saved to your Google Drive.\n\nTo confirm deletion, send: /nuke_user CONFIRM"
	msgNoAccount   = "❌ You don't have an account to delete."
	msgNuked       = "💥 Your account has been deleted. All your data has been removed from our database.\n\nIf you wish to use BetterSaved again in the future, just send /start to get started."
	msgCommandFail = "❌ Something went wrong. Please try again later."
)

// Menu is the command list shown in the chat client
func Menu() []tgtransport.Command {
	return []tgtransport.Command{
		{Name: "start", Description: "Start the bot and register your user"},
		{Name: "help", Description: "Show help information"},
		{Name: "user", Description: "View your user information"},
		{Name: "connect_drive", Description: "Connect your Google Drive account"},
		{Name: "disconnect_drive", Description: "Disconnect your Google Drive account"},
		{Name: "fix_spreadsheet", Description: "Run this if you have spreadsheet detection issues"},
		{Name: "nuke_user", Description: "Delete your account and all data"},
	}
}

// CommandSender dispatches commands
type CommandSender interface {
	Send(ctx context.Context, cmd bus.Command) error
}

// QueryAsker answers queries
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// AuthLinker produces the storage consent link for a user
type AuthLinker interface {
	AuthCodeURL(state string) string
}

// CommandRouter answers slash commands through the command and query buses
type CommandRouter struct {
	commands  CommandSender
	queries   QueryAsker
	messenger ports.Messenger
	auth      AuthLinker
	logger    *zap.Logger
}

// NewCommandRouter creates a new CommandRouter
func NewCommandRouter(commands CommandSender, queries QueryAsker, messenger ports.Messenger, auth AuthLinker, logger *zap.Logger) *CommandRouter {
	return &CommandRouter{
		commands:  commands,
		queries:   queries,
		messenger: messenger,
		auth:      auth,
		logger:    logger,
	}
}

type commandContext struct {
	msg    *tgbotapi.Message
	userID string
	args   string
}

// Route answers one command message
func (r *CommandRouter) Route(ctx context.Context, msg *tgbotapi.Message) error {
	c := commandContext{
		msg:    msg,
		userID: valueobjects.NewUserIDFromTelegram(msg.From.ID).String(),
		args:   strings.TrimSpace(msg.CommandArguments()),
	}
	logger := r.logger.With(zap.String("userID", c.userID), zap.String("command", msg.Command()))

	var err error
	switch msg.Command() {
	case "start":
		err = r.start(ctx, c)
	case "help":
		r.reply(ctx, c, msgHelp)
	case "cancel":
		r.reply(ctx, c, msgCancelled)
	case "user":
		err = r.user(ctx, c)
	case "connect_drive":
		err = r.connect(ctx, c)
	case "disconnect_drive":
		err = r.disconnect(ctx, c)
	case "fix_spreadsheet":
		err = r.repair(ctx, c)
	case "nuke_user":
		err = r.nuke(ctx, c)
	default:
		r.reply(ctx, c, msgUnknownCommand)
	}

	if err != nil {
		logger.Error("Command failed", zap.Error(err))
		r.reply(ctx, c, msgCommandFail)
	}
	return err
}

func (r *CommandRouter) start(ctx context.Context, c commandContext) error {
	name := tgtransport.FullName(c.msg.From)
	if err := r.commands.Send(ctx, commands.EnsureProfileCommand{
		TelegramID: c.msg.From.ID,
		Name:       name,
		Language:   c.msg.From.LanguageCode,
	}); err != nil {
		return err
	}
	r.reply(ctx, c, fmt.Sprintf(msgWelcome, c.msg.From.FirstName))
	return nil
}

func (r *CommandRouter) user(ctx context.Context, c commandContext) error {
	summary, err := r.profile(ctx, c.userID)
	if pkgerrors.IsNotFound(err) {
		r.reply(ctx, c, msgNotRegistered)
		return nil
	}
	if err != nil {
		return err
	}

	connection := "Not set up"
	if summary.Connected {
		connection = "Set Successfully!"
	}
	r.reply(ctx, c, fmt.Sprintf(msgUserInfo, summary.UserID, summary.Name, summary.Language, connection))
	return nil
}

func (r *CommandRouter) connect(ctx context.Context, c commandContext) error {
	summary, err := r.profile(ctx, c.userID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}
	if summary != nil && summary.Connected {
		r.reply(ctx, c, msgAlreadyConnected)
		return nil
	}

	link := ""
	if r.auth != nil {
		link = r.auth.AuthCodeURL(c.userID)
	}
	if link == "" {
		r.reply(ctx, c, msgConnectUnavailable)
		return nil
	}
	r.reply(ctx, c, fmt.Sprintf(msgConnectDrive, link))
	return nil
}

func (r *CommandRouter) disconnect(ctx context.Context, c commandContext) error {
	summary, err := r.profile(ctx, c.userID)
	if pkgerrors.IsNotFound(err) || (err == nil && !summary.Connected) {
		r.reply(ctx, c, msgNoConnection)
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.commands.Send(ctx, commands.DisconnectStorageCommand{UserID: c.userID}); err != nil {
		return err
	}
	r.reply(ctx, c, msgDisconnected)
	return nil
}

func (r *CommandRouter) repair(ctx context.Context, c commandContext) error {
	status, _ := r.messenger.Reply(ctx, c.msg.Chat.ID, c.msg.MessageID, msgFixing)
	show := func(text string) {
		if status.IsZero() {
			r.reply(ctx, c, text)
			return
		}
		if err := r.messenger.Edit(ctx, status, text); err != nil {
			r.logger.Warn("Failed to edit status message", zap.Error(err))
		}
	}

	err := r.commands.Send(ctx, commands.RepairResourcesCommand{UserID: c.userID})
	switch {
	case pkgerrors.IsNotConnected(err):
		show(msgNeedConnection)
		return nil
	case pkgerrors.IsRecoveryFailed(err):
		r.logger.Warn("Repair failed", zap.String("userID", c.userID), zap.Error(err))
		show(msgFixFailed)
		return nil
	case err != nil:
		return err
	}

	summary, err := r.profile(ctx, c.userID)
	if err != nil {
		return err
	}
	show(fmt.Sprintf(msgFixed, summary.FolderURL, summary.LedgerURL))
	return nil
}

func (r *CommandRouter) nuke(ctx context.Context, c commandContext) error {
	if _, err := r.profile(ctx, c.userID); pkgerrors.IsNotFound(err) {
		r.reply(ctx, c, msgNoAccount)
		return nil
	} else if err != nil {
		return err
	}

	if c.args != "CONFIRM" {
		r.reply(ctx, c, msgNukeWarning)
		return nil
	}
	if err := r.commands.Send(ctx, commands.DeleteProfileCommand{UserID: c.userID}); err != nil {
		return err
	}
	r.logger.Info("Profile deleted on request", zap.String("userID", c.userID))
	r.reply(ctx, c, msgNuked)
	return nil
}

func (r *CommandRouter) profile(ctx context.Context, userID string) (*queries.ProfileSummary, error) {
	result, err := r.queries.Ask(ctx, queries.GetProfileQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	summary, ok := result.(*queries.ProfileSummary)
	if !ok {
		return nil, fmt.Errorf("unexpected profile result %T", result)
	}
	return summary, nil
}

func (r *CommandRouter) reply(ctx context.Context, c commandContext, text string) {
	if _, err := r.messenger.Reply(ctx, c.msg.Chat.ID, c.msg.MessageID, text); err != nil {
		r.logger.Warn("Failed to send reply", zap.Int64("chatID", c.msg.Chat.ID), zap.Error(err))
	}
}
