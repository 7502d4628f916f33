package di

import (
	"net/http"

	"bettersaved/application/commands/bus"
	"bettersaved/application/ports"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/application/services"
	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/google"
	"bettersaved/infrastructure/scheduling"
	tgtransport "bettersaved/infrastructure/telegram"
	tginterface "bettersaved/interfaces/telegram"
	"bettersaved/pkg/auth"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Container holds every dependency of the bot process
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Profiles   ports.ProfileRepository
	Bot        *tgbotapi.BotAPI
	Messenger  *tgtransport.Messenger
	Scheduler  *scheduling.TimerScheduler
	Workspaces *google.WorkspaceFactory
	Ingestion  *services.IngestionService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Dispatcher *tginterface.Dispatcher
	Tokens     *auth.TokenManager
	Handler    http.Handler
}

// AdminContainer holds what the operator CLI needs. It never contacts the Bot API.
type AdminContainer struct {
	Config     *config.Config
	Logger     *zap.Logger
	Profiles   ports.ProfileRepository
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Tokens     *auth.TokenManager
}
