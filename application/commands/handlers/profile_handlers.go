package handlers

import (
	"context"
	"fmt"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/ports"
	"bettersaved/application/services"
	"bettersaved/domain/core/entities"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

// ProfileHandlers handles the profile lifecycle commands
type ProfileHandlers struct {
	profiles ports.ProfileRepository
	resolver *services.ResourceResolver
	clock    ports.Clock
	logger   *zap.Logger
}

// NewProfileHandlers creates the profile command handlers
func NewProfileHandlers(
	profiles ports.ProfileRepository,
	resolver *services.ResourceResolver,
	clock ports.Clock,
	logger *zap.Logger,
) *ProfileHandlers {
	return &ProfileHandlers{
		profiles: profiles,
		resolver: resolver,
		clock:    clock,
		logger:   logger,
	}
}

// RegisterAll registers every profile command on the bus
func (h *ProfileHandlers) RegisterAll(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.EnsureProfileCommand{}, h.handleEnsureProfile},
		{commands.ConnectStorageCommand{}, h.handleConnectStorage},
		{commands.RepairResourcesCommand{}, h.handleRepairResources},
		{commands.DisconnectStorageCommand{}, h.handleDisconnectStorage},
		{commands.DeleteProfileCommand{}, h.handleDeleteProfile},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *ProfileHandlers) handleEnsureProfile(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.EnsureProfileCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}

	fresh, err := entities.NewProfile(cmd.TelegramID, cmd.Name, cmd.Language, h.clock.Now())
	if err != nil {
		return err
	}

	existing, err := h.profiles.Get(ctx, fresh.UserID)
	switch {
	case pkgerrors.IsNotFound(err):
		h.logger.Info("Creating profile", zap.String("userID", fresh.UserID))
		return h.profiles.Upsert(ctx, fresh)
	case err != nil:
		return err
	}

	if existing.Name == cmd.Name && (cmd.Language == "" || existing.Language == cmd.Language) {
		return nil
	}
	existing.Name = cmd.Name
	if cmd.Language != "" {
		existing.Language = cmd.Language
	}
	existing.UpdatedAt = h.clock.Now()
	return h.profiles.Upsert(ctx, existing)
}

func (h *ProfileHandlers) handleConnectStorage(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.ConnectStorageCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}
	return h.profiles.SetCredential(ctx, cmd.UserID, cmd.Credential)
}

func (h *ProfileHandlers) handleRepairResources(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.RepairResourcesCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}
	session, err := h.resolver.Repair(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	h.logger.Info("Resources repaired",
		zap.String("userID", cmd.UserID),
		zap.String("rootFolderID", session.Resources.RootFolderID),
		zap.String("ledgerID", session.Resources.LedgerID),
	)
	return nil
}

func (h *ProfileHandlers) handleDisconnectStorage(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.DisconnectStorageCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}
	return h.profiles.ClearCredential(ctx, cmd.UserID)
}

func (h *ProfileHandlers) handleDeleteProfile(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.DeleteProfileCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}
	h.logger.Info("Deleting profile", zap.String("userID", cmd.UserID))
	return h.profiles.Delete(ctx, cmd.UserID)
}
