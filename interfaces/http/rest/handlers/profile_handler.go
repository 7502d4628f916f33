package handlers

import (
	"context"
	"errors"
	"net/http"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/pkg/auth"
	"bettersaved/pkg/common"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// CommandSender dispatches commands
type CommandSender interface {
	Send(ctx context.Context, cmd bus.Command) error
}

// QueryAsker answers queries
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// ProfileHandler serves the operator API over chat user profiles
type ProfileHandler struct {
	commands CommandSender
	queries  QueryAsker
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(commands CommandSender, queries QueryAsker, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		commands: commands,
		queries:  queries,
		errs:     errs,
		logger:   logger,
	}
}

// ConnectRequest carries a storage credential obtained by the OAuth callback
type ConnectRequest struct {
	Credential string `json:"credential"`
}

// GetProfile handles GET /profiles/{userID}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	result, err := h.queries.Ask(r.Context(), queries.GetProfileQuery{UserID: chi.URLParam(r, "userID")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}

// ConnectStorage handles PUT /profiles/{userID}/credential
func (h *ProfileHandler) ConnectStorage(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		h.errs.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID := chi.URLParam(r, "userID")
	h.audit(r, "connect_storage", userID)
	if err := h.commands.Send(r.Context(), commands.ConnectStorageCommand{
		UserID:     userID,
		Credential: req.Credential,
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondProfile(w, r, userID)
}

// DisconnectStorage handles DELETE /profiles/{userID}/credential
func (h *ProfileHandler) DisconnectStorage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.audit(r, "disconnect_storage", userID)
	if err := h.commands.Send(r.Context(), commands.DisconnectStorageCommand{UserID: userID}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RepairResources handles POST /profiles/{userID}/repair
func (h *ProfileHandler) RepairResources(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.audit(r, "repair_resources", userID)
	if err := h.commands.Send(r.Context(), commands.RepairResourcesCommand{UserID: userID}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondProfile(w, r, userID)
}

// DeleteProfile handles DELETE /profiles/{userID}
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.audit(r, "delete_profile", userID)
	if err := h.commands.Send(r.Context(), commands.DeleteProfileCommand{UserID: userID}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) respondProfile(w http.ResponseWriter, r *http.Request, userID string) {
	result, err := h.queries.Ask(r.Context(), queries.GetProfileQuery{UserID: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}

func (h *ProfileHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, bus.ErrValidationFailed) {
		h.errs.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.errs.Handle(w, r, err)
}

func (h *ProfileHandler) audit(r *http.Request, action, userID string) {
	operator := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		operator = claims.Operator
	}
	h.logger.Info("Operator action",
		zap.String("action", action),
		zap.String("userID", userID),
		zap.String("operator", operator),
	)
}
