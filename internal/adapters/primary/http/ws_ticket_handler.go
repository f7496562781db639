package http

import (
	"log/slog"
	"net/http"

	mw "github.com/mineboard/mineboard-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// WSTicketHandler mints socket tickets for authenticated users. The ticket
// bridges the JWT-authenticated HTTP world and the anonymous socket upgrade:
// the client requests one here and presents it on the upgrade request.
type WSTicketHandler struct {
	tickets      ports.TicketService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewWSTicketHandler creates a new ticket handler.
func NewWSTicketHandler(tickets ports.TicketService, eh *ErrorHandler, logger *slog.Logger) *WSTicketHandler {
	return &WSTicketHandler{
		tickets:      tickets,
		errorHandler: eh,
		logger:       logger,
	}
}

type ticketData struct {
	Token string `json:"token"`
}

// HandleIssue mints a single-use ticket bound to the caller.
func (h *WSTicketHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetUserClaims(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	ticket, err := h.tickets.Issue(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	WriteSuccess(w, ticketData{Token: ticket.Token})
}
