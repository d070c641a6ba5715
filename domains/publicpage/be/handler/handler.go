package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/publicpage/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
)

type operation string

const (
	getOperation      operation = "getPublicPage"
	whatsappOperation operation = "whatsappRedirect"
)

// Handler serves the unauthenticated public page endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("public page service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the endpoints on r, which is mounted at /api/v1/public.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/pages/{slug}", h.Get)
	r.Get("/whatsapp", h.WhatsApp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	slug, err := httpapi.QueryString(r, "slug")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	if slug == nil {
		httpapi.BadRequest(w, "slug is required")
		return
	}

	link, err := h.svc.WhatsAppURL(r.Context(), *slug)
	if err != nil {
		h.writeError(w, r, err, whatsappOperation)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	httpapi.WriteProblem(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) httpapi.ProblemDetails {
	logger := platformlogging.FromContextOr(ctx, h.logger)
	fields := []zap.Field{zap.String("operation", string(op)), zap.Error(err)}

	switch {
	case errors.Is(err, service.ErrNotFound):
		logger.Info("public page not found", fields...)
		return httpapi.NewProblem("Resource not found", "page not found", httpapi.ProblemTypeNotFound, http.StatusNotFound, nil)
	case errors.Is(err, service.ErrNoWhatsApp):
		logger.Info("whatsapp not configured", fields...)
		return httpapi.NewProblem("Resource not found", err.Error(), httpapi.ProblemTypeNotFound, http.StatusNotFound, nil)
	default:
		logger.Error("public page operation failed", fields...)
		return httpapi.NewProblem("Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, http.StatusInternalServerError, nil)
	}
}
