package handler

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/leads/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type operation string

const (
	submitOperation  operation = "submitLead"
	listOperation    operation = "listLeads"
	getOperation     operation = "getLead"
	statusOperation  operation = "updateLeadStatus"
	contactOperation operation = "getLeadContactLinks"
	exportOperation  operation = "exportLeads"
)

// maxFormBody bounds public form submissions.
const maxFormBody = 64 << 10

// Handler exposes the lead inbox and the public intake endpoint over HTTP.
type Handler struct {
	svc           service.Service
	logger        *zap.Logger
	publicBaseURL string
}

// New constructs a Handler. publicBaseURL is where visitors land after a
// submission; an empty value redirects relative to the API host.
func New(svc service.Service, logger *zap.Logger, publicBaseURL string) *Handler {
	if svc == nil {
		panic("leads service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Routes registers the inbox endpoints on r, which is mounted at /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/profiles/{profileId}/leads", h.List)
	r.Get("/profiles/{profileId}/leads-export", h.Export)
	r.Get("/profiles/{profileId}/leads/{leadId}", h.Get)
	r.Put("/profiles/{profileId}/leads/{leadId}/status", h.UpdateStatus)
	r.Get("/profiles/{profileId}/leads/{leadId}/contact", h.Contact)
}

// PublicRoutes registers the intake endpoint on r, which is mounted at
// /api/v1/public. middlewares wrap only the intake route.
func (h *Handler) PublicRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/leads", h.Submit)
}

type leadBody struct {
	ID          string                     `json:"id"`
	Status      string                     `json:"status"`
	FormData    map[string]string          `json:"formData"`
	Values      []formschema.LabelledValue `json:"values"`
	Phone       *string                    `json:"phone,omitempty"`
	Email       *string                    `json:"email,omitempty"`
	ContactedAt *time.Time                 `json:"contactedAt,omitempty"`
	BookedAt    *time.Time                 `json:"bookedAt,omitempty"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

type leadListBody struct {
	Items []leadBody `json:"items"`
}

type statusBody struct {
	Status string `json:"status"`
}

type contactBody struct {
	WhatsApp *string `json:"whatsapp,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Submit accepts the public form post. Unknown or inactive profiles are
// redirected to the site root without a trace of the failure.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		httpapi.BadRequest(w, fmt.Sprintf("invalid form body: %v", err))
		return
	}

	ctx := r.Context()
	result, err := h.svc.Submit(ctx, requesttrace.FromContextOrAnonymous(ctx), r.PostForm)
	if err != nil {
		h.writeError(w, r, err, submitOperation)
		return
	}

	logger := h.loggerFrom(ctx)
	if !result.Accepted {
		logger.Info("lead submission ignored", zap.String("slug", result.Slug))
		http.Redirect(w, r, h.publicURL("/", nil), http.StatusSeeOther)
		return
	}

	logger.Info("lead submitted", zap.String("slug", result.Slug), zap.String("lead_id", result.LeadID.String()))
	http.Redirect(w, r, h.publicURL("/thank-you", url.Values{"slug": {result.Slug}}), http.StatusSeeOther)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	status, err := httpapi.QueryString(r, "status")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	leads, err := h.svc.List(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, status)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]leadBody, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadBody(lead))
	}
	httpapi.WriteJSON(w, http.StatusOK, leadListBody{Items: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, leadID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	lead, err := h.svc.Get(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, leadID)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toLeadBody(lead))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	profileID, leadID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body statusBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	lead, err := h.svc.UpdateStatus(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, leadID, body.Status)
	if err != nil {
		h.writeError(w, r, err, statusOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toLeadBody(lead))
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	profileID, leadID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	links, err := h.svc.ContactLinks(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, leadID)
	if err != nil {
		h.writeError(w, r, err, contactOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, contactBody{WhatsApp: links.WhatsApp, Phone: links.Phone, Email: links.Email})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	format, err := httpapi.QueryString(r, "format")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	status, err := httpapi.QueryString(r, "status")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	requested := service.FormatCSV
	if format != nil {
		requested = *format
	}

	ctx := r.Context()
	export, err := h.svc.Export(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, requested, status)
	if err != nil {
		h.writeError(w, r, err, exportOperation)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

func (h *Handler) publicURL(path string, query url.Values) string {
	target := h.publicBaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	leadID, err := httpapi.PathUUID(r, "leadId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return profileID, leadID, true
}

func toLeadBody(lead service.Lead) leadBody {
	data := map[string]string(lead.FormData)
	if data == nil {
		data = map[string]string{}
	}
	values := lead.Values
	if values == nil {
		values = []formschema.LabelledValue{}
	}
	return leadBody{
		ID:          lead.ID.String(),
		Status:      lead.Status,
		FormData:    data,
		Values:      values,
		Phone:       lead.Phone,
		Email:       lead.Email,
		ContactedAt: lead.ContactedAt,
		BookedAt:    lead.BookedAt,
		CreatedAt:   lead.CreatedAt,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	httpapi.WriteProblem(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) httpapi.ProblemDetails {
	status, title, detail, problemType, fields := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("leads operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("lead not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("leads request rejected", append(fieldsForLog, zap.Error(err))...)
	}

	return httpapi.NewProblem(title, detail, problemType, status, fields)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed", "one or more fields are invalid", httpapi.ProblemTypeValidation, validationErr.Fields
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", "authentication required", httpapi.ProblemTypeUnauthorized, nil
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden", "forbidden", httpapi.ProblemTypeForbidden, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "lead not found", httpapi.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
