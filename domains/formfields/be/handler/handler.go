package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/formfields/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type operation string

const (
	listOperation   operation = "listFormFields"
	addOperation    operation = "addFormField"
	updateOperation operation = "updateFormField"
	deleteOperation operation = "deleteFormField"
	moveOperation   operation = "moveFormField"
)

// Handler exposes the form schema editor over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("form fields service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the form field endpoints on r, which is mounted at /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/profiles/{profileId}/form-fields", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Patch("/{fieldId}", h.Update)
		r.Delete("/{fieldId}", h.Delete)
		r.Post("/{fieldId}/move", h.Move)
	})
}

type fieldBody struct {
	ID         string   `json:"id"`
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	Options    []string `json:"options"`
	OrderIndex int      `json:"orderIndex"`
	Protected  bool     `json:"protected"`
}

type fieldListBody struct {
	Items []fieldBody `json:"items"`
}

type schemaBody struct {
	Items    []fieldBody             `json:"items"`
	Rendered []formschema.Descriptor `json:"rendered"`
}

type createBody struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Options  string `json:"options,omitempty"`
}

type updateBody struct {
	Label    *string `json:"label,omitempty"`
	Type     *string `json:"type,omitempty"`
	Required *bool   `json:"required,omitempty"`
	Options  *string `json:"options,omitempty"`
}

type moveBody struct {
	Direction string `json:"direction"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	schema, err := h.svc.List(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, schemaBody{Items: toFieldBodies(schema.Fields), Rendered: schema.Rendered})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body createBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	field, err := h.svc.Add(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, service.AddInput{
		Label:    body.Label,
		Type:     body.Type,
		Required: body.Required,
		Options:  body.Options,
	})
	if err != nil {
		h.writeError(w, r, err, addOperation)
		return
	}
	if field == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toFieldBody(*field))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	profileID, fieldID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body updateBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	field, err := h.svc.Update(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, fieldID, service.UpdateInput{
		Label:    body.Label,
		Type:     body.Type,
		Required: body.Required,
		Options:  body.Options,
	})
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toFieldBody(field))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, fieldID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.svc.Delete(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, fieldID); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	profileID, fieldID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body moveBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	fields, err := h.svc.Move(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, fieldID, body.Direction)
	if err != nil {
		h.writeError(w, r, err, moveOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, fieldListBody{Items: toFieldBodies(fields)})
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	fieldID, err := httpapi.PathUUID(r, "fieldId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return profileID, fieldID, true
}

func toFieldBodies(fields []formschema.Field) []fieldBody {
	items := make([]fieldBody, 0, len(fields))
	for _, f := range fields {
		items = append(items, toFieldBody(f))
	}
	return items
}

func toFieldBody(f formschema.Field) fieldBody {
	options := f.Options
	if options == nil {
		options = []string{}
	}
	return fieldBody{
		ID:         f.ID.String(),
		Key:        f.Key,
		Label:      f.Label,
		Type:       string(f.Type),
		Required:   f.Required,
		Options:    options,
		OrderIndex: f.OrderIndex,
		Protected:  f.Protected(),
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
		logger.Error("form fields operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("form field not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("form fields request rejected", append(fieldsForLog, zap.Error(err))...)
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
		return http.StatusNotFound, "Resource not found", "form field not found", httpapi.ProblemTypeNotFound, nil
	case errors.Is(err, service.ErrLocked):
		return http.StatusConflict, "Conflict", err.Error(), httpapi.ProblemTypeConflict, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
