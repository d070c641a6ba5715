package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/gallery/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

// MaxUploadBytes bounds a single gallery upload.
const MaxUploadBytes = 100 << 20

type operation string

const (
	listOperation       operation = "listGallery"
	addYouTubeOperation operation = "addGalleryYouTube"
	uploadOperation     operation = "uploadGalleryMedia"
	deleteOperation     operation = "deleteGalleryItem"
	moveOperation       operation = "moveGalleryItem"
)

// Handler exposes the gallery service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("gallery service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the JSON gallery endpoints on r, which is mounted at /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/profiles/{profileId}/gallery", h.List)
	r.Post("/profiles/{profileId}/gallery/youtube", h.AddYouTube)
	r.Delete("/profiles/{profileId}/gallery/{itemId}", h.Delete)
	r.Post("/profiles/{profileId}/gallery/{itemId}/move", h.Move)
}

// UploadRoutes registers the multipart upload endpoint. It is kept apart
// because request validation only covers JSON bodies.
func (h *Handler) UploadRoutes(r chi.Router) {
	r.Post("/profiles/{profileId}/gallery/uploads", h.Upload)
}

type itemBody struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Title        *string   `json:"title,omitempty"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	OrderIndex   int       `json:"orderIndex"`
	CreatedAt    time.Time `json:"createdAt"`
}

type itemListBody struct {
	Items []itemBody `json:"items"`
}

type youTubeBody struct {
	URL   string  `json:"url"`
	Title *string `json:"title,omitempty"`
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
	items, err := h.svc.List(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toItemList(items))
}

func (h *Handler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body youTubeBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	item, err := h.svc.AddYouTube(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, body.URL, body.Title)
	if err != nil {
		h.writeError(w, r, err, addYouTubeOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toItemBody(item))
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpapi.BadRequest(w, "expected a multipart form with a file field")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpapi.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	var title *string
	if values := r.MultipartForm.Value["title"]; len(values) > 0 {
		title = &values[0]
	}

	ctx := r.Context()
	item, err := h.svc.Upload(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Title:       title,
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err, uploadOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toItemBody(item))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, itemID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.svc.Delete(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, itemID); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	profileID, itemID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var body moveBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	items, err := h.svc.Move(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, itemID, body.Direction)
	if err != nil {
		h.writeError(w, r, err, moveOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toItemList(items))
}

func pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := httpapi.PathUUID(r, "itemId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return profileID, itemID, true
}

func toItemList(items []service.Item) itemListBody {
	out := make([]itemBody, 0, len(items))
	for _, item := range items {
		out = append(out, toItemBody(item))
	}
	return itemListBody{Items: out}
}

func toItemBody(item service.Item) itemBody {
	return itemBody{
		ID:           item.ID.String(),
		Kind:         item.Kind,
		Title:        item.Title,
		URL:          item.URL,
		ThumbnailURL: item.ThumbnailURL,
		OrderIndex:   item.OrderIndex,
		CreatedAt:    item.CreatedAt,
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
		logger.Error("gallery operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("gallery item not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("gallery request rejected", append(fieldsForLog, zap.Error(err))...)
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
		return http.StatusNotFound, "Resource not found", "gallery item not found", httpapi.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
