package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/reviews/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

// MaxUploadBytes bounds a single screenshot upload.
const MaxUploadBytes = 20 << 20

type operation string

const (
	listOperation    operation = "listReviews"
	addTextOperation operation = "addTextReview"
	uploadOperation  operation = "uploadReviewScreenshot"
	deleteOperation  operation = "deleteReview"
	moveOperation    operation = "moveReview"
)

// Handler exposes the reviews service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("reviews service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the JSON review endpoints on r, which is mounted at /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/profiles/{profileId}/reviews", h.List)
	r.Post("/profiles/{profileId}/reviews", h.AddText)
	r.Delete("/profiles/{profileId}/reviews/{itemId}", h.Delete)
	r.Post("/profiles/{profileId}/reviews/{itemId}/move", h.Move)
}

// UploadRoutes registers the multipart screenshot endpoint.
func (h *Handler) UploadRoutes(r chi.Router) {
	r.Post("/profiles/{profileId}/reviews/uploads", h.UploadScreenshot)
}

type reviewBody struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	Source     *string   `json:"source,omitempty"`
	Name       *string   `json:"name,omitempty"`
	Event      *string   `json:"event,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
	Quote      *string   `json:"quote,omitempty"`
	OrderIndex int       `json:"orderIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}

type reviewListBody struct {
	Items []reviewBody `json:"items"`
}

type textReviewBody struct {
	Name   *string `json:"name,omitempty"`
	Event  *string `json:"event,omitempty"`
	Rating *int    `json:"rating,omitempty"`
	Quote  *string `json:"quote,omitempty"`
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
	reviews, err := h.svc.List(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toReviewList(reviews))
}

func (h *Handler) AddText(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body textReviewBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	review, err := h.svc.AddText(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, service.TextInput{
		Name:   body.Name,
		Event:  body.Event,
		Rating: body.Rating,
		Quote:  body.Quote,
	})
	if err != nil {
		h.writeError(w, r, err, addTextOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toReviewBody(review))
}

func (h *Handler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
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

	ctx := r.Context()
	review, err := h.svc.UploadScreenshot(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, service.ScreenshotInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err, uploadOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toReviewBody(review))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, reviewID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.svc.Delete(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, reviewID); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	profileID, reviewID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var body moveBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	reviews, err := h.svc.Move(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, reviewID, body.Direction)
	if err != nil {
		h.writeError(w, r, err, moveOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toReviewList(reviews))
}

func pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	reviewID, err := httpapi.PathUUID(r, "itemId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return profileID, reviewID, true
}

func toReviewList(reviews []service.Review) reviewListBody {
	out := make([]reviewBody, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, toReviewBody(review))
	}
	return reviewListBody{Items: out}
}

func toReviewBody(review service.Review) reviewBody {
	return reviewBody{
		ID:         review.ID.String(),
		Kind:       review.Kind,
		ImageURL:   review.ImageURL,
		Source:     review.Source,
		Name:       review.Name,
		Event:      review.Event,
		Rating:     review.Rating,
		Quote:      review.Quote,
		OrderIndex: review.OrderIndex,
		CreatedAt:  review.CreatedAt,
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
		logger.Error("reviews operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("review not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("reviews request rejected", append(fieldsForLog, zap.Error(err))...)
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
		return http.StatusNotFound, "Resource not found", "review not found", httpapi.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
