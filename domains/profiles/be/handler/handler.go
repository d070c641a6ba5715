package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/profiles/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type operation string

const (
	getSettingsOperation    operation = "getPlatformSettings"
	updateSettingsOperation operation = "updatePlatformSettings"
	listMineOperation       operation = "listMyProfiles"
	createOperation         operation = "createProfile"
	getOperation            operation = "getProfile"
	updateOperation         operation = "updateProfile"
	adminListOperation      operation = "adminListProfiles"
	approveOperation        operation = "approveProfile"
	rejectOperation         operation = "rejectProfile"
)

// Handler exposes the profiles service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("profiles service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the profile endpoints on r, which is mounted at /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Get("/profiles", h.ListMine)
	r.Post("/profiles", h.Create)
	r.Get("/profiles/{profileId}", h.Get)
	r.Patch("/profiles/{profileId}", h.Update)
	r.Get("/admin/profiles", h.AdminList)
	r.Post("/admin/profiles/{profileId}/approve", h.Approve)
	r.Post("/admin/profiles/{profileId}/reject", h.Reject)
}

type settingsBody struct {
	ProfileCreationMode string    `json:"profileCreationMode"`
	RequireApproval     bool      `json:"requireApproval"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type settingsUpdateBody struct {
	ProfileCreationMode *string `json:"profileCreationMode,omitempty"`
	RequireApproval     *bool   `json:"requireApproval,omitempty"`
}

type profileBody struct {
	ID                 string     `json:"id"`
	Slug               string     `json:"slug"`
	DisplayName        string     `json:"displayName"`
	Status             string     `json:"status"`
	Theme              string     `json:"theme"`
	AccentColor        string     `json:"accentColor"`
	HeroHeadline       *string    `json:"heroHeadline,omitempty"`
	HeroSubtext        *string    `json:"heroSubtext,omitempty"`
	WhatsAppNumber     *string    `json:"whatsappNumber,omitempty"`
	NotificationEmails []string   `json:"notificationEmails"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	ApprovedAt         *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy         *string    `json:"approvedBy,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type profileListBody struct {
	Items []profileBody `json:"items"`
}

type createBody struct {
	Slug               string  `json:"slug"`
	DisplayName        string  `json:"displayName"`
	WhatsAppNumber     *string `json:"whatsappNumber,omitempty"`
	NotificationEmails *string `json:"notificationEmails,omitempty"`
}

type updateBody struct {
	DisplayName        *string `json:"displayName,omitempty"`
	Theme              *string `json:"theme,omitempty"`
	AccentColor        *string `json:"accentColor,omitempty"`
	HeroHeadline       *string `json:"heroHeadline,omitempty"`
	HeroSubtext        *string `json:"heroSubtext,omitempty"`
	WhatsAppNumber     *string `json:"whatsappNumber,omitempty"`
	NotificationEmails *string `json:"notificationEmails,omitempty"`
}

type rejectBody struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.svc.GetSettings(ctx, requesttrace.FromContextOrAnonymous(ctx))
	if err != nil {
		h.writeError(w, r, err, getSettingsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toSettingsBody(settings))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsUpdateBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	settings, err := h.svc.UpdateSettings(ctx, requesttrace.FromContextOrAnonymous(ctx), service.SettingsInput{
		ProfileCreationMode: body.ProfileCreationMode,
		RequireApproval:     body.RequireApproval,
	})
	if err != nil {
		h.writeError(w, r, err, updateSettingsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toSettingsBody(settings))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := h.svc.ListMine(ctx, requesttrace.FromContextOrAnonymous(ctx))
	if err != nil {
		h.writeError(w, r, err, listMineOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileList(profiles))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	created, err := h.svc.Create(ctx, requesttrace.FromContextOrAnonymous(ctx), service.CreateInput{
		Slug:               body.Slug,
		DisplayName:        body.DisplayName,
		WhatsAppNumber:     body.WhatsAppNumber,
		NotificationEmails: body.NotificationEmails,
	})
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/profiles/%s", created.ID))
	httpapi.WriteJSON(w, http.StatusCreated, toProfileBody(created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	profile, err := h.svc.Get(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileBody(profile))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body updateBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	updated, err := h.svc.Update(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, service.UpdateInput{
		DisplayName:        body.DisplayName,
		Theme:              body.Theme,
		AccentColor:        body.AccentColor,
		HeroHeadline:       body.HeroHeadline,
		HeroSubtext:        body.HeroSubtext,
		WhatsAppNumber:     body.WhatsAppNumber,
		NotificationEmails: body.NotificationEmails,
	})
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileBody(updated))
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	status, err := httpapi.QueryString(r, "status")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	profiles, err := h.svc.AdminList(ctx, requesttrace.FromContextOrAnonymous(ctx), status)
	if err != nil {
		h.writeError(w, r, err, adminListOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileList(profiles))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	profile, err := h.svc.Approve(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID)
	if err != nil {
		h.writeError(w, r, err, approveOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileBody(profile))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	profileID, err := httpapi.PathUUID(r, "profileId")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body rejectBody
	if r.ContentLength != 0 {
		if err := httpapi.DecodeJSON(r, &body); err != nil {
			httpapi.BadRequest(w, err.Error())
			return
		}
	}

	ctx := r.Context()
	profile, err := h.svc.Reject(ctx, requesttrace.FromContextOrAnonymous(ctx), profileID, body.Reason)
	if err != nil {
		h.writeError(w, r, err, rejectOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProfileBody(profile))
}

func toSettingsBody(settings service.Settings) settingsBody {
	return settingsBody{
		ProfileCreationMode: settings.ProfileCreationMode,
		RequireApproval:     settings.RequireApproval,
		UpdatedAt:           settings.UpdatedAt,
	}
}

func toProfileList(profiles []service.Profile) profileListBody {
	items := make([]profileBody, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toProfileBody(p))
	}
	return profileListBody{Items: items}
}

func toProfileBody(p service.Profile) profileBody {
	return profileBody{
		ID:                 p.ID.String(),
		Slug:               p.Slug,
		DisplayName:        p.DisplayName,
		Status:             p.Status,
		Theme:              p.Theme,
		AccentColor:        p.AccentColor,
		HeroHeadline:       p.HeroHeadline,
		HeroSubtext:        p.HeroSubtext,
		WhatsAppNumber:     p.WhatsAppNumber,
		NotificationEmails: p.NotificationEmails,
		RejectionReason:    p.RejectionReason,
		ApprovedAt:         p.ApprovedAt,
		ApprovedBy:         p.ApprovedBy,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
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
		logger.Error("profiles operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("profiles resource not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("profiles request rejected", append(fieldsForLog, zap.Error(err))...)
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
	case errors.Is(err, service.ErrCreationAdminOnly):
		return http.StatusForbidden, "Forbidden", "Profile creation is currently admin-only.", httpapi.ProblemTypeForbidden, nil
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden", "forbidden", httpapi.ProblemTypeForbidden, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "profile not found", httpapi.ProblemTypeNotFound, nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict", "slug is already taken", httpapi.ProblemTypeConflict, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpapi.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
