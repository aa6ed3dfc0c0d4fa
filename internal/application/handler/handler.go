package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/platform/httputil"
	"memberpanel/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the application operations exposed over HTTP.
type Service interface {
	CreateApplication(ctx context.Context, req *models.CreateApplicationRequest) (*models.Application, error)
	ApproveApplication(ctx context.Context, req *models.ApproveApplicationRequest) (*models.Application, error)
	RejectApplication(ctx context.Context, req *models.RejectApplicationRequest) (*models.Application, error)
	FindAll(ctx context.Context, status *models.Status) ([]*models.Application, error)
	FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	ListScopes(ctx context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error)
}

// Handler wires panel application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the panel application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/panel-applications", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/approve", h.HandleApprove)
		r.Post("/{id}/reject", h.HandleReject)
	})
}

// HandleCreate handles POST /admin/panel-applications.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateApplicationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.CreateApplication(ctx, req.toModel(actor))
	if err != nil {
		h.logFailure(ctx, "create application failed", requestID, err, "member_id", req.MemberID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application created",
		"request_id", requestID,
		"application_id", app.ID(),
		"member_id", app.MemberID(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// HandleList handles GET /admin/panel-applications with an optional status filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := h.requireActor(w, ctx); !ok {
		return
	}

	var filter *models.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter = &status
	}

	apps, err := h.service.FindAll(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "list applications failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	resp := &ListApplicationsResponse{
		Applications: make([]*ApplicationResponse, 0, len(apps)),
		Count:        len(apps),
	}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, toApplicationResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /admin/panel-applications/{id}; the response carries the active scopes.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := h.requireActor(w, ctx); !ok {
		return
	}
	applicationID, ok := applicationIDParam(w, r)
	if !ok {
		return
	}

	app, err := h.service.FindByID(ctx, applicationID)
	if err != nil {
		h.logFailure(ctx, "get application failed", requestID, err, "application_id", applicationID)
		httputil.WriteError(w, err)
		return
	}
	scopes, err := h.service.ListScopes(ctx, applicationID)
	if err != nil {
		h.logFailure(ctx, "list application scopes failed", requestID, err, "application_id", applicationID)
		httputil.WriteError(w, err)
		return
	}

	resp := toApplicationResponse(app)
	resp.Scopes = toScopeResponses(scopes)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleApprove handles POST /admin/panel-applications/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	applicationID, ok := applicationIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApproveApplicationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.ApproveApplication(ctx, req.toModel(applicationID, actor))
	if err != nil {
		h.logFailure(ctx, "approve application failed", requestID, err, "application_id", applicationID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application approved",
		"request_id", requestID,
		"application_id", applicationID,
		"reviewed_by", actor,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// HandleReject handles POST /admin/panel-applications/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	applicationID, ok := applicationIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectApplicationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.RejectApplication(ctx, req.toModel(applicationID, actor))
	if err != nil {
		h.logFailure(ctx, "reject application failed", requestID, err, "application_id", applicationID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application rejected",
		"request_id", requestID,
		"application_id", applicationID,
		"reviewed_by", actor,
	)
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) requireActor(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return actor, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error, attrs ...any) {
	args := append([]any{"request_id", requestID, "error", err}, attrs...)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}

func applicationIDParam(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return applicationID, true
}
