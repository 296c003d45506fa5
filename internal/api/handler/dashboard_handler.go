package handler

import (
	"net/http"

	"challengearena/internal/api/middleware"
	"challengearena/internal/app/service"
	"challengearena/internal/common"
	"challengearena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	profileService   *service.ProfileService
}

func NewDashboardHandler(dashboardService *service.DashboardService, profileService *service.ProfileService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, profileService: profileService}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.With(middleware.ParticipantOnly).Get("/dashboard/participant", h.participant)
	r.With(middleware.CompanyOnly).Get("/dashboard/company", h.company)
	r.With(middleware.CompanyOnly).Get("/company/candidates", h.candidates)
}

func (h *DashboardHandler) participant(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	dashboard, err := h.dashboardService.Participant(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) company(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	dashboard, err := h.dashboardService.Company(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) candidates(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	candidates, err := h.dashboardService.Candidates(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, candidates)
}

func (h *DashboardHandler) actor(r *http.Request) (*model.Profile, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil, common.ErrUnauthorized
	}
	return h.profileService.Me(r.Context(), userID)
}
