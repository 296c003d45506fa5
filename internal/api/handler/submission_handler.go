package handler

import (
	"encoding/json"
	"net/http"

	"challengearena/internal/api/middleware"
	"challengearena/internal/app/service"
	"challengearena/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	evaluationService *service.EvaluationService
	profileService    *service.ProfileService
}

func NewSubmissionHandler(
	submissionService *service.SubmissionService,
	evaluationService *service.EvaluationService,
	profileService *service.ProfileService,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		evaluationService: evaluationService,
		profileService:    profileService,
	}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.With(middleware.ParticipantOnly).Get("/me", h.listMine)
	r.With(middleware.CompanyOnly).Patch("/{submissionID}/review", h.review)
}

func (h *SubmissionHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	submissions, err := h.submissionService.ListMine(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	actor, err := h.profileService.Me(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	var req service.ManualReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	submission, err := h.evaluationService.ManualReview(r.Context(), actor, chi.URLParam(r, "submissionID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}
