package handler

import (
	"encoding/json"
	"net/http"

	"challengearena/internal/app/service"
	"challengearena/internal/common"
	"challengearena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// WebhookHandler receives the external scorer's callback.
type WebhookHandler struct {
	evaluationService *service.EvaluationService
}

func NewWebhookHandler(evaluationService *service.EvaluationService) *WebhookHandler {
	return &WebhookHandler{evaluationService: evaluationService}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/evaluation", h.evaluationResult)
}

type EvaluationWebhookRequest struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"` // reviewed | rejected
	Score    *int    `json:"score"`
	Feedback *string `json:"feedback"`
}

func (h *WebhookHandler) evaluationResult(w http.ResponseWriter, r *http.Request) {
	var req EvaluationWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if req.JobID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	err := h.evaluationService.ApplyResult(r.Context(), req.JobID, service.EvaluationResult{
		Status:   model.SubmissionStatus(req.Status),
		Score:    req.Score,
		Feedback: req.Feedback,
	})
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
