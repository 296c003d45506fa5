package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"challengearena/internal/api/middleware"
	"challengearena/internal/app/service"
	"challengearena/internal/common"
	"challengearena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challengeService     *service.ChallengeService
	participationService *service.ParticipationService
	submissionService    *service.SubmissionService
	leaderboardService   *service.LeaderboardService
	profileService       *service.ProfileService
}

func NewChallengeHandler(
	challengeService *service.ChallengeService,
	participationService *service.ParticipationService,
	submissionService *service.SubmissionService,
	leaderboardService *service.LeaderboardService,
	profileService *service.ProfileService,
) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService:     challengeService,
		participationService: participationService,
		submissionService:    submissionService,
		leaderboardService:   leaderboardService,
		profileService:       profileService,
	}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	// Catalog and leaderboard are public.
	r.Get("/", h.list)
	r.Get("/{challengeID}", h.get)
	r.Get("/{challengeID}/leaderboard", h.leaderboard)

	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Authenticator)

		auth.Group(func(company chi.Router) {
			company.Use(middleware.CompanyOnly)
			company.Post("/", h.create)
			company.Put("/{challengeID}", h.update)
			company.Delete("/{challengeID}", h.delete)
		})

		auth.Group(func(participant chi.Router) {
			participant.Use(middleware.ParticipantOnly)
			participant.Get("/{challengeID}/participation", h.participation)
			participant.Post("/{challengeID}/join", h.join)
			participant.Post("/{challengeID}/submissions", h.submit)
		})
	})
}

func (h *ChallengeHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListChallengesRequest{
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}
	if v := q.Get("featured"); v != "" {
		featured := v == "true"
		req.Featured = &featured
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		req.Offset = v
	}

	resp, err := h.challengeService.List(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) get(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.challengeService.Get(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.Get(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

// actor loads the acting profile for operations that need more than the
// token's role claim (company name, aggregate score).
func (h *ChallengeHandler) actor(r *http.Request) (*model.Profile, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil, common.ErrUnauthorized
	}
	return h.profileService.Me(r.Context(), userID)
}

func (h *ChallengeHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	var req service.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	challenge, err := h.challengeService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	var req service.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	challenge, err := h.challengeService.Update(r.Context(), actor, chi.URLParam(r, "challengeID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if err := h.challengeService.Delete(r.Context(), actor, chi.URLParam(r, "challengeID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// participation tells the client whether the acting user already joined, so
// the UI can swap the join button for the submission form.
func (h *ChallengeHandler) participation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	joined, err := h.participationService.HasJoined(r.Context(), userID, chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"joined": joined})
}

func (h *ChallengeHandler) join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	participation, err := h.participationService.Join(r.Context(), userID, chi.URLParam(r, "challengeID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, participation)
}

func (h *ChallengeHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req service.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	submission, err := h.submissionService.Create(r.Context(), userID, chi.URLParam(r, "challengeID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	// 202: the evaluation finishes asynchronously.
	common.RespondWithJSON(w, http.StatusAccepted, submission)
}
