package api

import (
	"net/http"
	"strings"
	"time"

	"challengearena/internal/api/handler"
	"challengearena/internal/app/service"
	"challengearena/internal/common/security"
	"challengearena/internal/platform/logging"
	"challengearena/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

func NewRouter(
	logger *zap.Logger,
	allowedOrigins string,
	authService *service.AuthService,
	profileService *service.ProfileService,
	challengeService *service.ChallengeService,
	participationService *service.ParticipationService,
	submissionService *service.SubmissionService,
	evaluationService *service.EvaluationService,
	leaderboardService *service.LeaderboardService,
	dashboardService *service.DashboardService,
) http.Handler {
	r := chi.NewRouter()

	// Base middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(allowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	// Verifies the bearer token and puts claims in context.
	// Authentication is enforced per route group, not here.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Profile routes (authenticated)
		profileHandler := handler.NewProfileHandler(profileService)
		v1.Route("/profiles", profileHandler.RegisterRoutes)

		// Challenge routes (listing public, mutations role-gated)
		challengeHandler := handler.NewChallengeHandler(
			challengeService,
			participationService,
			submissionService,
			leaderboardService,
			profileService,
		)
		v1.Route("/challenges", challengeHandler.RegisterRoutes)

		// Submission routes (authenticated)
		submissionHandler := handler.NewSubmissionHandler(submissionService, evaluationService, profileService)
		v1.Route("/submissions", submissionHandler.RegisterRoutes)

		// Dashboard routes register /dashboard/... and /company/... themselves.
		dashboardHandler := handler.NewDashboardHandler(dashboardService, profileService)
		v1.Group(func(dash chi.Router) {
			dashboardHandler.RegisterRoutes(dash)
		})

		// Webhook routes (scorer callback)
		webhookHandler := handler.NewWebhookHandler(evaluationService)
		v1.Route("/webhook", webhookHandler.RegisterRoutes)
	})

	return r
}
