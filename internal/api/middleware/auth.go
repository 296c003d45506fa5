package middleware

import (
	"context"
	"net/http"
	"strings"

	"challengearena/internal/common"
	"challengearena/internal/common/security"
	"challengearena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userRole, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group on the stored role. An empty role means
// the user has not completed role selection yet and gets a distinct message
// the client uses to route there.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual, ok := r.Context().Value(UserRoleCtxKey).(string)
			if !ok || actual == "" {
				common.RespondWithError(w, http.StatusForbidden, "role selection required")
				return
			}
			if actual != role {
				common.RespondWithError(w, http.StatusForbidden, role+" access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ParticipantOnly(next http.Handler) http.Handler {
	return RequireRole(model.RoleParticipant)(next)
}

func CompanyOnly(next http.Handler) http.Handler {
	return RequireRole(model.RoleCompany)(next)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
