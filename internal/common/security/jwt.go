package security

import (
	"errors"
	"time"

	"challengearena/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a bearer token carrying the profile id and role. The
// role claim is empty until the user completes role selection; a fresh token
// is issued when the role is set.
func GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
