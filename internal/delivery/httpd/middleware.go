package httpd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/gradapply/admission-service/internal/models"
)

type contextKey string

const (
	userIDKey     contextKey = "user_id"
	permissionKey contextKey = "admin_permission"
)

// Authenticate validates the bearer token and stores the subject user ID in
// the request context. Tokens are issued by the identity service and signed
// with a shared HMAC secret.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.Subject == "" {
			writeError(w, http.StatusUnauthorized, "Token has no subject")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin resolves the caller's admin permission set and makes it
// available to the handlers. Users without any admin record are rejected.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromContext(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Missing authentication")
			return
		}

		permission, err := h.adminService.ResolvePermissions(r.Context(), userID)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), permissionKey, permission)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func permissionFromContext(ctx context.Context) *models.AdminPermission {
	permission, _ := ctx.Value(permissionKey).(*models.AdminPermission)
	return permission
}
