package auth

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/models"
)

type ctxKey string

const userCtxKey = ctxKey("user")

// WithUser stores the resolved requester in the context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext extracts the requester placed by Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// Middleware resolves an optional bearer token to a user record and attaches
// it to the request context. A missing or invalid token leaves the request
// anonymous; RequireAuth decides whether that is acceptable. Loading the row
// on every request means a deleted or deactivated user is locked out even
// while their token is still unexpired.
func Middleware(tm *TokenManager, db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if uid, err := tm.ParseAccess(token); err == nil {
					var user models.User
					if err := db.First(&user, uid).Error; err == nil && user.IsActive {
						r = r.WithContext(WithUser(r.Context(), &user))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that did not resolve to a user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
