// File: internal/middleware/admin_middleware.go
package middleware

import (
	"log"
	"net/http"

	"github.com/aiplatform/chat-backend/internal/repository/user"
)

// RequireAdmin checks that the authenticated user holds the admin role.
// It MUST be used AFTER the JWT authentication middleware.
func RequireAdmin(userRepo user.UserRepository) func(http.Handler) http.Handler {
	return requireRole(userRepo, "admin", func(u roleChecker) bool { return u.IsAdmin() })
}

// RequireSupport admits support agents and admins.
func RequireSupport(userRepo user.UserRepository) func(http.Handler) http.Handler {
	return requireRole(userRepo, "support", func(u roleChecker) bool { return u.IsSupport() })
}

type roleChecker interface {
	IsAdmin() bool
	IsSupport() bool
}

func requireRole(userRepo user.UserRepository, roleName string, allowed func(roleChecker) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(UserIDKey).(uint)
			if !ok || userID == 0 {
				log.Printf("[RoleMiddleware] Forbidden: no valid userID in context for path %s", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			account, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				// The user may have been deleted after the token was issued.
				log.Printf("[RoleMiddleware] Forbidden: could not load user ID %d: %v", userID, err)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if !allowed(account) {
				log.Printf("[RoleMiddleware] FORBIDDEN: user '%s' (ID: %d) attempted %s route: %s",
					account.Username, account.ID, roleName, r.URL.Path)
				http.Error(w, "Forbidden: you do not have permission to access this resource.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
