package middleware

import (
	"errors"
	"net/http"
	"strings"

	"bettersaved/pkg/auth"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

// TokenValidator validates operator bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate rate limits by client address, then requires a valid operator token.
// A nil limiter disables rate limiting.
func Authenticate(tokens TokenValidator, limiter auth.RateLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if limiter != nil {
				allowed, err := limiter.Allow(r.Context(), clientIP)
				if err != nil {
					// the limiter fails open
					logger.Warn("Rate limiter error", zap.Error(err))
				} else if !allowed {
					errs.HandleStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
					return
				}
			}

			token := extractToken(r)
			if token == "" {
				errs.HandleStatus(w, r, http.StatusUnauthorized, "Missing authentication token")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid token signature")
				default:
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			logger.Debug("Request authenticated",
				zap.String("operator", claims.Operator),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated callers that carry none of roles
func RequireRole(errs *pkgerrors.ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				errs.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.HandleStatus(w, r, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// extractToken reads a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
