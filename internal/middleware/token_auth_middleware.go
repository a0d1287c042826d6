package middleware

import (
	"context"
	"net/http"
	"strings"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/service"
	"workitem-tracker/pkg/response"
)

const (
	TokenUserKey   contextKey = "tokenUser"
	TokenScopesKey contextKey = "tokenScopes"
)

// TokenAuthMiddleware authenticates requests carrying a personal access
// token (Bearer wkt_...) instead of a JWT.
func TokenAuthMiddleware(tokenService *service.APITokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			token := parts[1]
			if !strings.HasPrefix(token, service.TokenPrefix) {
				response.Unauthorized(w, "Invalid API token format")
				return
			}

			user, apiToken, err := tokenService.ValidateToken(token)
			if err != nil {
				response.Unauthorized(w, "Invalid or revoked API token")
				return
			}

			go func() {
				tokenService.UpdateLastUsed(apiToken.ID, clientIP(r))
			}()

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, TokenUserKey, user)
			ctx = context.WithValue(ctx, TokenScopesKey, apiToken.Scopes)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeMiddleware requires a scope on the API token set by
// TokenAuthMiddleware earlier in the chain.
func ScopeMiddleware(requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			scopes, ok := r.Context().Value(TokenScopesKey).([]string)
			if !ok {
				response.Forbidden(w, "API token scopes not found")
				return
			}

			token := domain.APIToken{Scopes: scopes}
			if !token.HasScope(requiredScope) {
				response.Forbidden(w, "API token does not have required scope: "+requiredScope)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return strings.Split(r.RemoteAddr, ":")[0]
}
