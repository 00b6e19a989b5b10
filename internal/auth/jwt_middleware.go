package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Headers read by the development identity middleware.
const (
	HeaderUserID      = "X-Tokenboard-User"
	HeaderRole        = "X-Tokenboard-Role"
	HeaderCompanyRole = "X-Tokenboard-Company-Role"
	HeaderOrgID       = "X-Tokenboard-Org"
)

// Middleware returns an HTTP middleware that verifies bearer tokens and
// adds the actor to the request context. /health is left open.
func (v *Verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			// Extract JWT from Authorization header
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				log.Warn().Msg("Missing Authorization header")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			actor, err := v.Verify(tokenString)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to verify JWT")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// HeaderMiddleware trusts identity headers as sent. It is for local
// development only and must never face untrusted clients.
func HeaderMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderUserID) == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := actorFromHeaders(r.Header)
			if err != nil {
				log.Warn().Err(err).Msg("Invalid identity headers")
				http.Error(w, "invalid identity headers", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func actorFromHeaders(h http.Header) (*Actor, error) {
	userID, err := uuid.Parse(h.Get(HeaderUserID))
	if err != nil {
		return nil, err
	}

	actor := &Actor{
		UserID:      userID,
		Role:        Role(strings.ToUpper(h.Get(HeaderRole))),
		CompanyRole: CompanyRole(strings.ToUpper(h.Get(HeaderCompanyRole))),
	}

	if org := h.Get(HeaderOrgID); org != "" {
		actor.OrgID, err = uuid.Parse(org)
		if err != nil {
			return nil, err
		}
	}

	if err := actor.Validate(); err != nil {
		return nil, err
	}

	return actor, nil
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
