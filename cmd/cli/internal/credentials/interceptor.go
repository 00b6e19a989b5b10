// Package credentials attaches bearer tokens to CLI requests.
package credentials

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/auth"
)

// TokenExpiry is the lifetime of tokens minted by a signing interceptor.
const TokenExpiry = time.Hour

// refreshMargin is how long before expiry a cached token is replaced.
const refreshMargin = 5 * time.Minute

// AuthInterceptor adds JWT authentication to Connect RPC requests.
type AuthInterceptor struct {
	issue func() (string, error)
	ttl   time.Duration // zero for tokens that are never refreshed

	// Token caching
	mu          sync.RWMutex
	cachedToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewStaticInterceptor sends a token obtained elsewhere on every request.
func NewStaticInterceptor(token string) (*AuthInterceptor, error) {
	if token == "" {
		return nil, errors.New("token is empty")
	}
	return &AuthInterceptor{
		issue: func() (string, error) { return token, nil },
		now:   time.Now,
	}, nil
}

// NewSigningInterceptor mints tokens for actor with the given ES256 signing
// key and refreshes them shortly before they expire.
func NewSigningInterceptor(signingKeyPEM string, actor *auth.Actor) (*AuthInterceptor, error) {
	if signingKeyPEM == "" {
		return nil, errors.New("signing key is empty")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Stringer("actor", actor).
		Msg("initialized signing auth interceptor")

	return &AuthInterceptor{
		issue: func() (string, error) { return auth.IssueToken(signingKeyPEM, actor, TokenExpiry) },
		ttl:   TokenExpiry,
		now:   time.Now,
	}, nil
}

// WrapUnary implements connect.UnaryInterceptorFunc.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if err := i.addAuthHeader(req.Header()); err != nil {
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.StreamingClientInterceptorFunc.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if err := i.addAuthHeader(conn.RequestHeader()); err != nil {
			log.Error().Err(err).Msg("Failed to add auth header to streaming request")
		}
		return conn
	}
}

// WrapStreamingHandler is not used for client interceptors.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

// addAuthHeader adds the Authorization header with a valid JWT.
func (i *AuthInterceptor) addAuthHeader(headers interface{ Set(string, string) }) error {
	token, err := i.getToken()
	if err != nil {
		return err
	}
	headers.Set("Authorization", "Bearer "+token)
	return nil
}

func (i *AuthInterceptor) fresh() bool {
	if i.cachedToken == "" {
		return false
	}
	return i.ttl == 0 || i.now().Add(refreshMargin).Before(i.tokenExpiry)
}

// getToken returns a cached token or creates a new one.
func (i *AuthInterceptor) getToken() (string, error) {
	i.mu.RLock()
	if i.fresh() {
		token := i.cachedToken
		i.mu.RUnlock()
		return token, nil
	}
	i.mu.RUnlock()

	i.mu.Lock()
	defer i.mu.Unlock()

	// Double-check after acquiring write lock
	if i.fresh() {
		return i.cachedToken, nil
	}

	token, err := i.issue()
	if err != nil {
		return "", err
	}

	i.cachedToken = token
	i.tokenExpiry = i.now().Add(i.ttl)

	log.Debug().
		Time("expiry", i.tokenExpiry).
		Msg("cached new JWT token")

	return token, nil
}
