// Package auth extracts the caller identity from the client principal header
// injected by the authenticating front end.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"pitchstat-backend/pkg/api"

	"go.uber.org/zap"
)

// PrincipalHeader carries the base64-encoded JSON principal.
const PrincipalHeader = "x-ms-client-principal"

// Principal identifies an authenticated caller.
type Principal struct {
	UserID      string
	UserDetails string
}

type contextKey struct {
	name string
}

var principalKey = contextKey{"principal"}

// Extractor decodes principals from requests. A development bypass identity
// can be configured, but never in production.
type Extractor struct {
	devUserID string
	logger    *zap.Logger
}

// NewExtractor creates an identity extractor. devUserID, when non-empty,
// bypasses header authentication; this is refused when environment is
// "production".
func NewExtractor(devUserID, environment string, logger *zap.Logger) (*Extractor, error) {
	if devUserID != "" {
		if environment == "production" {
			return nil, fmt.Errorf("authentication bypass is not allowed in production")
		}
		logger.Warn("using development authentication bypass",
			zap.String("userId", devUserID))
	}
	return &Extractor{devUserID: devUserID, logger: logger}, nil
}

// FromRequest returns the caller's principal, or nil when the request is
// unauthenticated or the header cannot be decoded.
func (e *Extractor) FromRequest(r *http.Request) *Principal {
	if e.devUserID != "" {
		return &Principal{UserID: e.devUserID, UserDetails: "Local Dev"}
	}

	header := r.Header.Get(PrincipalHeader)
	if header == "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil
	}

	var raw struct {
		UserID      string `json:"userId"`
		UserDetails string `json:"userDetails"`
	}
	if err := json.Unmarshal(decoded, &raw); err != nil {
		return nil
	}

	userID := raw.UserID
	if userID == "" {
		userID = raw.UserDetails
	}
	if userID == "" {
		userID = "anonymous"
	}
	details := raw.UserDetails
	if details == "" {
		details = userID
	}
	return &Principal{UserID: userID, UserDetails: details}
}

// Middleware rejects unauthenticated requests and stores the principal in the
// request context.
func (e *Extractor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := e.FromRequest(r)
		if principal == nil {
			api.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the principal stored by Middleware, or nil.
func FromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}
