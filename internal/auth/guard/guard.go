// Package guard resolves the caller identity and gates handlers by role.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"dossier/internal/audit"
	"dossier/internal/auth/token"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/httputil"
	"dossier/pkg/requestcontext"
)

type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Guard struct {
	tokens      TokenValidator
	revocations RevocationChecker
	auditor     *audit.Publisher
	logger      *slog.Logger
}

func New(tokens TokenValidator, revocations RevocationChecker, auditor *audit.Publisher, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{tokens: tokens, revocations: revocations, auditor: auditor, logger: logger}
}

// RequireIdentity rejects requests without a valid, unrevoked bearer token
// and stores the resolved identity in the request context.
func (g *Guard) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			g.logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", requestcontext.RequestID(ctx))
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
			return
		}

		identity, err := g.resolve(ctx, raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, identity)))
	})
}

func (g *Guard) resolve(ctx context.Context, raw string) (requestcontext.Identity, error) {
	requestID := requestcontext.RequestID(ctx)
	claims, err := g.tokens.Validate(raw)
	if err != nil {
		g.logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err, "request_id", requestID)
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}
	applicantID, err := id.ParseApplicantID(claims.ApplicantID)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		g.logger.WarnContext(ctx, "unauthorized access - malformed claims", "request_id", requestID)
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		g.logger.WarnContext(ctx, "unauthorized access - unknown role", "role", claims.Role, "request_id", requestID)
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}

	revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to check token revocation", "error", err, "request_id", requestID)
		return requestcontext.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token")
	}
	if revoked {
		g.logger.WarnContext(ctx, "unauthorized access - token revoked", "jti", claims.ID, "request_id", requestID)
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	}

	return requestcontext.Identity{
		ApplicantID: applicantID,
		Role:        role,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// RequireRole admits only callers holding one of roles. It must run after
// RequireIdentity.
func (g *Guard) RequireRole(roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, ok := requestcontext.IdentityFrom(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
				return
			}
			if !slices.Contains(roles, identity.Role) {
				g.logger.WarnContext(ctx, "access denied",
					"applicant_id", identity.ApplicantID.String(),
					"role", string(identity.Role),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx))
				g.auditor.Emit(ctx, audit.Event{
					Action:  audit.ActionAccessDenied,
					ActorID: identity.ApplicantID,
					Reason:  r.Method + " " + r.URL.Path,
				})
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not authorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Caller returns the authenticated identity or a not-authenticated error.
// Services call it before touching anything owned by the caller.
func Caller(ctx context.Context) (requestcontext.Identity, error) {
	identity, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	return identity, nil
}
