package testutil

import (
	"net/http"
	"time"

	id "dossier/pkg/domain"
	"dossier/pkg/requestcontext"
)

// WithIdentity attaches an authenticated caller to the request context,
// the way the guard does after validating a bearer token.
func WithIdentity(req *http.Request, applicantID id.ApplicantID, role id.Role) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), requestcontext.Identity{
		ApplicantID: applicantID,
		Role:        role,
		TokenID:     "test-" + applicantID.String(),
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	return req.WithContext(ctx)
}
