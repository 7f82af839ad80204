package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: row does not exist, or is not visible to the scoping owner
//   - ErrConflict: a unique constraint (applicant email, primary dossier) was hit
//   - ErrRevoked: a bearer token was revoked before its expiry
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrRevoked  = errors.New("revoked")
)
