package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ApplicantStore,TokenIssuer,RevocationList,Lockout,Metrics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"dossier/internal/audit"
	"dossier/internal/auth/models"
	"dossier/internal/auth/secrets"
	"dossier/internal/auth/token"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

const minPasswordLength = 8

type ApplicantStore interface {
	Create(ctx context.Context, a *models.Applicant) error
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error)
	FindByEmail(ctx context.Context, email string) (*models.Applicant, error)
	CountByRole(ctx context.Context, role id.Role) (int, error)
	UpdatePassword(ctx context.Context, applicantID id.ApplicantID, hash string, now time.Time) error
}

type TokenIssuer interface {
	Issue(applicantID id.ApplicantID, role id.Role) (token.Issued, error)
}

type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Lockout throttles repeated login failures for an email.
type Lockout interface {
	Check(ctx context.Context, email string) error
	RecordFailure(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
}

type Metrics interface {
	IncLogin(outcome string)
	IncrementApplicantsCreated()
}

// Service owns accounts: registration, staff provisioning, login, logout
// and password changes.
type Service struct {
	applicants ApplicantStore
	tokens     TokenIssuer
	revocation RevocationList
	lockout    Lockout
	auditor    *audit.Publisher
	metrics    Metrics
	logger     *slog.Logger

	// legacyPlaintext lets applicant rows imported with plain-text
	// credentials log in; they are rehashed on first success.
	legacyPlaintext bool
}

type Option func(*Service)

func WithAuditor(p *audit.Publisher) Option { return func(s *Service) { s.auditor = p } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }
func WithLockout(l Lockout) Option          { return func(s *Service) { s.lockout = l } }

// WithLegacyPlaintext enables plain-text credential comparison for
// applicant accounts.
func WithLegacyPlaintext(enabled bool) Option {
	return func(s *Service) { s.legacyPlaintext = enabled }
}

func New(applicants ApplicantStore, tokens TokenIssuer, revocation RevocationList, opts ...Option) *Service {
	s := &Service{
		applicants: applicants,
		tokens:     tokens,
		revocation: revocation,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountRequest is the staff provisioning payload. An empty Password
// makes the service generate one and return it once.
type AccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Confirmation    string `json:"new_password_confirmation"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Applicant *models.Applicant
}

// Register creates a self-service applicant account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Applicant, error) {
	applicant, err := s.createAccount(ctx, req.Name, req.Email, req.Password, id.RoleApplicant)
	if err != nil {
		return nil, err
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionApplicantRegistered,
		ActorID:     applicant.ID,
		ApplicantID: applicant.ID,
		Email:       applicant.Email,
	})
	return applicant, nil
}

// CreateAccount provisions an account of any role on behalf of staff.
func (s *Service) CreateAccount(ctx context.Context, req AccountRequest) (*models.Applicant, string, error) {
	role, err := id.ParseRole(req.Role)
	if err != nil {
		return nil, "", err
	}
	password, generated := req.Password, ""
	if password == "" {
		if password, err = secrets.Generate(); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
		}
		generated = password
	}
	applicant, err := s.createAccount(ctx, req.Name, req.Email, password, role)
	if err != nil {
		return nil, "", err
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionAccountProvisioned,
		ActorID:     requestcontext.ApplicantID(ctx),
		ApplicantID: applicant.ID,
		Email:       applicant.Email,
		Reason:      string(role),
	})
	return applicant, generated, nil
}

func (s *Service) createAccount(ctx context.Context, name, email, password string, role id.Role) (*models.Applicant, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if !govalidator.IsEmail(email) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must have at least 8 characters")
	}
	hash, err := secrets.Hash(password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	now := requestcontext.Now(ctx)
	applicant := &models.Applicant{
		ID:                id.NewApplicantID(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		CompletedSections: id.NewSectionSet(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.applicants.Create(ctx, applicant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		s.logger.ErrorContext(ctx, "create account failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	if s.metrics != nil {
		s.metrics.IncrementApplicantsCreated()
	}
	return applicant, nil
}

// Login verifies email and password and issues an access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, email); err != nil {
			if s.metrics != nil {
				s.metrics.IncLogin("locked")
			}
			return nil, err
		}
	}

	applicant, err := s.applicants.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.loginFailed(ctx, email, "unknown email")
		return nil, invalid
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "login lookup failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}

	verify := secrets.Verify
	if s.legacyPlaintext && applicant.Role == id.RoleApplicant {
		verify = secrets.VerifyLegacy
	}
	if err := verify(password, applicant.PasswordHash); err != nil {
		if errors.Is(err, secrets.ErrMismatch) {
			s.loginFailed(ctx, email, "password mismatch")
			return nil, invalid
		}
		s.logger.ErrorContext(ctx, "password verification failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}
	if !secrets.IsHash(applicant.PasswordHash) {
		s.upgradeLegacyCredential(ctx, applicant.ID, password)
	}

	issued, err := s.tokens.Issue(applicant.ID, applicant.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}
	if s.metrics != nil {
		s.metrics.IncLogin("success")
	}
	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "login lockout clear failed", "error", err)
		}
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionLoginSucceeded,
		ActorID:     applicant.ID,
		ApplicantID: applicant.ID,
	})
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, Applicant: applicant}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	if s.metrics != nil {
		s.metrics.IncLogin("failure")
	}
	if s.lockout != nil {
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "login failure not recorded", "error", err)
		}
	}
	s.auditor.Emit(ctx, audit.Event{
		Action: audit.ActionLoginFailed,
		Email:  models.NormalizeEmail(email),
		Reason: reason,
	})
}

// upgradeLegacyCredential replaces a plain-text credential with its hash.
// Failure is logged; the login itself already succeeded.
func (s *Service) upgradeLegacyCredential(ctx context.Context, applicantID id.ApplicantID, password string) {
	hash, err := secrets.Hash(password)
	if err == nil {
		err = s.applicants.UpdatePassword(ctx, applicantID, hash, requestcontext.Now(ctx))
	}
	if err != nil {
		s.logger.WarnContext(ctx, "legacy credential upgrade failed", "applicant_id", applicantID.String(), "error", err)
	}
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context) error {
	identity, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	ttl := identity.ExpiresAt.Sub(requestcontext.Now(ctx))
	if err := s.revocation.Revoke(ctx, identity.TokenID, ttl); err != nil {
		s.logger.ErrorContext(ctx, "token revocation failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "logout failed")
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionLoggedOut,
		ActorID:     identity.ApplicantID,
		ApplicantID: identity.ApplicantID,
	})
	return nil
}

// ChangePassword replaces the caller's password. Every rule that can be
// checked without the stored credential runs first, so a rejected request
// never reaches the store.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	identity, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	switch {
	case req.CurrentPassword == "" || req.NewPassword == "" || req.Confirmation == "":
		return dErrors.New(dErrors.CodeValidation, "current password, new password and confirmation are required")
	case req.NewPassword == req.CurrentPassword:
		return dErrors.New(dErrors.CodeValidation, "new password must differ from the current password")
	case req.NewPassword != req.Confirmation:
		return dErrors.New(dErrors.CodeValidation, "password confirmation does not match")
	case len(req.NewPassword) < minPasswordLength:
		return dErrors.New(dErrors.CodeValidation, "password must have at least 8 characters")
	}

	applicant, err := s.applicants.FindByID(ctx, identity.ApplicantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "password change lookup failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change password")
	}
	if err := secrets.Verify(req.CurrentPassword, applicant.PasswordHash); err != nil {
		if errors.Is(err, secrets.ErrMismatch) {
			return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change password")
	}
	hash, err := secrets.Hash(req.NewPassword)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change password")
	}
	if err := s.applicants.UpdatePassword(ctx, applicant.ID, hash, requestcontext.Now(ctx)); err != nil {
		s.logger.ErrorContext(ctx, "password update failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change password")
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionPasswordChanged,
		ActorID:     identity.ApplicantID,
		ApplicantID: applicant.ID,
	})
	return nil
}

// SeedAdmin creates the bootstrap administrator when no admin exists.
// It reports whether an account was created.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	n, err := s.applicants.CountByRole(ctx, id.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.createAccount(ctx, name, email, password, id.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
