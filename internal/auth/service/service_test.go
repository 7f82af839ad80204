package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dossier/internal/auth/lockout"
	"dossier/internal/auth/models"
	"dossier/internal/auth/secrets"
	"dossier/internal/auth/service/mocks"
	applicantstore "dossier/internal/auth/store/applicant"
	"dossier/internal/auth/store/revocation"
	"dossier/internal/auth/token"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store      *applicantstore.InMemoryStore
	revocation *revocation.InMemoryStore
	tokens     *token.JWTService
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = applicantstore.NewInMemory()
	s.revocation = revocation.NewInMemory()
	s.tokens = token.NewJWTService("test-signing-key-with-enough-bytes", "dossier-test", time.Hour)
	s.service = New(s.store, s.tokens, s.revocation,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ServiceSuite) register(email, password string) *models.Applicant {
	applicant, err := s.service.Register(context.Background(), RegisterRequest{
		Name: "Maria Souza", Email: email, Password: password,
	})
	s.Require().NoError(err)
	return applicant
}

func (s *ServiceSuite) as(applicant *models.Applicant) context.Context {
	return requestcontext.WithIdentity(context.Background(), requestcontext.Identity{
		ApplicantID: applicant.ID,
		Role:        applicant.Role,
		TokenID:     "jti-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates an applicant with a hashed password", func() {
		applicant := s.register("Maria@Example.com", "correct-horse")
		s.Equal(id.RoleApplicant, applicant.Role)
		s.Equal("maria@example.com", applicant.Email)
		s.True(secrets.IsHash(applicant.PasswordHash))
		s.Empty(applicant.CompletedSections.Sorted())
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.Register(context.Background(), RegisterRequest{
			Name: "Other", Email: "MARIA@example.com", Password: "another-pass",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects bad input", func() {
		cases := []RegisterRequest{
			{Name: "", Email: "a@example.com", Password: "long-enough"},
			{Name: "A", Email: "not-an-email", Password: "long-enough"},
			{Name: "A", Email: "a@example.com", Password: "short"},
		}
		for _, req := range cases {
			_, err := s.service.Register(context.Background(), req)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "%+v", req)
		}
	})
}

func (s *ServiceSuite) TestCreateAccount() {
	s.Run("generates a password when none is given", func() {
		account, generated, err := s.service.CreateAccount(context.Background(), AccountRequest{
			Name: "Reviewer", Email: "reviewer@example.com", Role: "collaborator",
		})
		s.Require().NoError(err)
		s.Equal(id.RoleCollaborator, account.Role)
		s.NotEmpty(generated)
		s.NoError(secrets.Verify(generated, account.PasswordHash))
	})

	s.Run("unknown role is invalid input", func() {
		_, _, err := s.service.CreateAccount(context.Background(), AccountRequest{
			Name: "X", Email: "x@example.com", Password: "long-enough", Role: "superuser",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestLogin() {
	applicant := s.register("login@example.com", "correct-horse")

	s.Run("valid credentials issue a token", func() {
		result, err := s.service.Login(context.Background(), "LOGIN@example.com", "correct-horse")
		s.Require().NoError(err)
		claims, err := s.tokens.Validate(result.Token)
		s.Require().NoError(err)
		applicantID, err := id.ParseApplicantID(claims.ApplicantID)
		s.Require().NoError(err)
		role, err := id.ParseRole(claims.Role)
		s.Require().NoError(err)
		s.Equal(applicant.ID, applicantID)
		s.Equal(id.RoleApplicant, role)
		s.NotEmpty(claims.ID)
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, wrongPassword := s.service.Login(context.Background(), "login@example.com", "wrong-horse")
		_, unknown := s.service.Login(context.Background(), "nobody@example.com", "correct-horse")
		s.True(dErrors.HasCode(wrongPassword, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(unknown, dErrors.CodeUnauthorized))
		s.Equal(wrongPassword.Error(), unknown.Error())
	})

	s.Run("missing fields are a bad request", func() {
		_, err := s.service.Login(context.Background(), "", "x")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestLoginLockout() {
	s.register("guess@example.com", "correct-horse")
	svc := New(s.store, s.tokens, s.revocation,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLockout(lockout.New(lockout.NewInMemory(), lockout.Config{Attempts: 3, Window: time.Minute, LockDuration: time.Hour})))

	s.Run("success clears earlier failures", func() {
		for range 2 {
			_, err := svc.Login(context.Background(), "guess@example.com", "wrong")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}
		_, err := svc.Login(context.Background(), "guess@example.com", "correct-horse")
		s.Require().NoError(err)
	})

	s.Run("repeated failures lock out even the right password", func() {
		for range 3 {
			_, err := svc.Login(context.Background(), "guess@example.com", "wrong")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}
		_, err := svc.Login(context.Background(), "guess@example.com", "correct-horse")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	})
}

func (s *ServiceSuite) TestLoginLegacyPlaintext() {
	now := time.Now()
	legacy := &models.Applicant{
		ID: id.NewApplicantID(), Name: "Legacy", Email: "legacy@example.com",
		PasswordHash: "plain-secret", Role: id.RoleApplicant,
		CompletedSections: id.NewSectionSet(), CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.store.Create(context.Background(), legacy))

	s.Run("rejected while the flag is off", func() {
		_, err := s.service.Login(context.Background(), "legacy@example.com", "plain-secret")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("accepted and rehashed while the flag is on", func() {
		svc := New(s.store, s.tokens, s.revocation, WithLegacyPlaintext(true))
		_, err := svc.Login(context.Background(), "legacy@example.com", "plain-secret")
		s.Require().NoError(err)

		stored, err := s.store.FindByID(context.Background(), legacy.ID)
		s.Require().NoError(err)
		s.True(secrets.IsHash(stored.PasswordHash))
		s.NoError(secrets.Verify("plain-secret", stored.PasswordHash))
	})
}

func (s *ServiceSuite) TestLogout() {
	applicant := s.register("logout@example.com", "correct-horse")

	s.Run("revokes the current token", func() {
		s.Require().NoError(s.service.Logout(s.as(applicant)))
		revoked, err := s.revocation.IsRevoked(context.Background(), "jti-1")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("anonymous logout is unauthorized", func() {
		err := s.service.Logout(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestChangePassword() {
	admin, _, err := s.service.CreateAccount(context.Background(), AccountRequest{
		Name: "Admin", Email: "admin@example.com", Password: "old-password", Role: "admin",
	})
	s.Require().NoError(err)
	ctx := s.as(admin)

	s.Run("wrong current password is unauthorized", func() {
		err := s.service.ChangePassword(ctx, ChangePasswordRequest{
			CurrentPassword: "nope-nope", NewPassword: "new-password", Confirmation: "new-password",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("confirmation must match", func() {
		err := s.service.ChangePassword(ctx, ChangePasswordRequest{
			CurrentPassword: "old-password", NewPassword: "new-password", Confirmation: "new-passwort",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("changes the password", func() {
		err := s.service.ChangePassword(ctx, ChangePasswordRequest{
			CurrentPassword: "old-password", NewPassword: "new-password", Confirmation: "new-password",
		})
		s.Require().NoError(err)
		_, err = s.service.Login(context.Background(), "admin@example.com", "new-password")
		s.NoError(err)
		_, err = s.service.Login(context.Background(), "admin@example.com", "old-password")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestSeedAdmin() {
	created, err := s.service.SeedAdmin(context.Background(), "Root", "root@example.com", "root-password")
	s.Require().NoError(err)
	s.True(created)

	created, err = s.service.SeedAdmin(context.Background(), "Root", "second@example.com", "root-password")
	s.Require().NoError(err)
	s.False(created)

	n, err := s.store.CountByRole(context.Background(), id.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(1, n)
}

// Store interactions that the in-memory store cannot provoke.
func TestServiceStoreInteractions(t *testing.T) {
	identity := requestcontext.Identity{
		ApplicantID: id.NewApplicantID(),
		Role:        id.RoleAdmin,
		TokenID:     "jti-2",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	ctx := requestcontext.WithIdentity(context.Background(), identity)

	t.Run("new password equal to current is rejected before any store access", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockApplicantStore(ctrl)
		svc := New(store, mocks.NewMockTokenIssuer(ctrl), mocks.NewMockRevocationList(ctrl))

		err := svc.ChangePassword(ctx, ChangePasswordRequest{
			CurrentPassword: "same-password", NewPassword: "same-password", Confirmation: "same-password",
		})
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("store failure on register is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockApplicantStore(ctrl)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		svc := New(store, mocks.NewMockTokenIssuer(ctrl), mocks.NewMockRevocationList(ctrl),
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

		_, err := svc.Register(context.Background(), RegisterRequest{
			Name: "A", Email: "a@example.com", Password: "long-enough",
		})
		if !dErrors.HasCode(err, dErrors.CodeInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})

	t.Run("login records metrics by outcome", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockApplicantStore(ctrl)
		metrics := mocks.NewMockMetrics(ctrl)
		store.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, sentinel.ErrNotFound)
		metrics.EXPECT().IncLogin("failure")
		svc := New(store, mocks.NewMockTokenIssuer(ctrl), mocks.NewMockRevocationList(ctrl), WithMetrics(metrics))

		_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("locked out login never reads the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		locks := mocks.NewMockLockout(ctrl)
		metrics := mocks.NewMockMetrics(ctrl)
		locks.EXPECT().Check(gomock.Any(), "ana@example.com").Return(dErrors.New(dErrors.CodeRateLimited, "locked"))
		metrics.EXPECT().IncLogin("locked")
		svc := New(mocks.NewMockApplicantStore(ctrl), mocks.NewMockTokenIssuer(ctrl), mocks.NewMockRevocationList(ctrl),
			WithLockout(locks), WithMetrics(metrics))

		_, err := svc.Login(context.Background(), "ana@example.com", "whatever")
		if !dErrors.HasCode(err, dErrors.CodeRateLimited) {
			t.Fatalf("expected rate_limited, got %v", err)
		}
	})

	t.Run("logout revokes for the remaining token lifetime", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		revocations := mocks.NewMockRevocationList(ctrl)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		expiring := identity
		expiring.ExpiresAt = now.Add(30 * time.Minute)
		revocations.EXPECT().Revoke(gomock.Any(), "jti-2", 30*time.Minute).Return(nil)
		svc := New(mocks.NewMockApplicantStore(ctrl), mocks.NewMockTokenIssuer(ctrl), revocations)

		logoutCtx := requestcontext.WithTime(requestcontext.WithIdentity(context.Background(), expiring), now)
		if err := svc.Logout(logoutCtx); err != nil {
			t.Fatalf("logout: %v", err)
		}
	})

	t.Run("token issuing failure is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockApplicantStore(ctrl)
		tokens := mocks.NewMockTokenIssuer(ctrl)
		hash, err := secrets.Hash("long-enough")
		if err != nil {
			t.Fatal(err)
		}
		applicant := &models.Applicant{ID: id.NewApplicantID(), Email: "a@example.com", PasswordHash: hash, Role: id.RoleApplicant}
		store.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(applicant, nil)
		tokens.EXPECT().Issue(applicant.ID, id.RoleApplicant).Return(token.Issued{}, errors.New("signing failed"))
		svc := New(store, tokens, mocks.NewMockRevocationList(ctrl))

		_, err = svc.Login(context.Background(), "a@example.com", "long-enough")
		if !dErrors.HasCode(err, dErrors.CodeInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}
