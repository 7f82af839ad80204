package applicant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"dossier/internal/auth/models"
	"dossier/internal/platform/postgres"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/platform/tx"
)

const selectApplicant = `SELECT id, name, email, password_hash, role, completed_sections, has_application, created_at, updated_at FROM applicants`

type applicantRow struct {
	ID                uuid.UUID     `db:"id"`
	Name              string        `db:"name"`
	Email             string        `db:"email"`
	PasswordHash      string        `db:"password_hash"`
	Role              string        `db:"role"`
	CompletedSections pq.Int64Array `db:"completed_sections"`
	HasApplication    bool          `db:"has_application"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func (r applicantRow) toModel() *models.Applicant {
	sections := make([]int, len(r.CompletedSections))
	for i, s := range r.CompletedSections {
		sections[i] = int(s)
	}
	return &models.Applicant{
		ID:                id.ApplicantID(r.ID),
		Name:              r.Name,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Role:              id.Role(r.Role),
		CompletedSections: id.NewSectionSet(sections...),
		HasApplication:    r.HasApplication,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// PostgresStore persists accounts in the applicants table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Applicant) error {
	sections := pq.Int64Array{}
	for _, sec := range a.CompletedSections.Sorted() {
		sections = append(sections, int64(sec))
	}
	query := `INSERT INTO applicants (id, name, email, password_hash, role, completed_sections, has_application, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Name, models.NormalizeEmail(a.Email), a.PasswordHash, string(a.Role),
		sections, a.HasApplication, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	return s.getOne(ctx, selectApplicant+` WHERE id = $1`, uuid.UUID(applicantID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Applicant, error) {
	return s.getOne(ctx, selectApplicant+` WHERE LOWER(email) = $1`, models.NormalizeEmail(email))
}

func (s *PostgresStore) getOne(ctx context.Context, query string, args ...any) (*models.Applicant, error) {
	var row applicantRow
	err := tx.ExecutorFor(ctx, s.db).GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Applicant, error) {
	var rows []applicantRow
	if err := tx.ExecutorFor(ctx, s.db).SelectContext(ctx, &rows, selectApplicant+` ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	out := make([]*models.Applicant, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *PostgresStore) CountByRole(ctx context.Context, role id.Role) (int, error) {
	var n int
	if err := tx.ExecutorFor(ctx, s.db).GetContext(ctx, &n, `SELECT COUNT(*) FROM applicants WHERE role = $1`, string(role)); err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, applicantID id.ApplicantID, hash string, now time.Time) error {
	return s.execOne(ctx, "update password",
		`UPDATE applicants SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(applicantID), hash, now)
}

// MarkSectionComplete appends section in one statement guarded by
// NOT (section = ANY(...)), so concurrent submits never store a duplicate.
// The resulting set is read back in the same call.
func (s *PostgresStore) MarkSectionComplete(ctx context.Context, applicantID id.ApplicantID, section int, now time.Time) (id.SectionSet, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `UPDATE applicants
		SET completed_sections = array_append(completed_sections, $2), updated_at = $3
		WHERE id = $1 AND NOT ($2 = ANY(completed_sections))`,
		uuid.UUID(applicantID), section, now)
	if err != nil {
		return nil, fmt.Errorf("mark section complete: %w", err)
	}
	var sections pq.Int64Array
	err = exec.GetContext(ctx, &sections, `SELECT completed_sections FROM applicants WHERE id = $1`, uuid.UUID(applicantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read completed sections: %w", err)
	}
	out := id.NewSectionSet()
	for _, sec := range sections {
		out.Add(int(sec))
	}
	return out, nil
}

func (s *PostgresStore) SetHasApplication(ctx context.Context, applicantID id.ApplicantID, now time.Time) error {
	return s.execOne(ctx, "set has_application",
		`UPDATE applicants SET has_application = TRUE, updated_at = $2 WHERE id = $1`,
		uuid.UUID(applicantID), now)
}

// ResetProgress clears the has-application flag and the completed sections
// once the primary dossier is gone.
func (s *PostgresStore) ResetProgress(ctx context.Context, applicantID id.ApplicantID, now time.Time) error {
	return s.execOne(ctx, "reset progress",
		`UPDATE applicants SET has_application = FALSE, completed_sections = '{}', updated_at = $2 WHERE id = $1`,
		uuid.UUID(applicantID), now)
}

func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
