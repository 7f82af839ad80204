package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	"dossier/internal/platform/postgres"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/platform/tx"
)

const baseColumns = "id, applicant_id, kind, same_address_as_primary, same_travel_date_as_primary, created_at, updated_at"

// PostgresStore persists dossiers in the applications table. Field columns
// are the form registry keys, so statements are assembled from the registry.
type PostgresStore struct {
	db         *sqlx.DB
	selectList string
	fields     map[string]form.Field
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	all := form.AllFields()
	keys := make([]string, len(all))
	byKey := make(map[string]form.Field, len(all))
	for i, f := range all {
		keys[i] = f.Key
		byKey[f.Key] = f
	}
	return &PostgresStore{
		db:         db,
		selectList: baseColumns + ", " + strings.Join(keys, ", "),
		fields:     byKey,
	}
}

func (s *PostgresStore) FindPrimaryByOwner(ctx context.Context, owner id.ApplicantID) (*models.Application, error) {
	query := `SELECT ` + s.selectList + ` FROM applications WHERE applicant_id = $1 AND kind = 'primary'`
	return s.getOne(ctx, "find primary application", query, uuid.UUID(owner))
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + s.selectList + ` FROM applications WHERE id = $1`
	return s.getOne(ctx, "find application", query, uuid.UUID(appID))
}

func (s *PostgresStore) FindOwned(ctx context.Context, owner id.ApplicantID, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + s.selectList + ` FROM applications WHERE id = $1 AND applicant_id = $2`
	return s.getOne(ctx, "find owned application", query, uuid.UUID(appID), uuid.UUID(owner))
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.ApplicantID) ([]*models.Application, error) {
	query := `SELECT ` + s.selectList + ` FROM applications WHERE applicant_id = $1 ORDER BY created_at, kind DESC`
	return s.list(ctx, "list applications by owner", query, uuid.UUID(owner))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Application, error) {
	query := `SELECT ` + s.selectList + ` FROM applications ORDER BY created_at, kind DESC`
	return s.list(ctx, "list applications", query)
}

// UpsertPrimary inserts the owner's primary dossier or updates only the
// given columns of the existing one, in a single statement. The partial
// unique index on (applicant_id) WHERE kind = 'primary' arbitrates races.
func (s *PostgresStore) UpsertPrimary(ctx context.Context, owner id.ApplicantID, fields form.Values, now time.Time) (*models.Application, bool, error) {
	cols, args := s.fieldArgs(fields)
	insertCols := "id, applicant_id, kind, created_at, updated_at"
	insertVals := "$1, $2, 'primary', $3, $3"
	updates := []string{"updated_at = EXCLUDED.updated_at"}
	for i, col := range cols {
		insertCols += ", " + col
		insertVals += fmt.Sprintf(", $%d", i+4)
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	query := `INSERT INTO applications (` + insertCols + `) VALUES (` + insertVals + `)
		ON CONFLICT (applicant_id) WHERE kind = 'primary' DO UPDATE SET ` + strings.Join(updates, ", ") + `
		RETURNING ` + s.selectList + `, (xmax = 0) AS inserted`

	all := append([]any{uuid.New(), uuid.UUID(owner), now}, args...)
	row := map[string]any{}
	if err := tx.ExecutorFor(ctx, s.db).QueryRowxContext(ctx, query, all...).MapScan(row); err != nil {
		return nil, false, fmt.Errorf("upsert primary application: %w", err)
	}
	inserted, _ := row["inserted"].(bool)
	app, err := s.fromRow(row)
	if err != nil {
		return nil, false, err
	}
	return app, inserted, nil
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	cols, args := s.fieldArgs(app.Fields)
	insertCols := baseColumns
	insertVals := "$1, $2, $3, $4, $5, $6, $7"
	for i, col := range cols {
		insertCols += ", " + col
		insertVals += fmt.Sprintf(", $%d", i+8)
	}
	query := `INSERT INTO applications (` + insertCols + `) VALUES (` + insertVals + `)`
	all := append([]any{
		uuid.UUID(app.ID), uuid.UUID(app.ApplicantID), string(app.Kind),
		app.SameAddressAsPrimary, app.SameTravelDateAsPrimary, app.CreatedAt, app.UpdatedAt,
	}, args...)
	if _, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, all...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateFields(ctx context.Context, owner id.ApplicantID, appID id.ApplicationID, fields form.Values, now time.Time) (*models.Application, error) {
	cols, args := s.fieldArgs(fields)
	sets := []string{"updated_at = $3"}
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}
	query := `UPDATE applications SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND applicant_id = $2
		RETURNING ` + s.selectList
	all := append([]any{uuid.UUID(appID), uuid.UUID(owner), now}, args...)
	return s.getOne(ctx, "update application", query, all...)
}

func (s *PostgresStore) Delete(ctx context.Context, appID id.ApplicationID) error {
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// fieldArgs returns the registry columns present in fields, in registry
// order, with their database arguments.
func (s *PostgresStore) fieldArgs(fields form.Values) ([]string, []any) {
	var cols []string
	var args []any
	for _, f := range form.AllFields() {
		v, ok := fields[f.Key]
		if !ok {
			continue
		}
		cols = append(cols, f.Key)
		args = append(args, form.ToColumn(f, v))
	}
	return cols, args
}

func (s *PostgresStore) getOne(ctx context.Context, op, query string, args ...any) (*models.Application, error) {
	row := map[string]any{}
	err := tx.ExecutorFor(ctx, s.db).QueryRowxContext(ctx, query, args...).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.fromRow(row)
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Application, error) {
	rows, err := tx.ExecutorFor(ctx, s.db).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app, err := s.fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *PostgresStore) fromRow(row map[string]any) (*models.Application, error) {
	appID, err := scanUUID(row["id"])
	if err != nil {
		return nil, fmt.Errorf("scan application id: %w", err)
	}
	owner, err := scanUUID(row["applicant_id"])
	if err != nil {
		return nil, fmt.Errorf("scan applicant id: %w", err)
	}
	app := &models.Application{
		ID:          id.ApplicationID(appID),
		ApplicantID: id.ApplicantID(owner),
		Kind:        models.Kind(scanString(row["kind"])),
		Fields:      make(form.Values, len(s.fields)),
	}
	app.SameAddressAsPrimary, _ = row["same_address_as_primary"].(bool)
	app.SameTravelDateAsPrimary, _ = row["same_travel_date_as_primary"].(bool)
	app.CreatedAt, _ = row["created_at"].(time.Time)
	app.UpdatedAt, _ = row["updated_at"].(time.Time)
	for key, f := range s.fields {
		app.Fields[key] = form.FromColumn(f, row[key])
	}
	return app, nil
}

// scanUUID accepts the []byte lib/pq yields for uuid columns, or a string.
func scanUUID(v any) (uuid.UUID, error) {
	switch val := v.(type) {
	case []byte:
		return uuid.ParseBytes(val)
	case string:
		return uuid.Parse(val)
	default:
		return uuid.Nil, fmt.Errorf("unexpected uuid type %T", v)
	}
}

func scanString(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return ""
	}
}
