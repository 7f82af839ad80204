package item

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dossier/internal/dossier/form"
	"dossier/internal/platform/postgres"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/platform/tx"
)

// PostgresStore keeps each collection kind in its own table, ordered by a
// bigserial seq column so "creation order" survives equal timestamps.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func collection(kind form.CollectionKind) (form.Collection, error) {
	c, ok := form.CollectionFor(kind)
	if !ok {
		return form.Collection{}, fmt.Errorf("unknown collection %q", kind)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error) {
	c, err := collection(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, ` + strings.Join(c.Columns(), ", ") + ` FROM ` + c.Table + `
		WHERE application_id = $1 ORDER BY seq`
	rows, err := tx.ExecutorFor(ctx, s.db).QueryxContext(ctx, query, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	out := []form.Item{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		itemID, err := scanUUID(row["id"])
		if err != nil {
			return nil, fmt.Errorf("scan %s id: %w", kind, err)
		}
		values := make(form.Values, len(c.Fields))
		for _, f := range c.Fields {
			values[f.Key] = form.FromColumn(f, row[f.Key])
		}
		out = append(out, form.Item{ID: id.ItemID(itemID), Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// Overwrite writes every snapshot item by id, scoped to the application.
// There is no version check: the last writer wins, and ids that no longer
// exist (deleted concurrently) update zero rows and are ignored.
func (s *PostgresStore) Overwrite(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, snapshot []form.Item, now time.Time) error {
	if len(snapshot) == 0 {
		return nil
	}
	c, err := collection(kind)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(c.Fields)+1)
	for i, f := range c.Fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Key, i+4))
	}
	sets = append(sets, "updated_at = $3")
	query := `UPDATE ` + c.Table + ` SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND application_id = $2`

	exec := tx.ExecutorFor(ctx, s.db)
	for _, it := range snapshot {
		args := []any{uuid.UUID(it.ID), uuid.UUID(appID), now}
		for _, f := range c.Fields {
			args = append(args, columnValue(f, it.Values[f.Key]))
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("overwrite %s item: %w", kind, err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, it form.Item, now time.Time) error {
	c, err := collection(kind)
	if err != nil {
		return err
	}
	cols := c.Columns()
	placeholders := make([]string, len(cols))
	args := []any{uuid.UUID(it.ID), uuid.UUID(appID), now}
	for i, f := range c.Fields {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, columnValue(f, it.Values[f.Key]))
	}
	query := `INSERT INTO ` + c.Table + ` (id, application_id, created_at, updated_at, ` + strings.Join(cols, ", ") + `)
		VALUES ($1, $2, $3, $3, ` + strings.Join(placeholders, ", ") + `)`
	if _, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert %s item: %w", kind, err)
	}
	return nil
}

// Delete removes itemID only when it belongs to appID; zero affected rows
// is reported as not found.
func (s *PostgresStore) Delete(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, itemID id.ItemID) error {
	c, err := collection(kind)
	if err != nil {
		return err
	}
	query := `DELETE FROM ` + c.Table + ` WHERE id = $1 AND application_id = $2`
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, uuid.UUID(itemID), uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("delete %s item: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s item: %w", kind, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteForApplication(ctx context.Context, appID id.ApplicationID) error {
	exec := tx.ExecutorFor(ctx, s.db)
	for _, kind := range form.CollectionKinds() {
		c, _ := form.CollectionFor(kind)
		if _, err := exec.ExecContext(ctx, `DELETE FROM `+c.Table+` WHERE application_id = $1`, uuid.UUID(appID)); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
	}
	return nil
}

// columnValue maps a normalized value to its argument; text columns are
// NOT NULL so an absent text value is written as "".
func columnValue(f form.Field, v any) any {
	if f.Kind == form.KindText && v == nil {
		return ""
	}
	return form.ToColumn(f, v)
}

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
