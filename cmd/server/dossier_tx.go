package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/tx"
)

const defaultDossierTxTimeout = 5 * time.Second

// dossierPostgresTx runs a unit of work in one transaction. The advisory
// lock keyed by owner serializes concurrent writes for the same applicant
// the way the in-memory shard locks do.
type dossierPostgresTx struct {
	db      *sqlx.DB
	timeout time.Duration
}

func newDossierPostgresTx(db *sqlx.DB) *dossierPostgresTx {
	return &dossierPostgresTx{db: db}
}

func (t *dossierPostgresTx) RunInTx(ctx context.Context, owner id.ApplicantID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDossierTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, owner.String()); err != nil {
		return err
	}

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}
