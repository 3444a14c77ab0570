package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nxtech/credits_ledger_app/internal/apperrors"
	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
	"github.com/nxtech/credits_ledger_app/internal/models"
	"github.com/nxtech/credits_ledger_app/internal/utils/mapping"
)

const entryColumns = `id, account_kind, account_id, amount, entry_kind, running_balance, description, metadata, created_at`

// PgxLedgerRepository stores credit entries in PostgreSQL. The latest-entry
// row lock taken inside Mutate is what serializes concurrent mutations on the
// same account.
type PgxLedgerRepository struct {
	BaseRepository
}

// NewLedgerRepository creates a new repository for credit entry data.
func NewLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// Mutate runs fn inside one transaction with each account serialized, in the
// order given. Lock acquisition order is the caller's deadlock-avoidance
// contract and is preserved exactly. Each account is guarded by a
// transaction-scoped advisory lock plus a FOR UPDATE lock on its latest entry
// row; the advisory lock is what serializes first mutations on an account
// that has no entry row to lock yet.
func (r *PgxLedgerRepository) Mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx portsrepo.LedgerTx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored if the transaction commits successfully.
	defer r.Rollback(ctx, tx)

	ltx := &pgxLedgerTx{tx: tx}
	for _, account := range accounts {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, advisoryLockID(account)); err != nil {
			return fmt.Errorf("failed to lock account %s: %w", account, classifyPgError(err))
		}
		if _, err := ltx.LatestEntryForUpdate(ctx, account); err != nil {
			return err
		}
	}

	if err := fn(ltx); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// LatestEntry retrieves the most recent entry for the account by id
// descending. created_at is deliberately not part of the ordering: concurrent
// entries may share identical timestamps.
func (r *PgxLedgerRepository) LatestEntry(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM credit_entries
		WHERE account_kind = $1 AND account_id = $2
		ORDER BY id DESC
		LIMIT 1;
	`
	return scanOneEntry(r.Pool.QueryRow(ctx, query, account.Kind, account.ID))
}

// LatestEntryAt retrieves the most recent entry with created_at <= at,
// tie-broken by highest id.
func (r *PgxLedgerRepository) LatestEntryAt(ctx context.Context, account domain.AccountRef, at time.Time) (*domain.CreditEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM credit_entries
		WHERE account_kind = $1 AND account_id = $2 AND created_at <= $3
		ORDER BY id DESC
		LIMIT 1;
	`
	return scanOneEntry(r.Pool.QueryRow(ctx, query, account.Kind, account.ID, at))
}

// ListEntries retrieves up to limit entries ordered by created_at then id.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, account domain.AccountRef, limit int, order domain.SortOrder) ([]domain.CreditEntry, error) {
	// Direction comes from the restricted SortOrder type, never raw input.
	direction := "DESC"
	if order == domain.SortAsc {
		direction = "ASC"
	}
	query := `
		SELECT ` + entryColumns + `
		FROM credit_entries
		WHERE account_kind = $1 AND account_id = $2
		ORDER BY created_at ` + direction + `, id ` + direction + `
		LIMIT $3;
	`

	rows, err := r.Pool.Query(ctx, query, account.Kind, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for account %s: %w", account, classifyPgError(err))
	}
	defer rows.Close()

	entries := []domain.CreditEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row for account %s: %w", account, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows for account %s: %w", account, classifyPgError(err))
	}

	return entries, nil
}

// pgxLedgerTx implements portsrepo.LedgerTx over an open pgx transaction.
type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

// LatestEntryForUpdate locks and returns the account's latest entry within
// the enclosing transaction. The row lock is held until commit or abort.
func (t *pgxLedgerTx) LatestEntryForUpdate(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM credit_entries
		WHERE account_kind = $1 AND account_id = $2
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE;
	`
	return scanOneEntry(t.tx.QueryRow(ctx, query, account.Kind, account.ID))
}

// AppendEntry inserts the entry, assigning its id from the sequence and its
// created_at server-side clock value.
func (t *pgxLedgerTx) AppendEntry(ctx context.Context, entry *domain.CreditEntry) error {
	model, err := mapping.ToModelEntry(*entry)
	if err != nil {
		return err
	}

	createdAt := time.Now().UTC()
	query := `
		INSERT INTO credit_entries (account_kind, account_id, amount, entry_kind, running_balance, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id;
	`
	var description *string
	if model.Description != "" {
		description = &model.Description
	}
	err = t.tx.QueryRow(ctx, query,
		model.AccountKind,
		model.AccountID,
		model.Amount,
		model.EntryKind,
		model.RunningBalance,
		description,
		model.Metadata,
		createdAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert entry for account %s: %w", entry.Account, classifyPgError(err))
	}
	entry.CreatedAt = createdAt
	return nil
}

// entryRow is satisfied by both pgx.Row and pgx.Rows.
type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*domain.CreditEntry, error) {
	var m models.CreditEntry
	var description sql.NullString
	if err := row.Scan(
		&m.ID,
		&m.AccountKind,
		&m.AccountID,
		&m.Amount,
		&m.EntryKind,
		&m.RunningBalance,
		&description,
		&m.Metadata,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		m.Description = description.String
	}
	entry, err := mapping.ToDomainEntry(m)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// scanOneEntry scans a single-row query, mapping no-rows to a nil entry:
// an account with no entries is an empty ledger, not an error.
func scanOneEntry(row entryRow) (*domain.CreditEntry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyPgError(err)
	}
	return entry, nil
}

// advisoryLockID derives the advisory lock key for an account. The key is
// computed client-side from the account's canonical string form so it exists
// independent of any entry row.
func advisoryLockID(account domain.AccountRef) int64 {
	h := fnv.New64a()
	h.Write([]byte(account.String()))
	return int64(h.Sum64())
}

// PostgreSQL error codes signalling transient contention.
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// classifyPgError maps contention signals to apperrors.ErrTransientConflict
// so the engine can retry them. All other errors pass through unchanged.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
			return fmt.Errorf("%w: %s (%s)", apperrors.ErrTransientConflict, pgErr.Message, pgErr.Code)
		}
	}
	return err
}
