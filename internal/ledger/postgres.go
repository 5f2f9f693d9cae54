package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// transactionColumns selects a transaction row "t" joined with its optional
// category "c". Amounts travel as text to keep decimal precision exact.
const transactionColumns = `t.id, t.amount::text, t.description, t.kind, t.date, t.user_id::text, t.category_id,
        t.created_at, t.updated_at, c.id, c.name, c.created_at, c.updated_at`

// PostgresLedger persists transactions and categories in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Ping checks database connectivity.
func (l *PostgresLedger) Ping(ctx context.Context) error {
	return l.db.Ping(ctx)
}

// CreateTransaction inserts a transaction and returns it with its category
// resolved. A dangling category id fails on the foreign key.
func (l *PostgresLedger) CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	query := `WITH t AS (
            INSERT INTO transactions (amount, description, kind, date, user_id, category_id, created_at, updated_at)
            VALUES ($1::numeric, $2, $3, $4, $5::uuid, $6, $7, $7)
            RETURNING *
        )
        SELECT ` + transactionColumns + `
        FROM t LEFT JOIN categories c ON c.id = t.category_id`
	now := time.Now().UTC()
	row := l.db.QueryRow(ctx, query, tx.Amount.String(), tx.Description, string(tx.Kind), tx.Date.UTC(), tx.OwnerID, tx.CategoryID, now)
	created, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

// ListTransactions returns the owner's transactions matching filter, newest first.
func (l *PostgresLedger) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	where := []string{"t.user_id = $1::uuid"}
	args := []any{filter.OwnerID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Kind != "" {
		add("t.kind = $%d", string(filter.Kind))
	}
	if filter.CategoryID != nil {
		add("t.category_id = $%d", *filter.CategoryID)
	}
	if filter.From != nil {
		add("t.date >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		add("t.date <= $%d", filter.To.UTC())
	}

	query := `SELECT ` + transactionColumns + `
        FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
        WHERE ` + strings.Join(where, " AND ") + `
        ORDER BY t.date DESC, t.id DESC`

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// GetTransaction fetches one transaction owned by ownerID.
func (l *PostgresLedger) GetTransaction(ctx context.Context, ownerID string, id int64) (Transaction, error) {
	query := `SELECT ` + transactionColumns + `
        FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
        WHERE t.id = $1 AND t.user_id = $2::uuid`
	tx, err := scanTransaction(l.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, err
}

// UpdateTransaction applies the supplied fields of p in a single statement.
func (l *PostgresLedger) UpdateTransaction(ctx context.Context, ownerID string, id int64, p TransactionPatch) (Transaction, error) {
	sets := []string{"updated_at = $3"}
	args := []any{id, ownerID, time.Now().UTC()}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Amount.HasValue() {
		set("amount", p.Amount.Value.String())
	}
	if p.Description.HasValue() {
		set("description", p.Description.Value)
	}
	if p.Kind.HasValue() {
		set("kind", string(p.Kind.Value))
	}
	if p.Date.HasValue() {
		set("date", p.Date.Value.UTC())
	}
	if p.CategoryID.Present {
		set("category_id", p.CategoryID.Ptr())
	}

	query := `WITH t AS (
            UPDATE transactions SET ` + strings.Join(sets, ", ") + `
            WHERE id = $1 AND user_id = $2::uuid
            RETURNING *
        )
        SELECT ` + transactionColumns + `
        FROM t LEFT JOIN categories c ON c.id = t.category_id`

	tx, err := scanTransaction(l.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction owned by ownerID.
func (l *PostgresLedger) DeleteTransaction(ctx context.Context, ownerID string, id int64) error {
	cmd, err := l.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2::uuid`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// CreateCategory inserts a category with a unique name.
func (l *PostgresLedger) CreateCategory(ctx context.Context, name string) (Category, error) {
	now := time.Now().UTC()
	row := l.db.QueryRow(ctx, `INSERT INTO categories (name, created_at, updated_at) VALUES ($1, $2, $2)
        RETURNING id, name, created_at, updated_at`, name, now)
	cat, err := scanCategory(row)
	if isUniqueViolation(err) {
		return Category{}, ErrDuplicateCategory
	}
	return cat, err
}

// ListCategories returns every category ordered by name with usage counts.
func (l *PostgresLedger) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	rows, err := l.db.Query(ctx, `SELECT c.id, c.name, c.created_at, c.updated_at, COUNT(t.id)
        FROM categories c LEFT JOIN transactions t ON t.category_id = c.id
        GROUP BY c.id
        ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]CategorySummary, 0)
	for rows.Next() {
		var s CategorySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		cats = append(cats, s)
	}
	return cats, rows.Err()
}

// GetCategory fetches a category with its usage count.
func (l *PostgresLedger) GetCategory(ctx context.Context, id int64) (CategorySummary, error) {
	var s CategorySummary
	err := l.db.QueryRow(ctx, `SELECT c.id, c.name, c.created_at, c.updated_at,
            (SELECT COUNT(*) FROM transactions t WHERE t.category_id = c.id)
        FROM categories c WHERE c.id = $1`, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt, &s.TransactionCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return CategorySummary{}, ErrCategoryNotFound
	}
	if err != nil {
		return CategorySummary{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// RenameCategory changes a category name, keeping names unique.
func (l *PostgresLedger) RenameCategory(ctx context.Context, id int64, name string) (Category, error) {
	row := l.db.QueryRow(ctx, `UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3
        RETURNING id, name, created_at, updated_at`, name, time.Now().UTC(), id)
	cat, err := scanCategory(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Category{}, ErrCategoryNotFound
	case isUniqueViolation(err):
		return Category{}, ErrDuplicateCategory
	}
	return cat, err
}

// DeleteCategory removes a category, handling referencing transactions
// according to policy inside one database transaction.
func (l *PostgresLedger) DeleteCategory(ctx context.Context, id int64, policy DeletePolicy) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return err
	}

	switch policy {
	case DeleteRestrict:
		var inUse bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1)`, id).Scan(&inUse); err != nil {
			return err
		}
		if inUse {
			return ErrCategoryInUse
		}
	case DeleteCascade:
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("cascade category %d: %w", id, err)
		}
	default:
		if _, err := tx.Exec(ctx, `UPDATE transactions SET category_id = NULL, updated_at = $2 WHERE category_id = $1`, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("detach category %d: %w", id, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	return tx.Commit(ctx)
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx         Transaction
		amount     string
		kind       string
		catID      *int64
		catName    *string
		catCreated *time.Time
		catUpdated *time.Time
	)
	if err := row.Scan(&tx.ID, &amount, &tx.Description, &kind, &tx.Date, &tx.OwnerID, &tx.CategoryID,
		&tx.CreatedAt, &tx.UpdatedAt, &catID, &catName, &catCreated, &catUpdated); err != nil {
		return Transaction{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.Amount = parsed
	tx.Kind = Kind(kind)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()
	if catID != nil && catName != nil {
		tx.Category = &Category{ID: *catID, Name: *catName}
		if catCreated != nil {
			tx.Category.CreatedAt = catCreated.UTC()
		}
		if catUpdated != nil {
			tx.Category.UpdatedAt = catUpdated.UTC()
		}
	}
	return tx, nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
