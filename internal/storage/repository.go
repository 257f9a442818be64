package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"centsplit/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrRuleExists is returned when a merchant rule for the same description
// already exists.
var ErrRuleExists = errors.New("merchant rule already exists for description")

// SQLiteRepository persists transactions, category overrides, merchant rules
// and share configuration. Maps for the pure core are loaded in bulk once per
// batch or request, never row by row during a resolution pass.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertTransaction inserts a provider transaction or refreshes its provider
// fields. Locally assigned category fields survive re-ingesting the same
// transaction.
func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, description, amount_cents, category_id, parent_category_id, category_name,
			 transfer_account_id, round_up_cents, transaction_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount_cents = excluded.amount_cents,
			transfer_account_id = excluded.transfer_account_id,
			round_up_cents = excluded.round_up_cents,
			transaction_type = excluded.transaction_type`,
		tx.ID, tx.Description, tx.AmountCents, tx.CategoryID, tx.ParentCategoryID, tx.CategoryName,
		tx.TransferAccountID, tx.RoundUpCents, tx.TransactionType, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

const transactionColumns = `id, description, amount_cents, category_id, parent_category_id,
	category_name, transfer_account_id, round_up_cents, transaction_type, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var tx core.Transaction
	var createdAt string
	err := row.Scan(&tx.ID, &tx.Description, &tx.AmountCents, &tx.CategoryID, &tx.ParentCategoryID,
		&tx.CategoryName, &tx.TransferAccountID, &tx.RoundUpCents, &tx.TransactionType, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
		tx.CreatedAt = t
	}
	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactionsByMonth returns all transactions settled in the given
// year+month, oldest first.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE strftime('%Y', created_at) = ? AND strftime('%m', created_at) = ?
		 ORDER BY created_at`,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// SetTransactionCategory persists the final merged category pair and marks
// the transaction categorized.
func (r *SQLiteRepository) SetTransactionCategory(ctx context.Context, id string, pair core.CategoryPair, categoryName string) error {
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("validate category pair: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, parent_category_id = ?, category_name = ?,
		    categorized_at = ?, categorize_error = 0
		WHERE id = ?`,
		pair.CategoryID, pair.ParentCategoryID, categoryName,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set transaction category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	slog.DebugContext(ctx, "Transaction categorized",
		"transaction_id", id,
		"category", pair.CategoryID,
		"parent_category", pair.ParentCategoryID)
	return nil
}

// MarkCategorizeError flags a transaction the categorization pass could not
// persist, so the backup scan retries it later.
func (r *SQLiteRepository) MarkCategorizeError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET categorize_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark categorize error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with categorize error", "transaction_id", id)
	return nil
}

// ResetCategorized clears the categorized marker for one transaction so the
// next pass recomputes it (used after override/rule changes).
func (r *SQLiteRepository) ResetCategorized(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET categorized_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("reset categorized: %w", err)
	}
	return nil
}

// ResetCategorizedByDescription clears the categorized marker for every
// transaction matching the exact description, so a new merchant rule reaches
// past transactions on the next pass. Returns the number of rows affected.
func (r *SQLiteRepository) ResetCategorizedByDescription(ctx context.Context, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET categorized_at = NULL WHERE description = ?`, description)
	if err != nil {
		return 0, fmt.Errorf("reset categorized by description: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetPendingTransactions returns transactions not yet categorized, oldest
// first. This backs the worker's recovery scan when AMQP messages are lost.
func (r *SQLiteRepository) GetPendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE categorized_at IS NULL
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		txns = append(txns, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return txns, nil
}

// UpsertOverride stores a user's explicit category correction for one
// transaction. At most one override per transaction.
func (r *SQLiteRepository) UpsertOverride(ctx context.Context, transactionID string, pair core.CategoryPair) error {
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("validate override: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_overrides (transaction_id, category_id, parent_category_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			category_id = excluded.category_id,
			parent_category_id = excluded.parent_category_id`,
		transactionID, pair.CategoryID, pair.ParentCategoryID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}

	slog.InfoContext(ctx, "Category override saved",
		"transaction_id", transactionID,
		"category", pair.CategoryID)
	return nil
}

func (r *SQLiteRepository) DeleteOverride(ctx context.Context, transactionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM category_overrides WHERE transaction_id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// LoadOverrides reads the full override map for a resolution pass.
func (r *SQLiteRepository) LoadOverrides(ctx context.Context) (map[string]core.CategoryPair, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, category_id, parent_category_id FROM category_overrides`)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]core.CategoryPair)
	for rows.Next() {
		var id string
		var pair core.CategoryPair
		if err := rows.Scan(&id, &pair.CategoryID, &pair.ParentCategoryID); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides[id] = pair
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return overrides, nil
}

// CreateMerchantRule stores a standing description-to-category rule. The
// description must be unique; a duplicate returns ErrRuleExists.
func (r *SQLiteRepository) CreateMerchantRule(ctx context.Context, id, description string, pair core.CategoryPair) error {
	if strings.TrimSpace(description) == "" {
		return core.ErrEmptyDescription
	}
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("validate rule: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchant_rules (id, description, category_id, parent_category_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, description, pair.CategoryID, pair.ParentCategoryID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("description %q: %w", description, ErrRuleExists)
		}
		return fmt.Errorf("create merchant rule: %w", err)
	}

	slog.InfoContext(ctx, "Merchant rule created",
		"rule_id", id,
		"description", description,
		"category", pair.CategoryID)
	return nil
}

func (r *SQLiteRepository) DeleteMerchantRule(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM merchant_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete merchant rule: %w", err)
	}
	return nil
}

// LoadMerchantRules reads the full rule map keyed by exact description.
func (r *SQLiteRepository) LoadMerchantRules(ctx context.Context) (map[string]core.CategoryPair, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT description, category_id, parent_category_id FROM merchant_rules`)
	if err != nil {
		return nil, fmt.Errorf("load merchant rules: %w", err)
	}
	defer rows.Close()

	rules := make(map[string]core.CategoryPair)
	for rows.Next() {
		var desc string
		var pair core.CategoryPair
		if err := rows.Scan(&desc, &pair.CategoryID, &pair.ParentCategoryID); err != nil {
			return nil, fmt.Errorf("scan merchant rule: %w", err)
		}
		rules[desc] = pair
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant rules: %w", err)
	}
	return rules, nil
}

// UpsertCategoryShare stores a category-level share rule. Percentages are
// validated by core.NewShareRule before reaching this point; the schema CHECK
// is a second line of defense only.
func (r *SQLiteRepository) UpsertCategoryShare(ctx context.Context, categoryName string, rule core.ShareRule) error {
	if strings.TrimSpace(categoryName) == "" {
		return core.ErrEmptyCategory
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_shares (category_name, is_shared, share_percentage)
		VALUES (?, ?, ?)
		ON CONFLICT(category_name) DO UPDATE SET
			is_shared = excluded.is_shared,
			share_percentage = excluded.share_percentage`,
		categoryName, rule.Shared, rule.Percentage)
	if err != nil {
		return fmt.Errorf("upsert category share: %w", err)
	}

	slog.InfoContext(ctx, "Category share saved",
		"category", categoryName,
		"is_shared", rule.Shared,
		"share_percentage", rule.Percentage)
	return nil
}

// UpsertTransactionShare stores a per-transaction share override.
func (r *SQLiteRepository) UpsertTransactionShare(ctx context.Context, transactionID string, rule core.ShareRule) error {
	if strings.TrimSpace(transactionID) == "" {
		return core.ErrEmptyTransaction
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_shares (transaction_id, is_shared, share_percentage)
		VALUES (?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			is_shared = excluded.is_shared,
			share_percentage = excluded.share_percentage`,
		transactionID, rule.Shared, rule.Percentage)
	if err != nil {
		return fmt.Errorf("upsert transaction share: %w", err)
	}

	slog.InfoContext(ctx, "Transaction share saved",
		"transaction_id", transactionID,
		"is_shared", rule.Shared,
		"share_percentage", rule.Percentage)
	return nil
}

// LoadShareConfig reads a fresh snapshot of the full sharing setup. Callers
// build one per request/batch and never cache it beyond that.
func (r *SQLiteRepository) LoadShareConfig(ctx context.Context) (core.ShareConfig, error) {
	categories := make(map[string]core.ShareRule)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_name, is_shared, share_percentage FROM category_shares`)
	if err != nil {
		return core.ShareConfig{}, fmt.Errorf("load category shares: %w", err)
	}
	for rows.Next() {
		var name string
		var rule core.ShareRule
		if err := rows.Scan(&name, &rule.Shared, &rule.Percentage); err != nil {
			rows.Close()
			return core.ShareConfig{}, fmt.Errorf("scan category share: %w", err)
		}
		categories[name] = rule
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return core.ShareConfig{}, fmt.Errorf("iterate category shares: %w", err)
	}
	rows.Close()

	transactions := make(map[string]core.ShareRule)
	rows, err = r.db.QueryContext(ctx,
		`SELECT transaction_id, is_shared, share_percentage FROM transaction_shares`)
	if err != nil {
		return core.ShareConfig{}, fmt.Errorf("load transaction shares: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var rule core.ShareRule
		if err := rows.Scan(&id, &rule.Shared, &rule.Percentage); err != nil {
			return core.ShareConfig{}, fmt.Errorf("scan transaction share: %w", err)
		}
		transactions[id] = rule
	}
	if err := rows.Err(); err != nil {
		return core.ShareConfig{}, fmt.Errorf("iterate transaction shares: %w", err)
	}

	cfg, err := core.NewShareConfig(categories, transactions)
	if err != nil {
		return core.ShareConfig{}, fmt.Errorf("build share config: %w", err)
	}
	return cfg, nil
}

// GetIngestCursor returns the provider pagination cursor, "" when no ingest
// has run yet.
func (r *SQLiteRepository) GetIngestCursor(ctx context.Context) (string, error) {
	var cursor string
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor FROM ingest_cursor WHERE id = 1`).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get ingest cursor: %w", err)
	}
	return cursor, nil
}

func (r *SQLiteRepository) SetIngestCursor(ctx context.Context, cursor string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingest_cursor (id, cursor, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at`,
		cursor, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set ingest cursor: %w", err)
	}
	return nil
}
