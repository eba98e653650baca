package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

// Repository provides database operations against the remote replica
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateUser creates a new user together with an empty finance row
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err = tx.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO finance_data (user_id) VALUES ($1)`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to create finance record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetFinance loads the finance row of a user
func (r *Repository) GetFinance(ctx context.Context, userID string) (*models.FinanceRecord, error) {
	rec := &models.FinanceRecord{UserID: userID}
	var pending []byte
	query := `
		SELECT current_balance_ars, current_balance_usd, exchange_rate, emergency_buffer,
		       pending_expenses, updated_at
		FROM finance_data
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.CurrentBalanceARS, &rec.CurrentBalanceUSD, &rec.ExchangeRate, &rec.EmergencyBuffer,
		&pending, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finance record: %w", err)
	}
	if err := json.Unmarshal(pending, &rec.PendingExpenses); err != nil {
		return nil, fmt.Errorf("failed to decode pending expenses: %w", err)
	}
	return rec, nil
}

// UpdateFinance writes balances and the transaction list in one statement
func (r *Repository) UpdateFinance(ctx context.Context, userID string, upd models.FinanceUpdate) error {
	pending, err := json.Marshal(nonNil(upd.PendingExpenses))
	if err != nil {
		return fmt.Errorf("failed to encode pending expenses: %w", err)
	}
	query := `
		UPDATE finance_data
		SET current_balance_ars = $2, current_balance_usd = $3, pending_expenses = $4, updated_at = $5
		WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, upd.CurrentBalanceARS, upd.CurrentBalanceUSD, pending, upd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update finance record: %w", err)
	}
	return expectRow(res)
}

// UpdateExchangeRate stores a freshly fetched USD rate for every user
func (r *Repository) UpdateExchangeRate(ctx context.Context, rate float64, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE finance_data SET exchange_rate = $1, updated_at = $2`, rate, at)
	if err != nil {
		return 0, fmt.Errorf("failed to update exchange rate: %w", err)
	}
	return res.RowsAffected()
}

// GetFinanceDocument loads the synced finance document of a user
func (r *Repository) GetFinanceDocument(ctx context.Context, userID string) (*models.RemoteFinanceDocument, error) {
	doc := &models.RemoteFinanceDocument{UserID: userID}
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data, updated_at FROM finances WHERE user_id = $1`, userID).
		Scan(&data, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finance document: %w", err)
	}
	if err := json.Unmarshal(data, &doc.Data); err != nil {
		return nil, fmt.Errorf("failed to decode finance document: %w", err)
	}
	return doc, nil
}

func (r *Repository) InsertFinanceDocument(ctx context.Context, userID string, doc models.FinanceDocument, at time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode finance document: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO finances (user_id, data, updated_at) VALUES ($1, $2, $3)`, userID, data, at)
	if err != nil {
		return fmt.Errorf("failed to insert finance document: %w", err)
	}
	return nil
}

func (r *Repository) UpdateFinanceDocument(ctx context.Context, userID string, doc models.FinanceDocument, at time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode finance document: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE finances SET data = $2, updated_at = $3 WHERE user_id = $1`, userID, data, at)
	if err != nil {
		return fmt.Errorf("failed to update finance document: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
