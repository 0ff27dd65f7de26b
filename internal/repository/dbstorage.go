package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Schera-ole/rewards_admin/internal/auth"
	apperrors "github.com/Schera-ole/rewards_admin/internal/error"
	"github.com/Schera-ole/rewards_admin/internal/model"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

func (storage *DBStorage) SetOperator(ctx context.Context, operator model.Operator) error {
	// Validate input
	if operator.Username == "" || operator.Password == "" {
		return apperrors.ErrInvalidRequest
	}

	tx, err := storage.db.Begin()
	if err != nil {
		return fmt.Errorf("can't start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	// Check if operator already exists before attempting to create
	exists, err := storage.checkOperatorExists(ctx, tx, operator.Username)
	if err != nil {
		return fmt.Errorf("error checking operator existence: %w", err)
	}
	if exists {
		return apperrors.ErrOperatorAlreadyExists
	}

	passwordHash, err := auth.HashPassword(operator.Password)
	if err != nil {
		return apperrors.ErrPasswordHashing
	}

	query := "INSERT INTO operators (username, password_hash, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())"
	_, err = tx.ExecContext(ctx, query, operator.Username, passwordHash)
	if err != nil {
		return fmt.Errorf("error saving operator: %w", err)
	}

	return nil
}

func (storage *DBStorage) CheckOperator(ctx context.Context, operator model.Operator) (bool, error) {
	// Validate input
	if operator.Username == "" || operator.Password == "" {
		return false, apperrors.ErrInvalidCredentials
	}

	var storedHash string
	query := "SELECT password_hash FROM operators WHERE username = $1"
	err := storage.db.QueryRowContext(ctx, query, operator.Username).Scan(&storedHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, apperrors.ErrOperatorNotFound
		}
		return false, fmt.Errorf("error retrieving operator: %w", err)
	}

	err = auth.CheckPassword(operator.Password, storedHash)
	if err != nil {
		return false, apperrors.ErrInvalidPassword
	}

	return true, nil
}

func (storage *DBStorage) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	var users []model.UserRecord
	query := `
		SELECT id, display_name, total_earned, created_at
		FROM users
		ORDER BY created_at
	`
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return users, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user model.UserRecord
		err := rows.Scan(
			&user.ID,
			&user.DisplayName,
			&user.TotalEarned,
			&user.CreatedAt,
		)
		if err != nil {
			return users, fmt.Errorf("error scanning row: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return users, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (storage *DBStorage) ListWithdrawals(ctx context.Context) ([]model.WithdrawalRequest, error) {
	var withdrawals []model.WithdrawalRequest
	query := `
		SELECT id, user_id, amount, method, status, requested_at, decided_at, completed_at, notes
		FROM withdrawal_requests
		ORDER BY requested_at DESC
	`
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return withdrawals, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var withdrawal model.WithdrawalRequest
		var decidedAt, completedAt sql.NullTime
		var notes sql.NullString
		err := rows.Scan(
			&withdrawal.ID,
			&withdrawal.UserID,
			&withdrawal.Amount,
			&withdrawal.Method,
			&withdrawal.Status,
			&withdrawal.RequestedAt,
			&decidedAt,
			&completedAt,
			&notes,
		)
		if err != nil {
			return withdrawals, fmt.Errorf("error scanning row: %w", err)
		}
		if decidedAt.Valid {
			withdrawal.DecidedAt = &decidedAt.Time
		}
		if completedAt.Valid {
			withdrawal.CompletedAt = &completedAt.Time
		}
		if notes.Valid {
			withdrawal.Notes = notes.String
		}
		withdrawals = append(withdrawals, withdrawal)
	}

	if err = rows.Err(); err != nil {
		return withdrawals, fmt.Errorf("error iterating rows: %w", err)
	}

	return withdrawals, nil
}

func (storage *DBStorage) SaveWithdrawal(ctx context.Context, withdrawal model.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (id, user_id, amount, method, status, requested_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := storage.db.ExecContext(
		ctx,
		query,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.Method,
		withdrawal.Status,
		withdrawal.RequestedAt,
		withdrawal.Notes,
	)
	if err != nil {
		return fmt.Errorf("error inserting withdrawal request: %w", err)
	}
	return nil
}

func (storage *DBStorage) UpdateWithdrawal(ctx context.Context, withdrawal model.WithdrawalRequest) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, decided_at = $2, completed_at = $3, notes = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := storage.db.ExecContext(
		ctx,
		query,
		withdrawal.Status,
		withdrawal.DecidedAt,
		withdrawal.CompletedAt,
		withdrawal.Notes,
		withdrawal.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating withdrawal request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrWithdrawalNotFound
	}
	return nil
}

// Ping checks if the database connection is alive
func (storage *DBStorage) Ping(ctx context.Context) error {
	return storage.db.PingContext(ctx)
}

// Check if operator has already existed
func (storage *DBStorage) checkOperatorExists(ctx context.Context, tx *sql.Tx, username string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM operators WHERE username = $1)"
	err := tx.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking if operator exists: %w", err)
	}
	return exists, nil
}
