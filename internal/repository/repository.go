package repository

import (
	"context"

	"github.com/Schera-ole/rewards_admin/internal/model"
)

type Repository interface {
	SetOperator(ctx context.Context, operator model.Operator) error
	CheckOperator(ctx context.Context, operator model.Operator) (bool, error)
	ListUsers(ctx context.Context) ([]model.UserRecord, error)
	ListWithdrawals(ctx context.Context) ([]model.WithdrawalRequest, error)
	SaveWithdrawal(ctx context.Context, withdrawal model.WithdrawalRequest) error
	UpdateWithdrawal(ctx context.Context, withdrawal model.WithdrawalRequest) error
	Ping(ctx context.Context) error
	Close() error
}
