package service

import (
	"context"
	"io"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/export"
	"github.com/Schera-ole/rewards_admin/internal/ledger"
	"github.com/Schera-ole/rewards_admin/internal/model"
	"github.com/Schera-ole/rewards_admin/internal/repository"
	"github.com/Schera-ole/rewards_admin/internal/stats"
	"go.uber.org/zap"
)

// Clock supplies "now" for ledger transitions and statistics. It is
// sampled once per operation and threaded through explicitly so the
// core stays deterministic under injected fixed times.
type Clock func() time.Time

// AdminPanelService wires the withdrawal ledger, the statistics
// aggregator and the database collaborators together. The in-process
// ledger is the source of truth for withdrawal state; storage writes
// are write-through and a persistence failure never rolls back an
// already applied transition.
type AdminPanelService struct {
	ledger     *ledger.Ledger
	aggregator *stats.Aggregator
	repo       repository.Repository
	clock      Clock
	logger     *zap.SugaredLogger
}

func NewAdminPanelService(repo repository.Repository, aggregator *stats.Aggregator, logger *zap.SugaredLogger, clock Clock) *AdminPanelService {
	if clock == nil {
		clock = time.Now
	}
	return &AdminPanelService{
		ledger:     ledger.New(),
		aggregator: aggregator,
		repo:       repo,
		clock:      clock,
		logger:     logger,
	}
}

// LoadLedger seeds the in-process ledger from storage at startup.
func (aps *AdminPanelService) LoadLedger(ctx context.Context) error {
	withdrawals, err := aps.repo.ListWithdrawals(ctx)
	if err != nil {
		return err
	}
	aps.ledger.Load(withdrawals)
	return nil
}

func (aps *AdminPanelService) SetOperator(ctx context.Context, operator model.Operator) error {
	return aps.repo.SetOperator(ctx, operator)
}

func (aps *AdminPanelService) CheckOperator(ctx context.Context, operator model.Operator) (bool, error) {
	return aps.repo.CheckOperator(ctx, operator)
}

func (aps *AdminPanelService) CreateWithdrawal(ctx context.Context, userID string, amount float64, method model.Method) (model.WithdrawalRequest, error) {
	withdrawal, err := aps.ledger.Create(userID, amount, method, aps.clock())
	if err != nil {
		return model.WithdrawalRequest{}, err
	}
	if err := aps.repo.SaveWithdrawal(ctx, withdrawal); err != nil {
		aps.logger.Errorw("Failed to persist withdrawal request", "id", withdrawal.ID, "error", err)
	}
	return withdrawal, nil
}

func (aps *AdminPanelService) UpdateWithdrawalStatus(ctx context.Context, id string, target model.Status, notes string) (model.WithdrawalRequest, error) {
	withdrawal, err := aps.ledger.Transition(id, target, notes, aps.clock())
	if err != nil {
		return model.WithdrawalRequest{}, err
	}
	if err := aps.repo.UpdateWithdrawal(ctx, withdrawal); err != nil {
		aps.logger.Errorw("Failed to persist status update", "id", withdrawal.ID, "status", withdrawal.Status, "error", err)
	}
	return withdrawal, nil
}

func (aps *AdminPanelService) GetWithdrawal(id string) (model.WithdrawalRequest, error) {
	return aps.ledger.Get(id)
}

func (aps *AdminPanelService) ListWithdrawals(filter ledger.Filter) []model.WithdrawalRequest {
	return aps.ledger.List(filter)
}

// ExportWithdrawals serializes the filtered listing to CSV.
func (aps *AdminPanelService) ExportWithdrawals(w io.Writer, filter ledger.Filter) error {
	return export.WriteCSV(w, aps.ledger.List(filter))
}

func (aps *AdminPanelService) PaymentStats(ctx context.Context) (model.PaymentStatsSnapshot, error) {
	users, err := aps.repo.ListUsers(ctx)
	if err != nil {
		return model.PaymentStatsSnapshot{}, err
	}
	return aps.aggregator.ComputePaymentStats(aps.ledger.List(ledger.Filter{}), users), nil
}

func (aps *AdminPanelService) UserStats(ctx context.Context) (model.UserStatsSnapshot, error) {
	users, err := aps.repo.ListUsers(ctx)
	if err != nil {
		return model.UserStatsSnapshot{}, err
	}
	return aps.aggregator.ComputeUserStats(users, aps.clock()), nil
}
