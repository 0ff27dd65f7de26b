package stats

import (
	"sort"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/model"
)

const DefaultTopEarnersLimit = 5

// Aggregator derives read-only snapshots from the current withdrawal
// listing and user registry. It holds no state beyond configuration, so
// identical inputs always produce identical snapshots.
type Aggregator struct {
	topEarnersLimit int
}

func New(topEarnersLimit int) *Aggregator {
	if topEarnersLimit <= 0 {
		topEarnersLimit = DefaultTopEarnersLimit
	}
	return &Aggregator{topEarnersLimit: topEarnersLimit}
}

// ComputePaymentStats sums withdrawal amounts per lifecycle phase and
// ranks users by lifetime earnings. Empty inputs degrade to a
// zero-valued snapshot, never an error.
func (a *Aggregator) ComputePaymentStats(withdrawals []model.WithdrawalRequest, users []model.UserRecord) model.PaymentStatsSnapshot {
	snapshot := model.PaymentStatsSnapshot{TopEarners: []model.TopEarner{}}

	completed := 0
	for _, withdrawal := range withdrawals {
		switch withdrawal.Status {
		case model.StatusCompleted:
			snapshot.TotalPaid += withdrawal.Amount
			completed++
		case model.StatusPending:
			snapshot.PendingAmount += withdrawal.Amount
		case model.StatusRejected:
			snapshot.RejectedAmount += withdrawal.Amount
		}
	}
	if completed > 0 {
		snapshot.AverageWithdrawal = snapshot.TotalPaid / float64(completed)
	}

	ranked := make([]model.UserRecord, len(users))
	copy(ranked, users)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalEarned != ranked[j].TotalEarned {
			return ranked[i].TotalEarned > ranked[j].TotalEarned
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > a.topEarnersLimit {
		ranked = ranked[:a.topEarnersLimit]
	}
	for _, user := range ranked {
		snapshot.TopEarners = append(snapshot.TopEarners, model.TopEarner{
			UserID:      user.ID,
			UserName:    user.DisplayName,
			TotalEarned: user.TotalEarned,
		})
	}

	return snapshot
}

// ComputeUserStats counts users and rewards. The now argument is sampled
// once by the caller so the day boundary is consistent across the whole
// computation.
func (a *Aggregator) ComputeUserStats(users []model.UserRecord, now time.Time) model.UserStatsSnapshot {
	snapshot := model.UserStatsSnapshot{TotalUsers: len(users)}

	year, month, day := now.Date()
	for _, user := range users {
		snapshot.TotalRewardsEarned += user.TotalEarned
		uy, um, ud := user.CreatedAt.In(now.Location()).Date()
		if uy == year && um == month && ud == day {
			snapshot.NewUsersToday++
		}
	}

	return snapshot
}
