package model

import "time"

// Status is the lifecycle state of a withdrawal request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus maps a raw string onto a known Status.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return Status(raw), true
	}
	return "", false
}

// Method is the payout channel of a withdrawal request.
type Method string

const (
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodMobileMoney  Method = "MOBILE_MONEY"
	MethodCard         Method = "CARD"
)

func (m Method) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodMobileMoney, MethodCard:
		return true
	}
	return false
}

type WithdrawalRequest struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Amount      float64    `json:"amount"`
	Method      Method     `json:"method"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type UserRecord struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	TotalEarned float64   `json:"total_earned"`
	CreatedAt   time.Time `json:"created_at"`
}

type TopEarner struct {
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	TotalEarned float64 `json:"total_earned"`
}

type PaymentStatsSnapshot struct {
	TotalPaid         float64     `json:"total_paid"`
	PendingAmount     float64     `json:"pending_amount"`
	RejectedAmount    float64     `json:"rejected_amount"`
	AverageWithdrawal float64     `json:"average_withdrawal"`
	TopEarners        []TopEarner `json:"top_earners"`
}

type UserStatsSnapshot struct {
	TotalUsers         int     `json:"total_users"`
	NewUsersToday      int     `json:"new_users_today"`
	TotalRewardsEarned float64 `json:"total_rewards_earned"`
}

// Operator is an admin panel account.
type Operator struct {
	Username string `json:"login"`
	Password string `json:"password"`
}
