package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Schera-ole/rewards_admin/internal/error"
	"github.com/Schera-ole/rewards_admin/internal/model"
	"github.com/google/uuid"
)

// legalEdges is the single enforcement point for the withdrawal lifecycle:
// PENDING -> APPROVED | REJECTED, APPROVED -> COMPLETED.
// REJECTED and COMPLETED are terminal.
var legalEdges = map[model.Status]map[model.Status]bool{
	model.StatusPending: {
		model.StatusApproved: true,
		model.StatusRejected: true,
	},
	model.StatusApproved: {
		model.StatusCompleted: true,
	},
}

// Filter narrows a listing. Zero values match everything.
// Search matches case-insensitively against the request id or the user id.
type Filter struct {
	Status model.Status
	Search string
}

// Ledger owns the set of withdrawal requests and is the only component
// allowed to mutate their status, timestamps and notes. Writes are
// serialized; readers get copies and never alias ledger-owned records.
type Ledger struct {
	mu       sync.RWMutex
	requests map[string]*model.WithdrawalRequest
}

func New() *Ledger {
	return &Ledger{requests: make(map[string]*model.WithdrawalRequest)}
}

// Load seeds the ledger with previously stored requests.
func (l *Ledger) Load(records []model.WithdrawalRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, record := range records {
		stored := clone(&record)
		l.requests[record.ID] = &stored
	}
}

// Create validates the input and registers a new PENDING request.
// Nothing is added when validation fails.
func (l *Ledger) Create(userID string, amount float64, method model.Method, now time.Time) (model.WithdrawalRequest, error) {
	if userID == "" {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: user id is required", apperrors.ErrInvalidRequest)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidRequest)
	}
	if !method.Valid() {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: unknown payout method %q", apperrors.ErrInvalidRequest, method)
	}

	request := &model.WithdrawalRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Method:      method,
		Status:      model.StatusPending,
		RequestedAt: now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[request.ID] = request

	return clone(request), nil
}

// Transition moves a request along a legal edge. A rejected transition
// leaves the record completely unchanged. decidedAt is stamped the first
// time a request leaves PENDING, completedAt when it enters COMPLETED;
// a non-empty notes value overwrites the previous one.
func (l *Ledger) Transition(id string, target model.Status, notes string, now time.Time) (model.WithdrawalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	request, ok := l.requests[id]
	if !ok {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: %s", apperrors.ErrWithdrawalNotFound, id)
	}
	if !legalEdges[request.Status][target] {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: %s -> %s", apperrors.ErrIllegalTransition, request.Status, target)
	}

	if request.Status == model.StatusPending && request.DecidedAt == nil {
		decided := now
		request.DecidedAt = &decided
	}
	if target == model.StatusCompleted && request.CompletedAt == nil {
		completed := now
		request.CompletedAt = &completed
	}
	request.Status = target
	if notes != "" {
		request.Notes = notes
	}

	return clone(request), nil
}

func (l *Ledger) Get(id string) (model.WithdrawalRequest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	request, ok := l.requests[id]
	if !ok {
		return model.WithdrawalRequest{}, fmt.Errorf("%w: %s", apperrors.ErrWithdrawalNotFound, id)
	}
	return clone(request), nil
}

// List returns matching requests ordered newest first. All provided
// filter fields must match.
func (l *Ledger) List(filter Filter) []model.WithdrawalRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := make([]model.WithdrawalRequest, 0, len(l.requests))
	for _, request := range l.requests {
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(request.ID), search) &&
			!strings.Contains(strings.ToLower(request.UserID), search) {
			continue
		}
		result = append(result, clone(request))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RequestedAt.Equal(result[j].RequestedAt) {
			return result[i].RequestedAt.After(result[j].RequestedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

func clone(request *model.WithdrawalRequest) model.WithdrawalRequest {
	out := *request
	if request.DecidedAt != nil {
		decided := *request.DecidedAt
		out.DecidedAt = &decided
	}
	if request.CompletedAt != nil {
		completed := *request.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
