package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/config"
	apperrors "github.com/Schera-ole/rewards_admin/internal/error"
	"github.com/Schera-ole/rewards_admin/internal/model"
	"github.com/Schera-ole/rewards_admin/internal/service"
	"github.com/Schera-ole/rewards_admin/internal/stats"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTime = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// stubRepository keeps everything in memory so handler tests run
// without a database.
type stubRepository struct {
	operators   map[string]string
	users       []model.UserRecord
	withdrawals []model.WithdrawalRequest
}

func newStubRepository() *stubRepository {
	return &stubRepository{operators: make(map[string]string)}
}

func (s *stubRepository) SetOperator(_ context.Context, operator model.Operator) error {
	if _, ok := s.operators[operator.Username]; ok {
		return apperrors.ErrOperatorAlreadyExists
	}
	s.operators[operator.Username] = operator.Password
	return nil
}

func (s *stubRepository) CheckOperator(_ context.Context, operator model.Operator) (bool, error) {
	password, ok := s.operators[operator.Username]
	if !ok {
		return false, apperrors.ErrOperatorNotFound
	}
	if password != operator.Password {
		return false, apperrors.ErrInvalidPassword
	}
	return true, nil
}

func (s *stubRepository) ListUsers(_ context.Context) ([]model.UserRecord, error) {
	return s.users, nil
}

func (s *stubRepository) ListWithdrawals(_ context.Context) ([]model.WithdrawalRequest, error) {
	return s.withdrawals, nil
}

func (s *stubRepository) SaveWithdrawal(_ context.Context, withdrawal model.WithdrawalRequest) error {
	s.withdrawals = append(s.withdrawals, withdrawal)
	return nil
}

func (s *stubRepository) UpdateWithdrawal(_ context.Context, withdrawal model.WithdrawalRequest) error {
	for i := range s.withdrawals {
		if s.withdrawals[i].ID == withdrawal.ID {
			s.withdrawals[i] = withdrawal
			return nil
		}
	}
	return apperrors.ErrWithdrawalNotFound
}

func (s *stubRepository) Ping(_ context.Context) error { return nil }
func (s *stubRepository) Close() error                 { return nil }

func newTestRouter(t *testing.T, repo *stubRepository) (chi.Router, string) {
	t.Helper()

	systemConfig := &config.SystemConfig{
		JwtSecretKey:    "test-secret",
		JwtAlgorithm:    "HS256",
		TopEarnersLimit: 5,
	}
	logger := zap.NewNop().Sugar()

	adminService := service.NewAdminPanelService(repo, stats.New(systemConfig.TopEarnersLimit), logger, func() time.Time { return testTime })
	router := Router(logger, systemConfig, adminService)

	tokenAuth := jwtauth.New(systemConfig.JwtAlgorithm, []byte(systemConfig.JwtSecretKey), nil)
	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"operator_id": "test-operator"})
	require.NoError(t, err)

	return router, tokenString
}

func doRequest(t *testing.T, router chi.Router, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func createWithdrawal(t *testing.T, router chi.Router, token string, userID string, amount float64, method model.Method) model.WithdrawalRequest {
	t.Helper()

	body := fmt.Sprintf(`{"user_id":%q,"amount":%v,"method":%q}`, userID, amount, method)
	rr := doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	var withdrawal model.WithdrawalRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &withdrawal))
	return withdrawal
}

func TestAuthenticationRequired(t *testing.T) {
	router, _ := newTestRouter(t, newStubRepository())

	rr := doRequest(t, router, "", http.MethodGet, "/api/admin/withdrawals", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterAndLoginOperator(t *testing.T) {
	router, _ := newTestRouter(t, newStubRepository())

	rr := doRequest(t, router, "", http.MethodPost, "/api/admin/register", `{"login":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Authorization"), "Bearer ")

	rr = doRequest(t, router, "", http.MethodPost, "/api/admin/login", `{"login":"admin","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, router, "", http.MethodPost, "/api/admin/login", `{"login":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, router, "", http.MethodPost, "/api/admin/register", `{"login":"admin","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreateWithdrawalValidation(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
	}{
		{
			name:           "Valid request",
			requestBody:    `{"user_id":"u1","amount":100,"method":"BANK_TRANSFER"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid JSON",
			requestBody:    "not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Zero amount",
			requestBody:    `{"user_id":"u1","amount":0,"method":"BANK_TRANSFER"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Negative amount",
			requestBody:    `{"user_id":"u1","amount":-10,"method":"BANK_TRANSFER"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing user id",
			requestBody:    `{"amount":100,"method":"BANK_TRANSFER"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown method",
			requestBody:    `{"user_id":"u1","amount":100,"method":"CHEQUE"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, token := newTestRouter(t, newStubRepository())

			rr := doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	repo := newStubRepository()
	router, token := newTestRouter(t, repo)

	withdrawal := createWithdrawal(t, router, token, "u1", 100, model.MethodBankTransfer)
	assert.Equal(t, model.StatusPending, withdrawal.Status)

	// Skipping APPROVED is rejected and the record stays PENDING
	rr := doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals/"+withdrawal.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var current model.WithdrawalRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, model.StatusPending, current.Status)

	rr = doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"APPROVED","notes":"checked"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"COMPLETED"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, model.StatusCompleted, current.Status)
	assert.NotNil(t, current.DecidedAt)
	assert.NotNil(t, current.CompletedAt)
	assert.Equal(t, "checked", current.Notes)

	// Write-through persistence keeps the stub repository in sync
	require.Len(t, repo.withdrawals, 1)
	assert.Equal(t, model.StatusCompleted, repo.withdrawals[0].Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	router, token := newTestRouter(t, newStubRepository())

	rr := doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/no-such-id/status", `{"status":"APPROVED"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	withdrawal := createWithdrawal(t, router, token, "u1", 100, model.MethodCard)
	rr = doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListWithdrawals(t *testing.T) {
	router, token := newTestRouter(t, newStubRepository())

	rr := doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	createWithdrawal(t, router, token, "user-alpha", 100, model.MethodBankTransfer)
	second := createWithdrawal(t, router, token, "user-beta", 200, model.MethodCard)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []model.WithdrawalRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals?search=BETA", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals?status=COMPLETED", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals?status=BOGUS", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentStatsEndpoint(t *testing.T) {
	repo := newStubRepository()
	repo.users = []model.UserRecord{
		{ID: "u1", DisplayName: "Alice", TotalEarned: 300, CreatedAt: testTime},
		{ID: "u2", DisplayName: "Bob", TotalEarned: 100, CreatedAt: testTime},
		{ID: "u3", DisplayName: "Carol", TotalEarned: 200, CreatedAt: testTime},
	}
	router, token := newTestRouter(t, repo)

	withdrawal := createWithdrawal(t, router, token, "u1", 100, model.MethodBankTransfer)

	rr := doRequest(t, router, token, http.MethodGet, "/api/admin/stats/payments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snapshot model.PaymentStatsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 100.0, snapshot.PendingAmount)
	assert.Zero(t, snapshot.TotalPaid)
	require.Len(t, snapshot.TopEarners, 3)
	assert.Equal(t, "Alice", snapshot.TopEarners[0].UserName)

	doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"APPROVED"}`)
	doRequest(t, router, token, http.MethodPost, "/api/admin/withdrawals/"+withdrawal.ID+"/status", `{"status":"COMPLETED"}`)

	rr = doRequest(t, router, token, http.MethodGet, "/api/admin/stats/payments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 100.0, snapshot.TotalPaid)
	assert.Zero(t, snapshot.PendingAmount)
	assert.Equal(t, 100.0, snapshot.AverageWithdrawal)
}

func TestUserStatsEndpoint(t *testing.T) {
	repo := newStubRepository()
	repo.users = []model.UserRecord{
		{ID: "u1", TotalEarned: 100, CreatedAt: testTime.Add(-time.Hour)},
		{ID: "u2", TotalEarned: 200, CreatedAt: testTime.Add(-48 * time.Hour)},
	}
	router, token := newTestRouter(t, repo)

	rr := doRequest(t, router, token, http.MethodGet, "/api/admin/stats/users", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot model.UserStatsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 2, snapshot.TotalUsers)
	assert.Equal(t, 1, snapshot.NewUsersToday)
	assert.Equal(t, 300.0, snapshot.TotalRewardsEarned)
}

func TestExportWithdrawals(t *testing.T) {
	router, token := newTestRouter(t, newStubRepository())

	withdrawal := createWithdrawal(t, router, token, "u1", 123.45, model.MethodMobileMoney)

	rr := doRequest(t, router, token, http.MethodGet, "/api/admin/withdrawals/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,user_id,amount"))
	assert.Contains(t, lines[1], withdrawal.ID)
	assert.Contains(t, lines[1], "123.45")
}

func TestGzipRequestBody(t *testing.T) {
	router, token := newTestRouter(t, newStubRepository())

	var compressed bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressed)
	_, err := gzipWriter.Write([]byte(`{"user_id":"u1","amount":100,"method":"BANK_TRANSFER"}`))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals", &compressed)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
}
