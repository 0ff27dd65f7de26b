package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/config"
	apperrors "github.com/Schera-ole/rewards_admin/internal/error"
	"github.com/Schera-ole/rewards_admin/internal/ledger"
	appmiddleware "github.com/Schera-ole/rewards_admin/internal/middleware"
	"github.com/Schera-ole/rewards_admin/internal/model"
	"github.com/Schera-ole/rewards_admin/internal/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type createWithdrawalRequest struct {
	UserID string       `json:"user_id"`
	Amount float64      `json:"amount"`
	Method model.Method `json:"method"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func Router(
	logger *zap.SugaredLogger,
	config *config.SystemConfig,
	APService *service.AdminPanelService,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(appmiddleware.LoggingMiddleware(logger))
	router.Use(appmiddleware.GzipMiddleware)
	router.Use(middleware.Timeout(15 * time.Second))

	// JWT token authentication setup
	tokenAuth := jwtauth.New(config.JwtAlgorithm, []byte(config.JwtSecretKey), nil)

	// Public routes
	router.Group(func(r chi.Router) {
		r.Post("/api/admin/register", func(w http.ResponseWriter, r *http.Request) {
			RegisterOperatorHandler(w, r, logger, APService, tokenAuth)
		})
		r.Post("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
			LoginOperatorHandler(w, r, logger, APService, tokenAuth)
		})
	})

	// Protected routes - require JWT authentication
	router.Group(func(r chi.Router) {
		// JWT middleware - verifies token from Authorization header
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))

		r.Get("/api/admin/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			ListWithdrawalsHandler(w, r, logger, APService)
		})
		r.Post("/api/admin/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			CreateWithdrawalHandler(w, r, logger, APService)
		})
		r.Get("/api/admin/withdrawals/export", func(w http.ResponseWriter, r *http.Request) {
			ExportWithdrawalsHandler(w, r, logger, APService)
		})
		r.Get("/api/admin/withdrawals/{id}", func(w http.ResponseWriter, r *http.Request) {
			GetWithdrawalHandler(w, r, logger, APService)
		})
		r.Post("/api/admin/withdrawals/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			UpdateWithdrawalStatusHandler(w, r, logger, APService)
		})
		r.Get("/api/admin/stats/payments", func(w http.ResponseWriter, r *http.Request) {
			PaymentStatsHandler(w, r, logger, APService)
		})
		r.Get("/api/admin/stats/users", func(w http.ResponseWriter, r *http.Request) {
			UserStatsHandler(w, r, logger, APService)
		})
	})

	return router
}

func RegisterOperatorHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService, tokenAuth *jwtauth.JWTAuth) {
	body, err := HandleDecompression(r)
	if err != nil {
		http.Error(w, "Failed to decompress request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var operator model.Operator
	if err := json.Unmarshal(body, &operator); err != nil {
		logger.Errorw("Failed to decode operator registration request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if operator.Username == "" || operator.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if err := aps.SetOperator(ctx, operator); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrOperatorAlreadyExists):
			logger.Warnw("Registration attempt for existing operator", "username", operator.Username)
			http.Error(w, "Operator already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidRequest):
			logger.Warnw("Invalid registration request", "username", operator.Username)
			http.Error(w, "Invalid request format", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPasswordHashing):
			logger.Errorw("Password hashing failed during registration", "username", operator.Username, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			logger.Errorw("Failed to register operator", "username", operator.Username, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	issueToken(w, logger, tokenAuth, operator.Username)
}

func LoginOperatorHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService, tokenAuth *jwtauth.JWTAuth) {
	body, err := HandleDecompression(r)
	if err != nil {
		http.Error(w, "Failed to decompress request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var operator model.Operator
	if err := json.Unmarshal(body, &operator); err != nil {
		logger.Errorw("Failed to decode operator login request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if operator.Username == "" || operator.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	_, err = aps.CheckOperator(ctx, operator)
	if err != nil {
		if errors.Is(err, apperrors.ErrOperatorNotFound) || errors.Is(err, apperrors.ErrInvalidPassword) {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		logger.Errorw("Failed to authenticate operator", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	issueToken(w, logger, tokenAuth, operator.Username)
}

func issueToken(w http.ResponseWriter, logger *zap.SugaredLogger, tokenAuth *jwtauth.JWTAuth, username string) {
	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"operator_id": username})
	if err != nil {
		logger.Errorw("Failed to generate JWT token", "username", username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+tokenString)

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(tokenString); err != nil {
		logger.Errorw("Failed to encode token response", "username", username, "error", err)
	}
}

func CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	body, err := HandleDecompression(r)
	if err != nil {
		http.Error(w, "Failed to decompress request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var request createWithdrawalRequest
	if err := json.Unmarshal(body, &request); err != nil {
		logger.Errorw("Failed to decode withdrawal creation request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	withdrawal, err := aps.CreateWithdrawal(ctx, request.UserID, request.Amount, request.Method)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRequest) {
			logger.Warnw("Invalid withdrawal creation request", "user_id", request.UserID, "amount", request.Amount, "method", request.Method)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Errorw("Failed to create withdrawal request", "user_id", request.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Infow("Withdrawal request created", "id", withdrawal.ID, "user_id", withdrawal.UserID, "amount", withdrawal.Amount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(withdrawal); err != nil {
		logger.Errorw("Failed to encode withdrawal response", "id", withdrawal.ID, "error", err)
	}
}

func UpdateWithdrawalStatusHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	// Operator identity from the JWT, for audit logging only
	_, claims, _ := jwtauth.FromContext(r.Context())
	operator, ok := claims["operator_id"].(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")

	body, err := HandleDecompression(r)
	if err != nil {
		http.Error(w, "Failed to decompress request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var request updateStatusRequest
	if err := json.Unmarshal(body, &request); err != nil {
		logger.Errorw("Failed to decode status update request", "id", id, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	target, ok := model.ParseStatus(request.Status)
	if !ok {
		logger.Warnw("Unknown target status", "id", id, "status", request.Status)
		http.Error(w, "Unknown target status", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	withdrawal, err := aps.UpdateWithdrawalStatus(ctx, id, target, request.Notes)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrWithdrawalNotFound):
			logger.Warnw("Status update for unknown withdrawal", "id", id, "operator", operator)
			http.Error(w, "Withdrawal request not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrIllegalTransition):
			logger.Warnw("Illegal status transition", "id", id, "status", target, "operator", operator)
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Errorw("Failed to update withdrawal status", "id", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	logger.Infow("Withdrawal status updated", "id", id, "status", withdrawal.Status, "operator", operator)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(withdrawal); err != nil {
		logger.Errorw("Failed to encode status update response", "id", id, "error", err)
	}
}

func GetWithdrawalHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	id := chi.URLParam(r, "id")

	withdrawal, err := aps.GetWithdrawal(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrWithdrawalNotFound) {
			http.Error(w, "Withdrawal request not found", http.StatusNotFound)
			return
		}
		logger.Errorw("Failed to get withdrawal request", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(withdrawal); err != nil {
		logger.Errorw("Failed to encode withdrawal response", "id", id, "error", err)
	}
}

func ListWithdrawalsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	filter, ok := filterFromQuery(r)
	if !ok {
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	withdrawals := aps.ListWithdrawals(filter)

	// If no withdrawals found, return 204 No Content
	if len(withdrawals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(withdrawals); err != nil {
		logger.Errorw("Failed to encode withdrawals response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

func ExportWithdrawalsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	filter, ok := filterFromQuery(r)
	if !ok {
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="withdrawals.csv"`)

	if err := aps.ExportWithdrawals(w, filter); err != nil {
		logger.Errorw("Failed to export withdrawals", "error", err)
	}
}

func PaymentStatsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	ctx := r.Context()

	snapshot, err := aps.PaymentStats(ctx)
	if err != nil {
		logger.Errorw("Failed to compute payment stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logger.Errorw("Failed to encode payment stats response", "error", err)
	}
}

func UserStatsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, aps *service.AdminPanelService) {
	ctx := r.Context()

	snapshot, err := aps.UserStats(ctx)
	if err != nil {
		logger.Errorw("Failed to compute user stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logger.Errorw("Failed to encode user stats response", "error", err)
	}
}

// filterFromQuery builds a ledger filter from the status and search
// query parameters. "ALL" or an absent status matches everything.
func filterFromQuery(r *http.Request) (ledger.Filter, bool) {
	filter := ledger.Filter{Search: r.URL.Query().Get("search")}

	rawStatus := r.URL.Query().Get("status")
	if rawStatus != "" && rawStatus != "ALL" {
		status, ok := model.ParseStatus(rawStatus)
		if !ok {
			return ledger.Filter{}, false
		}
		filter.Status = status
	}

	return filter, true
}
