package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/model"
)

var header = []string{
	"id", "user_id", "amount", "method", "status",
	"requested_at", "decided_at", "completed_at", "notes",
}

// WriteCSV serializes a withdrawal listing to tabular text.
func WriteCSV(w io.Writer, withdrawals []model.WithdrawalRequest) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, withdrawal := range withdrawals {
		row := []string{
			withdrawal.ID,
			withdrawal.UserID,
			strconv.FormatFloat(withdrawal.Amount, 'f', 2, 64),
			string(withdrawal.Method),
			string(withdrawal.Status),
			withdrawal.RequestedAt.Format(time.RFC3339),
			formatTimestamp(withdrawal.DecidedAt),
			formatTimestamp(withdrawal.CompletedAt),
			withdrawal.Notes,
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}
