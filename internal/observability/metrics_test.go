package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecordHelpersExported(t *testing.T) {
	RecordOperation("settle", 0.01, "unauthorized", errors.New("nope"))
	RecordOperation("make_prediction", 0.01, "", nil)
	RecordStake(1_000_000_000)
	RecordTopUp(5)
	RecordResolution("win", 2_000_000_000)
	UpdateVaultBalance(42)
	RecordEvents(3, nil)
	RecordClockRead(1700000000, nil)

	body := scrape(t)

	for _, want := range []string{
		`solana_prediction_engine_operations_total{operation="settle",status="error"}`,
		`solana_prediction_engine_operation_errors_total{kind="unauthorized",operation="settle"}`,
		`solana_prediction_engine_operations_total{operation="make_prediction",status="ok"}`,
		`solana_prediction_vault_resolutions_total{result="win"}`,
		`solana_prediction_vault_balance_lamports 42`,
		`solana_prediction_clock_last_value_seconds 1.7e+09`,
		`solana_prediction_events_recorded_total`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
