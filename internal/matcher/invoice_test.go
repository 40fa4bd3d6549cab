package matcher

import (
	"math"
	"testing"
	"time"

	"expensas-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

func createTestInvoices() []*models.Invoice {
	dueDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	return []*models.Invoice{
		{
			ID:          "i1",
			ResidentID:  "r1",
			Amount:      decimal.NewFromFloat(1000.00),
			Status:      models.StatusInArrears,
			PeriodMonth: 2,
			PeriodYear:  2024,
		},
		{
			ID:          "i2",
			ResidentID:  "r1",
			Amount:      decimal.NewFromFloat(1500.00),
			Status:      models.StatusPending,
			DueDate:     dueDate,
			PeriodMonth: 3,
			PeriodYear:  2024,
		},
		{
			ID:          "i3",
			ResidentID:  "r2",
			Amount:      decimal.NewFromFloat(1000.00),
			Status:      models.StatusPending,
			PeriodMonth: 3,
			PeriodYear:  2024,
		},
	}
}

func TestInvoiceMatcher_ExactAmountShortCircuits(t *testing.T) {
	im := NewInvoiceMatcher(nil)
	invoices := createTestInvoices()

	payment := paymentWithAmount(1000.00)

	match, ok := im.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}

	if match.Invoice.ID != "i1" {
		t.Errorf("Expected invoice i1, got %s", match.Invoice.ID)
	}

	if match.Confidence != 100 {
		t.Errorf("Expected confidence 100, got %f", match.Confidence)
	}

	if !containsReason(match.Reasons, "exact amount match") {
		t.Errorf("Expected exact amount reason, got %v", match.Reasons)
	}
}

func TestInvoiceMatcher_ScopedToResident(t *testing.T) {
	im := NewInvoiceMatcher(nil)
	invoices := createTestInvoices()

	payment := paymentWithAmount(1000.00)

	// i3 has the exact amount but belongs to r2; r1's own invoices must win.
	match, ok := im.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}
	if match.Invoice.ResidentID != "r1" {
		t.Errorf("Matched invoice belongs to %s, expected r1", match.Invoice.ResidentID)
	}

	// A resident with no invoices in the list yields no match at all.
	if _, ok := im.Match("r999", payment, invoices); ok {
		t.Error("Expected no match for resident without invoices")
	}
}

func TestInvoiceMatcher_TieredAmountScoring(t *testing.T) {
	im := NewInvoiceMatcher(nil)

	// Single closed-status invoice so no boost obscures the tier scores.
	invoices := []*models.Invoice{
		{
			ID:          "i1",
			ResidentID:  "r1",
			Amount:      decimal.NewFromFloat(1000.00),
			Status:      models.StatusInArrears,
			PeriodMonth: 3,
			PeriodYear:  2024,
		},
	}

	tests := []struct {
		name       string
		amount     float64
		expected   float64
		expectsMatch bool
	}{
		{"under one percent", 995.00, 95, true},
		{"under five percent", 970.00, 85, true},
		{"under ten percent", 925.00, 70, true},
		{"over ten percent", 500.00, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := im.Match("r1", paymentWithAmount(tt.amount), invoices)

			if ok != tt.expectsMatch {
				t.Fatalf("Expected match=%t, got %t", tt.expectsMatch, ok)
			}
			if !tt.expectsMatch {
				return
			}

			if math.Abs(match.Confidence-tt.expected) > 1e-9 {
				t.Errorf("Expected confidence %f, got %f", tt.expected, match.Confidence)
			}
		})
	}
}

func TestInvoiceMatcher_BoostsApplyOnAmountSignal(t *testing.T) {
	im := NewInvoiceMatcher(nil)
	invoices := createTestInvoices()

	// 1492.50 is 0.5% off i2's 1500: base score 95. i2 is pending and due
	// 2024-03-10; a payment three days earlier earns the date boost too.
	payment := paymentWithAmount(1492.50)
	payment.Timestamp = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	match, ok := im.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}

	if match.Invoice.ID != "i2" {
		t.Errorf("Expected invoice i2, got %s", match.Invoice.ID)
	}

	expectedRaw := 95 * 1.1 * 1.05
	if math.Abs(match.RawConfidence-expectedRaw) > 1e-9 {
		t.Errorf("Expected raw confidence %f, got %f", expectedRaw, match.RawConfidence)
	}

	// Default configuration caps the reported confidence at 100.
	if match.Confidence != 100 {
		t.Errorf("Expected clamped confidence 100, got %f", match.Confidence)
	}
}

// The boost arithmetic can push raw scores past 100 (95 x 1.1 x 1.05 is
// 109.725). Clamping is the default; this test pins both behaviors so a
// recalibration that changes either is caught.
func TestInvoiceMatcher_ClampBehaviorPinned(t *testing.T) {
	invoices := createTestInvoices()

	payment := paymentWithAmount(1492.50)
	payment.Timestamp = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	clamped := NewInvoiceMatcher(DefaultMatchingConfig())
	match, ok := clamped.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}
	if match.Confidence != 100 {
		t.Errorf("Expected clamped confidence 100, got %f", match.Confidence)
	}

	unclampedConfig := DefaultMatchingConfig()
	unclampedConfig.ClampConfidence = false
	unclamped := NewInvoiceMatcher(unclampedConfig)
	match, ok = unclamped.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}
	if math.Abs(match.Confidence-95*1.1*1.05) > 1e-9 {
		t.Errorf("Expected unclamped confidence %f, got %f", 95*1.1*1.05, match.Confidence)
	}
}

func TestInvoiceMatcher_BoostsCannotCreateMatch(t *testing.T) {
	im := NewInvoiceMatcher(nil)
	invoices := createTestInvoices()

	// Amount way off i2 but timestamp near its due date and status open:
	// multiplicative boosts on a zero amount score stay zero.
	payment := paymentWithAmount(10.00)
	payment.Timestamp = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	if _, ok := im.Match("r1", payment, invoices); ok {
		t.Error("Expected no match when the amount signal is zero")
	}
}

func TestInvoiceMatcher_DateOutsideWindowNoBoost(t *testing.T) {
	im := NewInvoiceMatcher(nil)
	invoices := createTestInvoices()

	// 0.5% off i2, but paid a month after the due date: only the open-status
	// boost applies.
	payment := paymentWithAmount(1492.50)
	payment.Timestamp = time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	match, ok := im.Match("r1", payment, invoices)
	if !ok {
		t.Fatal("Expected an invoice match")
	}

	expectedRaw := 95 * 1.05
	if math.Abs(match.RawConfidence-expectedRaw) > 1e-9 {
		t.Errorf("Expected raw confidence %f, got %f", expectedRaw, match.RawConfidence)
	}
}

func TestInvoiceMatcher_Tier(t *testing.T) {
	im := NewInvoiceMatcher(nil)

	invoice := &models.Invoice{
		ID:         "i1",
		ResidentID: "r1",
		Amount:     decimal.NewFromFloat(1000.00),
		Status:     models.StatusPending,
	}

	tests := []struct {
		name     string
		amount   float64
		expected MatchTier
	}{
		{"identical", 1000.00, TierExact},
		{"sub-cent difference", 1000.005, TierExact},
		{"within ten percent", 950.00, TierApproximate},
		{"beyond ten percent", 500.00, TierManual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := im.Tier(paymentWithAmount(tt.amount), invoice)
			if got != tt.expected {
				t.Errorf("Tier(%f) = %s, expected %s", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestMatchingConfig_Validate(t *testing.T) {
	if err := DefaultMatchingConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if err := StrictMatchingConfig().Validate(); err != nil {
		t.Errorf("Strict config should be valid: %v", err)
	}
	if err := RelaxedMatchingConfig().Validate(); err != nil {
		t.Errorf("Relaxed config should be valid: %v", err)
	}

	bad := DefaultMatchingConfig()
	bad.EmailConfidence = 150
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for out-of-range confidence")
	}

	bad = DefaultMatchingConfig()
	bad.CloseAmountPercent = 0.5 // below the tight tier bound
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for non-increasing tiers")
	}

	bad = DefaultMatchingConfig()
	bad.DateProximityBoost = 0.9
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for boost below 1.0")
	}
}

func TestMatchingConfig_Clone(t *testing.T) {
	original := DefaultMatchingConfig()
	clone := original.Clone()

	clone.MinPayerConfidence = 99
	if original.MinPayerConfidence == 99 {
		t.Error("Clone should not share state with the original")
	}
}
