package matcher

import (
	"fmt"

	"expensas-reconciler/internal/models"
)

// InvoiceMatcher locates the outstanding invoice a payment most likely
// settles, scoped to the invoices of an already-identified resident.
type InvoiceMatcher struct {
	config *MatchingConfig
}

// InvoiceMatch is the outcome of matching a payment against a resident's
// invoices. RawConfidence carries the unclamped arithmetic; Confidence is
// the reported score after the configured cap.
type InvoiceMatch struct {
	Invoice       *models.Invoice
	Confidence    float64
	RawConfidence float64
	Reasons       []string
}

// NewInvoiceMatcher creates an invoice matcher with the given configuration
func NewInvoiceMatcher(config *MatchingConfig) *InvoiceMatcher {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &InvoiceMatcher{config: config}
}

// Match scans the invoices belonging to residentID and returns the best
// scoring one, or ok=false when the resident has no invoices in the list or
// no invoice earns a non-zero score. An exact amount match short-circuits
// the scan, since no other invoice can score higher.
//
// The caller is expected to pre-filter the list to open invoices; status is
// only used here as a scoring signal, never as a filter.
func (im *InvoiceMatcher) Match(residentID string, payment *models.PaymentRecord, invoices []*models.Invoice) (*InvoiceMatch, bool) {
	if payment == nil || residentID == "" {
		return nil, false
	}

	var best *InvoiceMatch

	for _, invoice := range invoices {
		if invoice == nil || invoice.ResidentID != residentID {
			continue
		}

		match, exact := im.scoreInvoice(payment, invoice)

		if exact {
			return match, true
		}

		if best == nil || match.RawConfidence > best.RawConfidence {
			best = match
		}
	}

	if best == nil || best.RawConfidence <= 0 {
		return nil, false
	}

	return best, true
}

// scoreInvoice scores one invoice against the payment. The amount signal is
// primary; the date-proximity and open-status boosts are multiplicative, so
// they cannot manufacture a match out of a zero amount score.
func (im *InvoiceMatcher) scoreInvoice(payment *models.PaymentRecord, invoice *models.Invoice) (match *InvoiceMatch, exact bool) {
	match = &InvoiceMatch{Invoice: invoice}

	absDiff := invoice.Amount.Sub(payment.Amount).Abs()

	if absDiff.LessThan(im.config.ExactAmountEpsilon) {
		match.RawConfidence = 100
		match.Confidence = 100
		match.Reasons = append(match.Reasons, "exact amount match")
		return match, true
	}

	confidence := 0.0
	if invoice.Amount.IsPositive() {
		pctDiff := absDiff.Div(invoice.Amount).InexactFloat64() * 100

		switch {
		case pctDiff < im.config.TightAmountPercent:
			confidence = im.config.TightAmountScore
			match.Reasons = append(match.Reasons,
				fmt.Sprintf("amount within %.1f%% of invoice", im.config.TightAmountPercent))
		case pctDiff < im.config.CloseAmountPercent:
			confidence = im.config.CloseAmountScore
			match.Reasons = append(match.Reasons,
				fmt.Sprintf("amount within %.1f%% of invoice", im.config.CloseAmountPercent))
		case pctDiff < im.config.LooseAmountPercent:
			confidence = im.config.LooseAmountScore
			match.Reasons = append(match.Reasons,
				fmt.Sprintf("amount within %.1f%% of invoice", im.config.LooseAmountPercent))
		}
	}

	if payment.HasTimestamp() && invoice.HasDueDate() &&
		models.DaysBetween(payment.Timestamp, invoice.DueDate) <= im.config.DateProximityDays {
		confidence *= im.config.DateProximityBoost
		if confidence > 0 {
			match.Reasons = append(match.Reasons,
				fmt.Sprintf("payment within %d days of due date", im.config.DateProximityDays))
		}
	}

	if invoice.IsOpen() {
		confidence *= im.config.OpenStatusBoost
		if confidence > 0 {
			match.Reasons = append(match.Reasons, "invoice awaiting payment")
		}
	}

	match.RawConfidence = confidence
	match.Confidence = im.config.ClampScore(confidence)

	return match, false
}

// Tier derives the match tier from the absolute difference between the
// payment and invoice amounts, relative to the invoice amount. The function
// is deterministic: under one cent is exact, under the loose tier percentage
// is approximate, anything wider is manual.
func (im *InvoiceMatcher) Tier(payment *models.PaymentRecord, invoice *models.Invoice) MatchTier {
	absDiff := invoice.Amount.Sub(payment.Amount).Abs()

	if absDiff.LessThan(im.config.ExactAmountEpsilon) {
		return TierExact
	}

	if invoice.Amount.IsPositive() {
		pctDiff := absDiff.Div(invoice.Amount).InexactFloat64() * 100
		if pctDiff < im.config.LooseAmountPercent {
			return TierApproximate
		}
	}

	return TierManual
}
