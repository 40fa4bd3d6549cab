// Package reconciler orchestrates payer identification and invoice matching
// into a single decision per payment, and batch-processes payment lists into
// auto-applied matches and a manual-review queue.
//
// The engine is a pure computation over in-memory snapshots: it performs no
// I/O, holds no mutable state between calls, and is safe to invoke
// concurrently. Persisting results and transitioning invoice statuses is the
// caller's responsibility and should happen atomically on their side.
//
// Example usage:
//
//	engine := reconciler.NewEngine(reconciler.DefaultConfig(), matcher.DefaultMatchingConfig())
//	outcome := engine.ReconcileBatch(payments, residents, invoices)
//	for _, m := range outcome.Matched {
//		// apply m.Result to storage
//	}
//	for _, p := range outcome.Pending {
//		// queue p.Payment for manual review with p.Reason
//	}
package reconciler

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"expensas-reconciler/internal/matcher"
	"expensas-reconciler/internal/models"
	"expensas-reconciler/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds configuration options for the reconciliation engine
type Config struct {
	// PayerWeight and InvoiceWeight blend the two sub-confidences. Invoice
	// amount correctness is weighted higher than payer identification
	// strength: a correct amount is the strongest real-world signal that the
	// payment pays that invoice.
	PayerWeight   float64
	InvoiceWeight float64

	// AutoApplyThreshold is the minimum blended confidence for a batch
	// result to be auto-applied rather than queued for review. This is a
	// stricter bar than the per-payment payer gate.
	AutoApplyThreshold float64

	// MaxWorkers bounds the per-payment parallelism of ReconcileBatch.
	// Values below 2 mean sequential processing. Each payment's result is
	// independent, so ordering never affects an individual decision.
	MaxWorkers int
}

// DefaultConfig returns a default configuration for the reconciliation engine
func DefaultConfig() *Config {
	return &Config{
		PayerWeight:        0.4,
		InvoiceWeight:      0.6,
		AutoApplyThreshold: 70,
		MaxWorkers:         1,
	}
}

// Validate validates the engine configuration
func (c *Config) Validate() error {
	if c.PayerWeight < 0 || c.InvoiceWeight < 0 {
		return fmt.Errorf("blend weights cannot be negative: %.2f, %.2f", c.PayerWeight, c.InvoiceWeight)
	}

	total := c.PayerWeight + c.InvoiceWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("blend weights should sum to approximately 1.0, got %.2f", total)
	}

	if c.AutoApplyThreshold < 0 || c.AutoApplyThreshold > 100 {
		return fmt.Errorf("auto-apply threshold must be between 0 and 100, got %.2f", c.AutoApplyThreshold)
	}

	return nil
}

// MatchResult is the decision for one payment: the invoice and resident it
// pays, the amounts on both sides, the tier, the blended confidence and a
// rationale concatenating the signals that fired in both matching stages.
type MatchResult struct {
	InvoiceID     string            `json:"invoiceId"`
	ResidentID    string            `json:"residentId"`
	PaymentAmount decimal.Decimal   `json:"paymentAmount"`
	InvoiceAmount decimal.Decimal   `json:"invoiceAmount"`
	Tier          matcher.MatchTier `json:"tier"`
	Confidence    int               `json:"confidence"`
	Rationale     string            `json:"rationale"`
}

// MatchedPayment pairs a successful MatchResult with its originating payment
type MatchedPayment struct {
	Payment *models.PaymentRecord `json:"payment"`
	Result  *MatchResult          `json:"result"`
}

// PendingPayment pairs an unresolved payment with a human-readable reason
// for the manual-review queue
type PendingPayment struct {
	Payment *models.PaymentRecord `json:"payment"`
	Reason  string                `json:"reason"`
}

// BatchOutcome partitions a batch of payments into auto-applied matches and
// payments needing review. Every input payment appears in exactly one list.
type BatchOutcome struct {
	Matched []*MatchedPayment `json:"matched"`
	Pending []*PendingPayment `json:"pending"`
}

// Summary provides aggregate statistics about a batch outcome
type Summary struct {
	TotalPayments      int             `json:"total_payments"`
	MatchedPayments    int             `json:"matched_payments"`
	PendingPayments    int             `json:"pending_payments"`
	ExactMatches       int             `json:"exact_matches"`
	ApproximateMatches int             `json:"approximate_matches"`
	ManualMatches      int             `json:"manual_matches"`
	AmountMatched      decimal.Decimal `json:"amount_matched"`
	AmountPending      decimal.Decimal `json:"amount_pending"`
}

// Engine orchestrates the two matching stages for single payments and
// batches. It is stateless apart from its configuration and safe for
// concurrent use.
type Engine struct {
	config   *Config
	payer    *matcher.PayerIdentifier
	invoices *matcher.InvoiceMatcher
	log      logger.Logger
}

// NewEngine creates a reconciliation engine. Nil configurations fall back to
// the defaults.
func NewEngine(config *Config, matchingConfig *matcher.MatchingConfig) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if matchingConfig == nil {
		matchingConfig = matcher.DefaultMatchingConfig()
	}

	return &Engine{
		config:   config,
		payer:    matcher.NewPayerIdentifier(matchingConfig),
		invoices: matcher.NewInvoiceMatcher(matchingConfig),
		log:      logger.GetGlobalLogger().WithComponent("reconciliation_engine"),
	}
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() *Config {
	copied := *e.config
	return &copied
}

// ReconcileOne matches a single payment against the candidate residents and
// invoices. It returns nil when the payer cannot be identified with at least
// the minimum payer confidence, or when the identified resident has no
// invoice with a non-zero amount signal. No invoice search is attempted for
// an unverified payer; that avoids false-positive invoice matches.
func (e *Engine) ReconcileOne(payment *models.PaymentRecord, residents []*models.Resident, invoices []*models.Invoice) *MatchResult {
	if payment == nil {
		return nil
	}

	payerMatch, ok := e.payer.Identify(payment, residents)
	if !ok || payerMatch.Confidence < e.payer.MinConfidence() {
		e.log.WithFields(logger.Fields{
			"amount": payment.Amount.String(),
			"payer":  payment.PayerName,
		}).Debug("Payer not identified, payment left unresolved")
		return nil
	}

	invoiceMatch, ok := e.invoices.Match(payerMatch.Resident.ID, payment, invoices)
	if !ok {
		e.log.WithFields(logger.Fields{
			"resident": payerMatch.Resident.ID,
			"amount":   payment.Amount.String(),
		}).Debug("No invoice matched for identified resident")
		return nil
	}

	blended := math.Round(payerMatch.Confidence*e.config.PayerWeight +
		invoiceMatch.Confidence*e.config.InvoiceWeight)

	reasons := append(append([]string{}, payerMatch.Reasons...), invoiceMatch.Reasons...)

	return &MatchResult{
		InvoiceID:     invoiceMatch.Invoice.ID,
		ResidentID:    payerMatch.Resident.ID,
		PaymentAmount: payment.Amount,
		InvoiceAmount: invoiceMatch.Invoice.Amount,
		Tier:          e.invoices.Tier(payment, invoiceMatch.Invoice),
		Confidence:    int(blended),
		Rationale:     strings.Join(reasons, "; "),
	}
}

// ReconcileBatch reconciles each payment independently and partitions the
// batch into matched and pending. A result is auto-applied only when its
// blended confidence reaches the configured threshold; weaker results land
// in the pending list with the numeric shortfall spelled out.
func (e *Engine) ReconcileBatch(payments []*models.PaymentRecord, residents []*models.Resident, invoices []*models.Invoice) *BatchOutcome {
	results := make([]*MatchResult, len(payments))

	if e.config.MaxWorkers > 1 && len(payments) > 1 {
		e.reconcileParallel(payments, residents, invoices, results)
	} else {
		for i, payment := range payments {
			results[i] = e.ReconcileOne(payment, residents, invoices)
		}
	}

	outcome := &BatchOutcome{
		Matched: []*MatchedPayment{},
		Pending: []*PendingPayment{},
	}

	for i, payment := range payments {
		result := results[i]

		if result != nil && float64(result.Confidence) >= e.config.AutoApplyThreshold {
			outcome.Matched = append(outcome.Matched, &MatchedPayment{
				Payment: payment,
				Result:  result,
			})
			continue
		}

		reason := "could not identify resident or invoice"
		if result != nil {
			reason = fmt.Sprintf("confidence %d below auto-apply threshold %.0f",
				result.Confidence, e.config.AutoApplyThreshold)
		}

		outcome.Pending = append(outcome.Pending, &PendingPayment{
			Payment: payment,
			Reason:  reason,
		})
	}

	e.log.WithFields(logger.Fields{
		"payments": len(payments),
		"matched":  len(outcome.Matched),
		"pending":  len(outcome.Pending),
	}).Info("Batch reconciliation completed")

	return outcome
}

// reconcileParallel fans the payments out over a bounded worker pool. Each
// worker only reads the shared candidate lists and writes its own result
// slot, so no further synchronization is needed.
func (e *Engine) reconcileParallel(payments []*models.PaymentRecord, residents []*models.Resident, invoices []*models.Invoice, results []*MatchResult) {
	workers := e.config.MaxWorkers
	if workers > len(payments) {
		workers = len(payments)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = e.ReconcileOne(payments[i], residents, invoices)
			}
		}()
	}

	for i := range payments {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}

// Summarize computes aggregate statistics for a batch outcome
func Summarize(outcome *BatchOutcome) Summary {
	summary := Summary{
		MatchedPayments: len(outcome.Matched),
		PendingPayments: len(outcome.Pending),
		TotalPayments:   len(outcome.Matched) + len(outcome.Pending),
		AmountMatched:   decimal.Zero,
		AmountPending:   decimal.Zero,
	}

	for _, m := range outcome.Matched {
		switch m.Result.Tier {
		case matcher.TierExact:
			summary.ExactMatches++
		case matcher.TierApproximate:
			summary.ApproximateMatches++
		case matcher.TierManual:
			summary.ManualMatches++
		}
		summary.AmountMatched = summary.AmountMatched.Add(m.Payment.Amount)
	}

	for _, p := range outcome.Pending {
		summary.AmountPending = summary.AmountPending.Add(p.Payment.Amount)
	}

	return summary
}
