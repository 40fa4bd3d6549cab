// Package matcher implements the two matching stages of payment
// reconciliation: identifying the paying resident from the weak signals on a
// payment record, and locating the outstanding invoice that payment most
// likely settles.
//
// Both stages produce a confidence score on a 0-100 scale together with a
// human-readable rationale listing the signals that fired. The scores are
// tuned heuristics, not probabilities; every weight and threshold lives in
// MatchingConfig so a recalibration is a one-line change.
//
// Signal priority for payer identification, strongest first:
//  1. Exact email match (short-circuits the candidate scan)
//  2. Phone match on digit-only forms, tolerating country-code prefixes
//  3. Fuzzy name similarity against "First Last"
//  4. Resident name appearing in the payment reference or description
//
// Invoice matching is amount-first: an exact amount wins outright, close
// amounts score on a tiered scale, and due-date proximity plus an open
// invoice status apply multiplicative boosts on top of a non-zero amount
// signal.
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	payer := matcher.NewPayerIdentifier(config)
//	invoices := matcher.NewInvoiceMatcher(config)
//
//	pm, ok := payer.Identify(payment, residents)
//	if ok {
//		im, _ := invoices.Match(pm.Resident.ID, payment, openInvoices)
//		...
//	}
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchTier classifies a reconciled match by how closely the payment amount
// tracks the invoice amount. The tier decides how much review a match needs.
type MatchTier string

const (
	// TierExact means the amounts differ by less than one cent.
	// These matches are safe to auto-apply.
	TierExact MatchTier = "exact"

	// TierApproximate means the amounts differ by less than ten percent of
	// the invoice amount, typically bank fees or rounding on the payer side.
	TierApproximate MatchTier = "approximate"

	// TierManual means the amounts are too far apart for automatic matching.
	// It is only reachable through a manual operator override, since the
	// automatic path requires an amount signal to produce any confidence.
	TierManual MatchTier = "manual"
)

// String returns the string representation of MatchTier
func (t MatchTier) String() string {
	return string(t)
}

// MatchingConfig holds every weight, threshold and boost used by payer
// identification and invoice matching. Confidence values are on a 0-100
// scale; boost factors are plain multipliers.
//
// Use the provided factory functions for common scenarios:
//   - DefaultMatchingConfig(): the calibration used in production
//   - StrictMatchingConfig(): tighter gates for high-value communities
//   - RelaxedMatchingConfig(): looser gates for exploratory runs
type MatchingConfig struct {
	// EmailConfidence is the score for an exact case-insensitive email match
	EmailConfidence float64 `json:"email_confidence"`

	// PhoneConfidence is the score for a digit-normalized phone match
	PhoneConfidence float64 `json:"phone_confidence"`

	// NameConfidenceScale multiplies the fuzzy name similarity score
	NameConfidenceScale float64 `json:"name_confidence_scale"`

	// NameScoreThreshold is the minimum name similarity for the name signal to fire
	NameScoreThreshold float64 `json:"name_score_threshold"`

	// ReferenceConfidence is the score when the resident's name appears in
	// the payment reference or description
	ReferenceConfidence float64 `json:"reference_confidence"`

	// MinPayerConfidence gates the invoice search: below it the payer is
	// treated as unidentified and no invoice match is attempted
	MinPayerConfidence float64 `json:"min_payer_confidence"`

	// ExactAmountEpsilon is the absolute amount difference below which an
	// invoice amount counts as an exact match
	ExactAmountEpsilon decimal.Decimal `json:"exact_amount_epsilon"`

	// Tiered amount scoring: percentage difference bounds and their scores
	TightAmountPercent  float64 `json:"tight_amount_percent"`  // < this pct -> TightAmountScore
	TightAmountScore    float64 `json:"tight_amount_score"`
	CloseAmountPercent  float64 `json:"close_amount_percent"`  // < this pct -> CloseAmountScore
	CloseAmountScore    float64 `json:"close_amount_score"`
	LooseAmountPercent  float64 `json:"loose_amount_percent"`  // < this pct -> LooseAmountScore
	LooseAmountScore    float64 `json:"loose_amount_score"`

	// DateProximityDays is the due-date window, in days, for the date boost
	DateProximityDays int `json:"date_proximity_days"`

	// DateProximityBoost multiplies the invoice confidence when the payment
	// timestamp falls within DateProximityDays of the invoice due date
	DateProximityBoost float64 `json:"date_proximity_boost"`

	// OpenStatusBoost multiplies the invoice confidence when the invoice is
	// in an open status (pending or payment-reported)
	OpenStatusBoost float64 `json:"open_status_boost"`

	// ClampConfidence caps reported confidences at 100. The boosts above can
	// push a raw score past 100 (e.g. 95 x 1.1); clamping is the default,
	// the raw arithmetic is kept available for compatibility runs.
	ClampConfidence bool `json:"clamp_confidence"`
}

// DefaultMatchingConfig returns the production calibration
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		EmailConfidence:     100,
		PhoneConfidence:     90,
		NameConfidenceScale: 85,
		NameScoreThreshold:  0.7,
		ReferenceConfidence: 60,
		MinPayerConfidence:  50,
		ExactAmountEpsilon:  decimal.NewFromFloat(0.01),
		TightAmountPercent:  1.0,
		TightAmountScore:    95,
		CloseAmountPercent:  5.0,
		CloseAmountScore:    85,
		LooseAmountPercent:  10.0,
		LooseAmountScore:    70,
		DateProximityDays:   7,
		DateProximityBoost:  1.1,
		OpenStatusBoost:     1.05,
		ClampConfidence:     true,
	}
}

// StrictMatchingConfig returns a calibration with tighter gates, suitable
// when false positives are costlier than manual review volume
func StrictMatchingConfig() *MatchingConfig {
	config := DefaultMatchingConfig()
	config.NameScoreThreshold = 0.85
	config.ReferenceConfidence = 50
	config.MinPayerConfidence = 70
	config.TightAmountPercent = 0.5
	config.CloseAmountPercent = 2.0
	config.LooseAmountPercent = 5.0
	return config
}

// RelaxedMatchingConfig returns a calibration with looser gates for
// exploratory matching over messy imports
func RelaxedMatchingConfig() *MatchingConfig {
	config := DefaultMatchingConfig()
	config.NameScoreThreshold = 0.6
	config.MinPayerConfidence = 40
	config.LooseAmountPercent = 15.0
	config.DateProximityDays = 14
	return config
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	scores := map[string]float64{
		"email_confidence":      mc.EmailConfidence,
		"phone_confidence":      mc.PhoneConfidence,
		"name_confidence_scale": mc.NameConfidenceScale,
		"reference_confidence":  mc.ReferenceConfidence,
		"min_payer_confidence":  mc.MinPayerConfidence,
		"tight_amount_score":    mc.TightAmountScore,
		"close_amount_score":    mc.CloseAmountScore,
		"loose_amount_score":    mc.LooseAmountScore,
	}
	for name, value := range scores {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %f", name, value)
		}
	}

	if mc.NameScoreThreshold < 0 || mc.NameScoreThreshold > 1 {
		return fmt.Errorf("name score threshold must be between 0.0 and 1.0, got %f", mc.NameScoreThreshold)
	}

	if mc.ExactAmountEpsilon.IsNegative() {
		return fmt.Errorf("exact amount epsilon cannot be negative: %s", mc.ExactAmountEpsilon.String())
	}

	if mc.TightAmountPercent <= 0 || mc.CloseAmountPercent <= 0 || mc.LooseAmountPercent <= 0 {
		return fmt.Errorf("amount tier percentages must be positive")
	}

	if mc.TightAmountPercent >= mc.CloseAmountPercent || mc.CloseAmountPercent >= mc.LooseAmountPercent {
		return fmt.Errorf("amount tier percentages must be strictly increasing: %.2f, %.2f, %.2f",
			mc.TightAmountPercent, mc.CloseAmountPercent, mc.LooseAmountPercent)
	}

	if mc.DateProximityDays < 0 {
		return fmt.Errorf("date proximity days cannot be negative: %d", mc.DateProximityDays)
	}

	if mc.DateProximityBoost < 1.0 || mc.OpenStatusBoost < 1.0 {
		return fmt.Errorf("boost factors must be at least 1.0, got %.2f and %.2f",
			mc.DateProximityBoost, mc.OpenStatusBoost)
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	copied := *mc
	return &copied
}

// ClampScore applies the configured confidence cap to a raw score
func (mc *MatchingConfig) ClampScore(score float64) float64 {
	if mc.ClampConfidence && score > 100 {
		return 100
	}
	return score
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{MinPayer: %.0f, NameThreshold: %.2f, Tiers: <%.1f%%/<%.1f%%/<%.1f%%, Clamp: %t}",
		mc.MinPayerConfidence, mc.NameScoreThreshold,
		mc.TightAmountPercent, mc.CloseAmountPercent, mc.LooseAmountPercent, mc.ClampConfidence)
}
