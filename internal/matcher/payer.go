package matcher

import (
	"fmt"
	"math"
	"strings"

	"expensas-reconciler/internal/models"
	"expensas-reconciler/internal/textmatch"
)

// PayerIdentifier resolves which resident most likely sent a payment, using
// the descending-priority signals described in the package documentation.
type PayerIdentifier struct {
	config *MatchingConfig
}

// PayerMatch is the outcome of identifying a payer: the winning resident,
// the best confidence any signal achieved for them, and the descriptions of
// every signal that fired.
type PayerMatch struct {
	Resident   *models.Resident
	Confidence float64
	Reasons    []string
}

// NewPayerIdentifier creates a payer identifier with the given configuration
func NewPayerIdentifier(config *MatchingConfig) *PayerIdentifier {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &PayerIdentifier{config: config}
}

// MinConfidence returns the configured gate below which an identified payer
// is treated as unidentified by callers
func (pi *PayerIdentifier) MinConfidence() float64 {
	return pi.config.MinPayerConfidence
}

// Identify scans the candidate residents and returns the best match for the
// payment, or ok=false when no signal fires for any candidate. It never
// errors: missing payment fields simply disable their signal branch, and an
// empty candidate list yields no match.
//
// An exact email hit short-circuits the scan immediately, since no stronger
// signal exists. Ties on confidence keep the first candidate encountered.
func (pi *PayerIdentifier) Identify(payment *models.PaymentRecord, residents []*models.Resident) (*PayerMatch, bool) {
	if payment == nil || len(residents) == 0 {
		return nil, false
	}

	var best *PayerMatch

	for _, resident := range residents {
		if resident == nil {
			continue
		}

		match, emailHit := pi.scoreCandidate(payment, resident)

		if emailHit {
			// Exact email: nothing can outscore it, stop scanning.
			return match, true
		}

		if best == nil || match.Confidence > best.Confidence {
			best = match
		}
	}

	if best == nil || best.Confidence <= 0 {
		return nil, false
	}

	return best, true
}

// scoreCandidate evaluates every signal for one resident and keeps the best
// confidence achieved. Signals are not exclusive: all fired reasons are
// collected so the rationale reflects the full evidence.
func (pi *PayerIdentifier) scoreCandidate(payment *models.PaymentRecord, resident *models.Resident) (*PayerMatch, bool) {
	match := &PayerMatch{Resident: resident}

	emailHit := pi.matchesEmail(payment, resident)
	if emailHit {
		match.Confidence = pi.config.EmailConfidence
		match.Reasons = append(match.Reasons, "exact email match")
		// Stronger evidence than email does not exist; the remaining
		// signals are still recorded for the rationale.
	}

	if payment.PayerPhone != "" && resident.Phone != "" &&
		textmatch.PhonesMatch(payment.PayerPhone, resident.Phone) {
		if pi.config.PhoneConfidence > match.Confidence {
			match.Confidence = pi.config.PhoneConfidence
		}
		match.Reasons = append(match.Reasons, "phone number match")
	}

	if payment.PayerName != "" {
		score := textmatch.CompareNames(payment.PayerName, resident.FullName())
		if score > pi.config.NameScoreThreshold {
			confidence := math.Round(score * pi.config.NameConfidenceScale)
			if confidence > match.Confidence {
				match.Confidence = confidence
			}
			match.Reasons = append(match.Reasons,
				fmt.Sprintf("name similarity %.2f with '%s'", score, resident.FullName()))
		}
	}

	if pi.matchesReference(payment, resident) {
		if pi.config.ReferenceConfidence > match.Confidence {
			match.Confidence = pi.config.ReferenceConfidence
		}
		match.Reasons = append(match.Reasons, "resident name found in payment reference")
	}

	return match, emailHit
}

// matchesEmail checks for an exact case-insensitive email match
func (pi *PayerIdentifier) matchesEmail(payment *models.PaymentRecord, resident *models.Resident) bool {
	email := strings.TrimSpace(payment.PayerEmail)
	if email == "" || resident.Email == "" {
		return false
	}
	return strings.EqualFold(email, strings.TrimSpace(resident.Email))
}

// matchesReference checks whether the free-text reference or description
// mentions the resident, either by full name or by any single name token.
func (pi *PayerIdentifier) matchesReference(payment *models.PaymentRecord, resident *models.Resident) bool {
	freeText := strings.TrimSpace(payment.Reference + " " + payment.Description)
	if freeText == "" {
		return false
	}

	haystack := textmatch.NormalizeName(freeText)
	fullName := textmatch.NormalizeName(resident.FullName())
	if fullName == "" {
		return false
	}

	if strings.Contains(haystack, fullName) {
		return true
	}

	for _, token := range strings.Fields(fullName) {
		if strings.Contains(haystack, token) {
			return true
		}
	}

	return false
}
