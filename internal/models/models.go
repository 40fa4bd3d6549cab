// Package models defines the domain types consumed and produced by the
// reconciliation core: payment records, residents and invoices.
//
// All monetary values use decimal.Decimal to avoid floating point drift in
// amount comparisons. The types carry no persistence concerns; they are
// in-memory snapshots supplied by the caller for each reconciliation run.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	// StatusPending indicates the invoice is issued and awaiting payment.
	StatusPending InvoiceStatus = "pending"
	// StatusPaymentReported indicates a resident reported a payment that is
	// not yet confirmed.
	StatusPaymentReported InvoiceStatus = "payment-reported"
	// StatusConfirmed indicates the payment was verified and applied.
	StatusConfirmed InvoiceStatus = "confirmed"
	// StatusInArrears indicates the invoice is past due.
	StatusInArrears InvoiceStatus = "in-arrears"
	// StatusInRecovery indicates the invoice was handed to a recovery process.
	StatusInRecovery InvoiceStatus = "in-recovery"
	// StatusNoResponse indicates the resident never answered reminders.
	StatusNoResponse InvoiceStatus = "no-response"
	// StatusPaused indicates collection is suspended for this invoice.
	StatusPaused InvoiceStatus = "paused"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid checks if the invoice status is a known lifecycle state
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaymentReported, StatusConfirmed,
		StatusInArrears, StatusInRecovery, StatusNoResponse, StatusPaused:
		return true
	}
	return false
}

// IsOpen reports whether the invoice is an eligible reconciliation target.
// Only pending and payment-reported invoices accept incoming payments.
func (s InvoiceStatus) IsOpen() bool {
	return s == StatusPending || s == StatusPaymentReported
}

// ParseInvoiceStatus parses and validates an invoice status from string,
// tolerating case and separator variations found in exported data.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	status := InvoiceStatus(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invoice status '%s'", s)
	}
	return status, nil
}

// PaymentRecord represents an incoming, loosely structured report of money
// received. It has no identity of its own until matched against an invoice.
// All fields except Amount are optional; absent fields simply disable the
// corresponding matching signal.
type PaymentRecord struct {
	Amount      decimal.Decimal   `json:"amount" csv:"amount"`
	Timestamp   time.Time         `json:"timestamp,omitempty" csv:"timestamp"`
	Reference   string            `json:"reference,omitempty" csv:"reference"`
	PayerName   string            `json:"payerName,omitempty" csv:"payer_name"`
	PayerEmail  string            `json:"payerEmail,omitempty" csv:"payer_email"`
	PayerPhone  string            `json:"payerPhone,omitempty" csv:"payer_phone"`
	Description string            `json:"description,omitempty" csv:"description"`
	// Extras holds unrecognized columns from CSV-sourced imports. The core
	// tolerates and ignores them; they are kept for forward compatibility.
	Extras map[string]string `json:"extras,omitempty"`
}

// Validate performs basic validation on the PaymentRecord
func (p *PaymentRecord) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive, got %s", p.Amount.String())
	}
	return nil
}

// HasTimestamp reports whether the payment carries a usable timestamp
func (p *PaymentRecord) HasTimestamp() bool {
	return !p.Timestamp.IsZero()
}

// String returns a string representation of the PaymentRecord
func (p *PaymentRecord) String() string {
	return fmt.Sprintf("PaymentRecord{Amount: %s, Payer: %s, Email: %s, Reference: %s}",
		p.Amount.String(), p.PayerName, p.PayerEmail, p.Reference)
}

// MarshalJSON implements custom JSON marshaling for PaymentRecord
func (p *PaymentRecord) MarshalJSON() ([]byte, error) {
	type Alias PaymentRecord
	aux := &struct {
		Amount    string `json:"amount"`
		Timestamp string `json:"timestamp,omitempty"`
		*Alias
	}{
		Amount: p.Amount.String(),
		Alias:  (*Alias)(p),
	}
	if p.HasTimestamp() {
		aux.Timestamp = p.Timestamp.Format(time.RFC3339)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for PaymentRecord
func (p *PaymentRecord) UnmarshalJSON(data []byte) error {
	type Alias PaymentRecord
	aux := &struct {
		Amount    string `json:"amount"`
		Timestamp string `json:"timestamp,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	p.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	if aux.Timestamp != "" {
		p.Timestamp, err = ParseTimeWithFormats(aux.Timestamp)
		if err != nil {
			return fmt.Errorf("invalid timestamp format: %w", err)
		}
	}

	return nil
}

// Resident represents a billable occupant of a unit in a community. The ID is
// opaque and stable; Email is unique within a community.
type Resident struct {
	ID        string `json:"id" csv:"id"`
	FirstName string `json:"firstName" csv:"first_name"`
	LastName  string `json:"lastName" csv:"last_name"`
	Email     string `json:"email" csv:"email"`
	Phone     string `json:"phone,omitempty" csv:"phone"`
}

// FullName returns the resident's display name used for fuzzy matching
func (r *Resident) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Validate performs basic validation on the Resident
func (r *Resident) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("resident ID cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("resident email cannot be empty")
	}
	if r.FullName() == "" {
		return fmt.Errorf("resident name cannot be empty")
	}
	return nil
}

// String returns a string representation of the Resident
func (r *Resident) String() string {
	return fmt.Sprintf("Resident{ID: %s, Name: %s, Email: %s}", r.ID, r.FullName(), r.Email)
}

// Invoice represents one billing-period charge owed by a resident.
type Invoice struct {
	ID            string          `json:"id" csv:"id"`
	ResidentID    string          `json:"residentId" csv:"resident_id"`
	Amount        decimal.Decimal `json:"amount" csv:"amount"`
	Status        InvoiceStatus   `json:"status" csv:"status"`
	DueDate       time.Time       `json:"dueDate,omitempty" csv:"due_date"`
	PeriodMonth   int             `json:"periodMonth" csv:"period_month"`
	PeriodYear    int             `json:"periodYear" csv:"period_year"`
	CommunityName string          `json:"communityName" csv:"community_name"`
}

// Validate performs basic validation on the Invoice
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("invoice ID cannot be empty")
	}

	if strings.TrimSpace(i.ResidentID) == "" {
		return fmt.Errorf("invoice resident ID cannot be empty")
	}

	if !i.Amount.IsPositive() {
		return fmt.Errorf("invoice amount must be positive, got %s", i.Amount.String())
	}

	if !i.Status.IsValid() {
		return fmt.Errorf("invalid invoice status: %s", i.Status)
	}

	if i.PeriodMonth < 1 || i.PeriodMonth > 12 {
		return fmt.Errorf("invoice period month must be between 1 and 12, got %d", i.PeriodMonth)
	}

	return nil
}

// HasDueDate reports whether the invoice carries a due date
func (i *Invoice) HasDueDate() bool {
	return !i.DueDate.IsZero()
}

// IsOpen reports whether the invoice is an eligible reconciliation target
func (i *Invoice) IsOpen() bool {
	return i.Status.IsOpen()
}

// Period returns a human-readable billing period label
func (i *Invoice) Period() string {
	return fmt.Sprintf("%04d-%02d", i.PeriodYear, i.PeriodMonth)
}

// String returns a string representation of the Invoice
func (i *Invoice) String() string {
	return fmt.Sprintf("Invoice{ID: %s, Resident: %s, Amount: %s, Status: %s, Period: %s}",
		i.ID, i.ResidentID, i.Amount.String(), i.Status, i.Period())
}

// MarshalJSON implements custom JSON marshaling for Invoice
func (i *Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	aux := &struct {
		Amount  string `json:"amount"`
		DueDate string `json:"dueDate,omitempty"`
		*Alias
	}{
		Amount: i.Amount.String(),
		Alias:  (*Alias)(i),
	}
	if i.HasDueDate() {
		aux.DueDate = i.DueDate.Format("2006-01-02")
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for Invoice
func (i *Invoice) UnmarshalJSON(data []byte) error {
	type Alias Invoice
	aux := &struct {
		Amount  string `json:"amount"`
		DueDate string `json:"dueDate,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(i),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	i.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	if aux.DueDate != "" {
		i.DueDate, err = ParseTimeWithFormats(aux.DueDate)
		if err != nil {
			return fmt.Errorf("invalid due date format: %w", err)
		}
	}

	return nil
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTimeWithFormats attempts to parse time from string using multiple common formats
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	// Common time formats used in bank exports and CSV files
	formats := []string{
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
		"2006-01-02 15:04:05", // "2006-01-02 15:04:05"
		"2006-01-02T15:04:05", // "2006-01-02T15:04:05"
		"2006-01-02",          // "2006-01-02"
		"02/01/2006 15:04:05", // "02/01/2006 15:04:05"
		"02/01/2006",          // "02/01/2006"
		"02-01-2006",          // "02-01-2006"
		"2006/01/02",          // "2006/01/02"
		"Jan 2, 2006",         // "Jan 2, 2006"
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// DaysBetween returns the absolute difference between two times in whole days
func DaysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// CreatePaymentFromCSV creates a PaymentRecord from CSV field values. The
// extras map carries unrecognized columns through unchanged.
func CreatePaymentFromCSV(amountStr, timeStr, reference, payerName, payerEmail, payerPhone, description string, extras map[string]string) (*PaymentRecord, error) {
	amount, err := ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in CSV: %w", err)
	}

	payment := &PaymentRecord{
		Amount:      amount,
		Reference:   strings.TrimSpace(reference),
		PayerName:   strings.TrimSpace(payerName),
		PayerEmail:  strings.TrimSpace(payerEmail),
		PayerPhone:  strings.TrimSpace(payerPhone),
		Description: strings.TrimSpace(description),
		Extras:      extras,
	}

	if strings.TrimSpace(timeStr) != "" {
		payment.Timestamp, err = ParseTimeWithFormats(timeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid payment timestamp in CSV: %w", err)
		}
	}

	if err := payment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payment data: %w", err)
	}

	return payment, nil
}

// CreateInvoiceFromCSV creates an Invoice from CSV field values
func CreateInvoiceFromCSV(id, residentID, amountStr, statusStr, dueDateStr, monthStr, yearStr, communityName string) (*Invoice, error) {
	amount, err := ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in CSV: %w", err)
	}

	status, err := ParseInvoiceStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("invalid status in CSV: %w", err)
	}

	invoice := &Invoice{
		ID:            strings.TrimSpace(id),
		ResidentID:    strings.TrimSpace(residentID),
		Amount:        amount,
		Status:        status,
		CommunityName: strings.TrimSpace(communityName),
	}

	if strings.TrimSpace(dueDateStr) != "" {
		invoice.DueDate, err = ParseTimeWithFormats(dueDateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid due date in CSV: %w", err)
		}
	}

	if _, err := fmt.Sscanf(strings.TrimSpace(monthStr), "%d", &invoice.PeriodMonth); err != nil {
		return nil, fmt.Errorf("invalid period month in CSV: %w", err)
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(yearStr), "%d", &invoice.PeriodYear); err != nil {
		return nil, fmt.Errorf("invalid period year in CSV: %w", err)
	}

	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice data: %w", err)
	}

	return invoice, nil
}
