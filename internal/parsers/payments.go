package parsers

import (
	"expensas-reconciler/internal/models"
	"expensas-reconciler/pkg/logger"
)

// paymentColumns are the canonical columns the payment parser recognizes.
// Anything else in the file lands in PaymentRecord.Extras untouched.
var paymentColumns = map[string]bool{
	"amount":      true,
	"timestamp":   true,
	"reference":   true,
	"payer_name":  true,
	"payer_email": true,
	"payer_phone": true,
	"description": true,
}

// PaymentParserConfig configures CSV parsing of payment records
type PaymentParserConfig struct {
	*ParseConfig
}

// DefaultPaymentParserConfig returns a payment parser configuration with
// aliases for the column names commonly seen in bank and processor exports
func DefaultPaymentParserConfig() *PaymentParserConfig {
	base := DefaultParseConfig()
	base.ColumnAliases = map[string]string{
		"amt":           "amount",
		"value":         "amount",
		"importe":       "amount",
		"monto":         "amount",
		"date":          "timestamp",
		"datetime":      "timestamp",
		"time":          "timestamp",
		"fecha":         "timestamp",
		"ref":           "reference",
		"referencia":    "reference",
		"concept":       "description",
		"concepto":      "description",
		"detail":        "description",
		"name":          "payer_name",
		"payer":         "payer_name",
		"nombre":        "payer_name",
		"email":         "payer_email",
		"mail":          "payer_email",
		"correo":        "payer_email",
		"phone":         "payer_phone",
		"telefono":      "payer_phone",
		"mobile":        "payer_phone",
	}
	return &PaymentParserConfig{ParseConfig: base}
}

// PaymentParser parses payment records from CSV files
type PaymentParser struct {
	*baseParser
}

// NewPaymentParser creates a payment parser with the given configuration
func NewPaymentParser(config *PaymentParserConfig) *PaymentParser {
	if config == nil {
		config = DefaultPaymentParserConfig()
	}
	return &PaymentParser{baseParser: newBaseParser(config.ParseConfig, "payment_parser")}
}

// ParsePayments reads every payment record from the file. Row-level failures
// are collected in the returned stats; only file-level problems (missing
// file, missing amount column) produce an error.
func (pp *PaymentParser) ParsePayments(path string) ([]*models.PaymentRecord, *ParseStats, error) {
	var payments []*models.PaymentRecord
	stats := &ParseStats{}

	err := pp.readRows(path, []string{"amount"}, stats, func(r *row) error {
		extras := make(map[string]string)
		for column, value := range r.fields {
			if !paymentColumns[column] && value != "" {
				extras[column] = value
			}
		}
		if len(extras) == 0 {
			extras = nil
		}

		payment, err := models.CreatePaymentFromCSV(
			r.get("amount"),
			r.get("timestamp"),
			r.get("reference"),
			r.get("payer_name"),
			r.get("payer_email"),
			r.get("payer_phone"),
			r.get("description"),
			extras,
		)
		if err != nil {
			return err
		}

		payments = append(payments, payment)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	pp.log.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
		"errors": len(stats.Errors),
	}).Info("Parsed payment records")

	return payments, stats, nil
}
