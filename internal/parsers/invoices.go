package parsers

import (
	"expensas-reconciler/internal/models"
	"expensas-reconciler/pkg/logger"
)

// InvoiceParserConfig configures CSV parsing of invoice candidates
type InvoiceParserConfig struct {
	*ParseConfig
	// OpenOnly keeps only invoices in open statuses (pending and
	// payment-reported), the pre-filtering the matching engine expects.
	OpenOnly bool
}

// DefaultInvoiceParserConfig returns an invoice parser configuration with
// common header aliases. Open-status pre-filtering is on by default.
func DefaultInvoiceParserConfig() *InvoiceParserConfig {
	base := DefaultParseConfig()
	base.ColumnAliases = map[string]string{
		"invoice_id":  "id",
		"expensa_id":  "id",
		"resident":    "resident_id",
		"amt":         "amount",
		"value":       "amount",
		"importe":     "amount",
		"monto":       "amount",
		"state":       "status",
		"estado":      "status",
		"due":         "due_date",
		"vencimiento": "due_date",
		"month":       "period_month",
		"mes":         "period_month",
		"year":        "period_year",
		"anio":        "period_year",
		"community":   "community_name",
		"barrio":      "community_name",
	}
	return &InvoiceParserConfig{ParseConfig: base, OpenOnly: true}
}

// InvoiceParser parses invoice candidates from CSV files
type InvoiceParser struct {
	*baseParser
	openOnly bool
}

// NewInvoiceParser creates an invoice parser with the given configuration
func NewInvoiceParser(config *InvoiceParserConfig) *InvoiceParser {
	if config == nil {
		config = DefaultInvoiceParserConfig()
	}
	return &InvoiceParser{
		baseParser: newBaseParser(config.ParseConfig, "invoice_parser"),
		openOnly:   config.OpenOnly,
	}
}

// ParseInvoices reads every invoice from the file. When OpenOnly is set,
// invoices in non-open statuses parse successfully but are dropped from the
// result, since only open invoices are eligible reconciliation targets.
func (ip *InvoiceParser) ParseInvoices(path string) ([]*models.Invoice, *ParseStats, error) {
	var invoices []*models.Invoice
	stats := &ParseStats{}
	filtered := 0

	err := ip.readRows(path, []string{"id", "resident_id", "amount", "status", "period_month", "period_year"}, stats, func(r *row) error {
		invoice, err := models.CreateInvoiceFromCSV(
			r.get("id"),
			r.get("resident_id"),
			r.get("amount"),
			r.get("status"),
			r.get("due_date"),
			r.get("period_month"),
			r.get("period_year"),
			r.get("community_name"),
		)
		if err != nil {
			return err
		}

		if ip.openOnly && !invoice.IsOpen() {
			filtered++
			return nil
		}

		invoices = append(invoices, invoice)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	ip.log.WithFields(logger.Fields{
		"file":     path,
		"parsed":   stats.ParsedRows,
		"filtered": filtered,
		"errors":   len(stats.Errors),
	}).Info("Parsed invoices")

	return invoices, stats, nil
}
