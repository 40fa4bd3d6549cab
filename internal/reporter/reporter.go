// Package reporter renders batch reconciliation outcomes for humans and
// machines.
//
// Supported output formats:
//   - Console: tabular output for terminal review
//   - JSON: structured output for programmatic consumption
//   - CSV: flat output for spreadsheet review queues
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"expensas-reconciler/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeMatched lists every auto-applied match, not just the summary
	IncludeMatched bool `json:"include_matched"`
	// IncludePending lists every payment queued for manual review
	IncludePending bool `json:"include_pending"`

	CSVDelimiter rune `json:"csv_delimiter"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		IncludeMatched: true,
		IncludePending: true,
		CSVDelimiter:   ',',
	}
}

// Validate checks the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders BatchOutcome values in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the outcome to the writer in the configured format
func (rg *ReportGenerator) GenerateReport(outcome *reconciler.BatchOutcome, writer io.Writer) error {
	if outcome == nil {
		return fmt.Errorf("batch outcome is required")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.generateJSONReport(outcome, writer)
	case FormatCSV:
		return rg.generateCSVReport(outcome, writer)
	default:
		return rg.generateConsoleReport(outcome, writer)
	}
}

func (rg *ReportGenerator) generateConsoleReport(outcome *reconciler.BatchOutcome, writer io.Writer) error {
	summary := reconciler.Summarize(outcome)

	fmt.Fprintln(writer, "RECONCILIATION SUMMARY")
	fmt.Fprintln(writer, strings.Repeat("=", 60))
	fmt.Fprintf(writer, "%-28s %d\n", "Total payments:", summary.TotalPayments)
	fmt.Fprintf(writer, "%-28s %d\n", "Auto-applied:", summary.MatchedPayments)
	fmt.Fprintf(writer, "%-28s %d\n", "Needs review:", summary.PendingPayments)
	fmt.Fprintf(writer, "%-28s %d exact, %d approximate, %d manual\n", "Match tiers:",
		summary.ExactMatches, summary.ApproximateMatches, summary.ManualMatches)
	fmt.Fprintf(writer, "%-28s %s\n", "Amount matched:", summary.AmountMatched.StringFixed(2))
	fmt.Fprintf(writer, "%-28s %s\n", "Amount pending:", summary.AmountPending.StringFixed(2))

	if rg.config.IncludeMatched && len(outcome.Matched) > 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "AUTO-APPLIED MATCHES")
		fmt.Fprintln(writer, strings.Repeat("-", 60))
		fmt.Fprintf(writer, "%-12s %-12s %-12s %-12s %-5s %s\n",
			"INVOICE", "RESIDENT", "PAID", "INVOICED", "CONF", "TIER")
		for _, m := range outcome.Matched {
			fmt.Fprintf(writer, "%-12s %-12s %-12s %-12s %-5d %s\n",
				m.Result.InvoiceID, m.Result.ResidentID,
				m.Result.PaymentAmount.StringFixed(2), m.Result.InvoiceAmount.StringFixed(2),
				m.Result.Confidence, m.Result.Tier)
		}
	}

	if rg.config.IncludePending && len(outcome.Pending) > 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "PENDING MANUAL REVIEW")
		fmt.Fprintln(writer, strings.Repeat("-", 60))
		for _, p := range outcome.Pending {
			fmt.Fprintf(writer, "%-12s %-24s %s\n",
				p.Payment.Amount.StringFixed(2), p.Payment.PayerName, p.Reason)
		}
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(outcome *reconciler.BatchOutcome, writer io.Writer) error {
	report := struct {
		Summary reconciler.Summary            `json:"summary"`
		Matched []*reconciler.MatchedPayment  `json:"matched,omitempty"`
		Pending []*reconciler.PendingPayment  `json:"pending,omitempty"`
	}{
		Summary: reconciler.Summarize(outcome),
	}

	if rg.config.IncludeMatched {
		report.Matched = outcome.Matched
	}
	if rg.config.IncludePending {
		report.Pending = outcome.Pending
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateCSVReport(outcome *reconciler.BatchOutcome, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	header := []string{"disposition", "invoice_id", "resident_id", "payment_amount",
		"invoice_amount", "tier", "confidence", "detail"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if rg.config.IncludeMatched {
		for _, m := range outcome.Matched {
			record := []string{
				"matched",
				m.Result.InvoiceID,
				m.Result.ResidentID,
				m.Result.PaymentAmount.StringFixed(2),
				m.Result.InvoiceAmount.StringFixed(2),
				m.Result.Tier.String(),
				strconv.Itoa(m.Result.Confidence),
				m.Result.Rationale,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	if rg.config.IncludePending {
		for _, p := range outcome.Pending {
			record := []string{
				"pending",
				"",
				"",
				p.Payment.Amount.StringFixed(2),
				"",
				"",
				"",
				p.Reason,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	return nil
}

// GetConfiguration returns a copy of the current report configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	copied := *rg.config
	return &copied
}
